package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/mathieu-neron/channelfinder/internal/app"
	"github.com/mathieu-neron/channelfinder/internal/config"
	"github.com/mathieu-neron/channelfinder/internal/middleware"
	"github.com/mathieu-neron/channelfinder/internal/model"
)

type commandContext struct {
	logLevel *string
	noCache  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	mu  sync.Mutex
	app *app.App
}

func newCommandContext(logLevel *string, noCache *bool) *commandContext {
	return &commandContext{logLevel: logLevel, noCache: noCache}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg := config.Load()
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			cfg.LogLevel = strings.TrimSpace(*c.logLevel)
		}
		// ADMIN_TOKEN guards the HTTP API only.
		cfg.Environment = "cli"
		if err := cfg.ValidateStore(); err != nil {
			c.configErr = err
			return
		}
		middleware.InitConsoleLogger(cfg.LogLevel, "channelfinder-cli")
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureApp connects to the stores once per invocation. progress, when
// non-nil, receives sweep progress lines.
func (c *commandContext) ensureApp(ctx context.Context, progress io.Writer) (*app.App, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app != nil {
		return c.app, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	opts := app.Options{NoCache: c.noCache != nil && *c.noCache}
	if progress != nil {
		p := newPrinter()
		opts.OnProgress = func(rp model.RunProgress) {
			p.Fprintf(progress, "… tested %d/%d, verified %d\n", rp.Tested, rp.Total, rp.Verified)
		}
	}
	a, err := app.New(ctx, cfg, middleware.Logger, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	c.app = a
	return a, nil
}

// ensureBotApp is ensureApp for commands that call the Bot API.
func (c *commandContext) ensureBotApp(ctx context.Context, progress io.Writer) (*app.App, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireBotToken(); err != nil {
		return nil, err
	}
	return c.ensureApp(ctx, progress)
}

func (c *commandContext) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
