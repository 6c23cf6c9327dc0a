package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/mathieu-neron/channelfinder/internal/discovery"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/service"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep [category]",
		Short: "Run a topic sweep for one category, or all of them",
		Long: "Generate candidate usernames from the catalog seeds of a category " +
			"(or every category with \"all\", the default), verify each against the Bot API " +
			"and store the ones that resolve to a public channel or supergroup.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := discovery.AllCategories
			if len(args) == 1 {
				category = strings.ToLower(strings.TrimSpace(args[0]))
			}
			a, err := ctx.ensureBotApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			summary, err := a.Discovery.RunTopicSweep(cmd.Context(), category)
			if errors.Is(err, discovery.ErrUnknownCategory) {
				return fmt.Errorf("unknown category %q (choose from %s or %s)", category, joinCategories(a.Catalog.Order()), discovery.AllCategories)
			}
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), newPrinter(), summary)
			return nil
		},
	}
}

func newPopularCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "popular",
		Short: "Verify the curated list of popular channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureBotApp(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			summary, err := a.Discovery.RunPopularSweep(cmd.Context())
			if err != nil {
				return err
			}
			renderSummary(cmd.OutOrStdout(), newPrinter(), summary)
			return nil
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <username>",
		Short: "Verify and store a single channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureBotApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			ch, err := a.Discovery.AddManual(cmd.Context(), args[0])
			switch {
			case errors.Is(err, service.ErrNotVerified):
				return fmt.Errorf("@%s is not a public channel or supergroup", model.NormalizeIdentifier(args[0]))
			case err != nil:
				return err
			}
			p := newPrinter()
			p.Fprintf(cmd.OutOrStdout(), "✅ Added @%s to %s (%s members)\n",
				ch.Identifier, a.Catalog.Label(ch.Category), formatPopulation(p, ch))
			return nil
		},
	}
}

func renderSummary(w io.Writer, p *message.Printer, s *model.RunSummary) {
	title := string(s.Mode)
	if s.Category != "" {
		title += " " + s.Category
	}
	status := "completed"
	if s.Cancelled {
		status = "cancelled"
	}
	p.Fprintf(w, "Run %s (%s) %s in %s\n", s.RunID, title, status, s.Elapsed.Round(100*time.Millisecond))

	rows := [][]string{
		{"Generated", p.Sprintf("%d", s.Generated)},
		{"Tested", p.Sprintf("%d", s.Tested)},
		{"Verified", p.Sprintf("%d", s.Verified)},
		{"Stored", p.Sprintf("%d", s.Stored)},
		{"Failed", p.Sprintf("%d", s.Failed)},
		{"Paced", s.Paced.Round(100*time.Millisecond).String()},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func joinCategories(order []model.Category) string {
	keys := make([]string, len(order))
	for i, c := range order {
		keys[i] = string(c)
	}
	return strings.Join(keys, ", ")
}
