package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/mathieu-neron/channelfinder/internal/middleware"
	"github.com/mathieu-neron/channelfinder/internal/model"
	"github.com/mathieu-neron/channelfinder/internal/repository"
	"github.com/mathieu-neron/channelfinder/internal/service"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <category>",
		Short: "List stored channels of a category, most populous first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			category := model.Category(strings.ToLower(strings.TrimSpace(args[0])))
			resp, err := a.Channels.List(cmd.Context(), category, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Label)
			if len(resp.Channels) == 0 {
				fmt.Fprintln(out, "No channels stored yet")
				return nil
			}
			fmt.Fprintln(out, renderChannels(newPrinter(), resp.Channels))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", middleware.DefaultListLimit, "Maximum number of channels to show (0 shows all)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one stored channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid channel id %q", args[0])
			}
			a, err := ctx.ensureApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			ch, err := a.Channels.Get(cmd.Context(), id)
			if errors.Is(err, repository.ErrChannelNotFound) {
				return fmt.Errorf("no channel with id %d", id)
			}
			if err != nil {
				return err
			}
			renderChannel(cmd.OutOrStdout(), newPrinter(), ch, a.Catalog.Label(ch.Category))
			return nil
		},
	}
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories with their channel counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			cats, err := a.Channels.Categories(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter()
			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				rows = append(rows, []string{string(c.Key), c.Label, p.Sprintf("%d", c.Count)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Category", "Channels"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics of the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			stats, err := a.Channels.Stats(cmd.Context())
			if err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), newPrinter(), stats, a.Catalog.Order(), a.Catalog.Label)
			return nil
		},
	}
}

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <id>",
		Short: "Post a stored channel to the target channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid channel id %q", args[0])
			}
			a, err := ctx.ensureBotApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			ch, err := a.Publisher.Publish(cmd.Context(), id)
			switch {
			case errors.Is(err, service.ErrNoTarget):
				return errors.New("TARGET_CHANNEL is not set")
			case errors.Is(err, repository.ErrChannelNotFound):
				return fmt.Errorf("no channel with id %d", id)
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📤 Posted @%s to %s\n", ch.Identifier, a.Publisher.Target())
			return nil
		},
	}
}

func renderChannels(p *message.Printer, channels []model.Channel) string {
	rows := make([][]string, 0, len(channels))
	for i := range channels {
		ch := &channels[i]
		rows = append(rows, []string{
			strconv.FormatInt(ch.ID, 10),
			"@" + ch.Identifier,
			ch.DisplayName,
			formatPopulation(p, ch),
			string(ch.SourceTag),
		})
	}
	return renderTable([]string{"ID", "Username", "Title", "Members", "Source"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft})
}

func renderChannel(w io.Writer, p *message.Printer, ch *model.Channel, label string) {
	rows := [][]string{
		{"Title", ch.DisplayName},
		{"Link", ch.Link()},
		{"Category", label},
		{"Members", formatPopulation(p, ch)},
		{"Estimated", yesNo(ch.PopulationEstimated)},
		{"Source", string(ch.SourceTag)},
		{"Added", ch.AddedAt.UTC().Format("2006-01-02 15:04")},
		{"Updated", ch.UpdatedAt.UTC().Format("2006-01-02 15:04")},
	}
	fmt.Fprintf(w, "#%d @%s\n", ch.ID, ch.Identifier)
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, nil))
}

func renderStats(w io.Writer, p *message.Printer, s *model.StatsResponse, order []model.Category, label func(model.Category) string) {
	p.Fprintf(w, "%d channels, %d members (%d of them estimated)\n", s.TotalChannels, s.TotalMembers, s.EstimatedMembers)

	rows := make([][]string, 0, len(order))
	for _, c := range order {
		rows = append(rows, []string{label(c), p.Sprintf("%d", s.Categories[c])})
	}
	fmt.Fprintln(w, renderTable([]string{"Category", "Channels"}, rows, []columnAlignment{alignLeft, alignRight}))

	rows = rows[:0]
	for _, tag := range model.SourceTags {
		rows = append(rows, []string{string(tag), p.Sprintf("%d", s.Sources[tag])})
	}
	fmt.Fprintln(w, renderTable([]string{"Source", "Channels"}, rows, []columnAlignment{alignLeft, alignRight}))
}

// formatPopulation prints a member count with grouping, prefixed with ~
// when it is an estimate.
func formatPopulation(p *message.Printer, ch *model.Channel) string {
	s := p.Sprintf("%d", ch.Population)
	if ch.PopulationEstimated {
		return "~" + s
	}
	return s
}
