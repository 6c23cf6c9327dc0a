package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathieu-neron/channelfinder/internal/model"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored channel as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			channels, err := a.Repo.All(cmd.Context())
			if err != nil {
				return fmt.Errorf("export channels: %w", err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if path := strings.TrimSpace(output); path != "" && path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeExport(w, channels, time.Now()); err != nil {
				return err
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d channels to %s\n", len(channels), output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Destination file (- for stdout)")
	return cmd
}

func writeExport(w io.Writer, channels []model.Channel, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(model.ChannelExport{
		ExportedAt: now.UTC(),
		Count:      len(channels),
		Channels:   channels,
	})
}
