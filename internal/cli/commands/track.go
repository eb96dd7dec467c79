package commands

import (
	"errors"
	"fmt"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewTrackCmd creates the track command
func NewTrackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "track <package-id>",
		Short: "Show the public tracking history of a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			tracked, err := s.client.TrackPackage(cmd.Context(), args[0])
			if errors.Is(err, client.ErrNotFound) {
				return fmt.Errorf("package %s not found", args[0])
			}
			if err != nil {
				return describeError(err)
			}

			s.printer.Message("Package %s (size %s): %s", tracked.ID, tracked.Size, tracked.Status)

			table := output.Table{Headers: []string{"TIME", "STATUS"}}
			for _, event := range tracked.History {
				label := event.StatusDisplay
				if label == "" {
					label = event.Status
				}
				table.AddRow(event.Timestamp.Local().Format(timeLayout), label)
			}
			return s.printer.Print(tracked, table)
		},
	}
}
