package commands

import (
	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewPickupCmd creates the pickup command
func NewPickupCmd(app *App) *cobra.Command {
	var req client.PickupRequest

	cmd := &cobra.Command{
		Use:   "pickup",
		Short: "Collect a package waiting in a locker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInput(req, map[string]string{
				"Contact": "contact", "UnlockCode": "code",
			}); err != nil {
				return err
			}

			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			resp, err := s.client.PickupPackage(cmd.Context(), req)
			if err != nil {
				return describeError(err)
			}

			s.printer.Message("✓ %s", resp.Message)
			if s.printer.Format() == output.FormatTable {
				return nil
			}
			return s.printer.Print(resp, output.Table{})
		},
	}

	cmd.Flags().StringVar(&req.Contact, "contact", "", "Receiver name the package was addressed to")
	cmd.Flags().StringVar(&req.UnlockCode, "code", "", "Six digit unlock code")

	return cmd
}
