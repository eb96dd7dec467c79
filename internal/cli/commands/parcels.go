package commands

import (
	"fmt"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewParcelsCmd creates the parcels command
func NewParcelsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "parcels",
		Aliases: []string{"history"},
		Short:   "Show the history of parcels sent from your account",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			parcels, err := s.client.ListUserPackages(cmd.Context())
			if err != nil {
				return describeError(err)
			}

			if len(parcels) == 0 && s.printer.Format() == output.FormatTable {
				fmt.Fprintln(cmd.OutOrStdout(), "No parcels sent yet.")
				return nil
			}

			table := output.Table{Headers: []string{"ID", "RECEIVER", "SIZE", "STATUS", "PRICE", "CREATED AT"}}
			for _, p := range parcels {
				table.AddRow(
					p.ID.String(),
					p.ReceiverName,
					p.Size,
					p.Status,
					client.AmountDue(p),
					p.CreatedAt.Local().Format(timeLayout),
				)
			}
			return s.printer.Print(parcels, table)
		},
	}
}
