package commands

import (
	"strconv"

	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash"},
		Short:   "Show business panel totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			stats, err := s.client.DashboardStats(cmd.Context())
			if err != nil {
				return describeError(err)
			}

			table := output.Table{Headers: []string{"PACKAGES", "UNPAID", "MAGAZINES"}}
			table.AddRow(
				strconv.Itoa(stats.TotalPackages),
				strconv.Itoa(stats.UnpaidPackages),
				strconv.Itoa(stats.TotalMagazines),
			)
			return s.printer.Print(stats, table)
		},
	}
}
