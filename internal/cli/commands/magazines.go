package commands

import (
	"fmt"
	"strconv"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewMagazinesCmd creates the magazines command group
func NewMagazinesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "magazines",
		Short: "Manage the warehouses packages are sent from",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List magazines",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListMagazines(cmd, app)
		},
	})
	cmd.AddCommand(newAddMagazineCmd(app))

	return cmd
}

func runListMagazines(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	magazines, err := s.client.ListMagazines(cmd.Context())
	if err != nil {
		return describeError(err)
	}

	if len(magazines) == 0 && s.printer.Format() == output.FormatTable {
		fmt.Fprintln(cmd.OutOrStdout(), "No magazines found.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nAdd one with: postmat magazines add --name <name> --address <address>")
		return nil
	}

	table := output.Table{Headers: []string{"ID", "NAME", "ADDRESS", "LAT", "LNG"}}
	for _, m := range magazines {
		table.AddRow(m.ID.String(), m.Name, m.Address, formatCoord(m.Lat), formatCoord(m.Lng))
	}
	return s.printer.Print(magazines, table)
}

func newAddMagazineCmd(app *App) *cobra.Command {
	var req client.CreateMagazineRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a magazine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInput(req, map[string]string{
				"Name": "name", "Address": "address", "Lat": "lat", "Lng": "lng",
			}); err != nil {
				return err
			}

			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			magazine, err := s.client.CreateMagazine(cmd.Context(), req)
			if err != nil {
				return describeError(err)
			}

			s.printer.Message("✓ Created magazine %s (%s)", magazine.Name, magazine.ID)
			if s.printer.Format() == output.FormatTable {
				return nil
			}
			return s.printer.Print(magazine, output.Table{})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Magazine name")
	cmd.Flags().StringVar(&req.Address, "address", "", "Street address")
	cmd.Flags().Float64Var(&req.Lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&req.Lng, "lng", 0, "Longitude")

	return cmd
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
