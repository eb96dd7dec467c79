package commands

import (
	"fmt"
	"strconv"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

// NewPackagesCmd creates the packages command group
func NewPackagesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Manage packages sent by the business account",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List packages",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListPackages(cmd, app)
		},
	})
	cmd.AddCommand(newCreatePackageCmd(app))

	return cmd
}

func runListPackages(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	packages, err := s.client.ListPackages(cmd.Context())
	if err != nil {
		return describeError(err)
	}

	if len(packages) == 0 && s.printer.Format() == output.FormatTable {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages found.")
		return nil
	}

	table := output.Table{Headers: []string{"ID", "RECEIVER", "SIZE", "STATUS", "PAID", "CREATED AT"}}
	for _, p := range packages {
		table.AddRow(
			p.ID.String(),
			p.ReceiverName,
			p.Size,
			p.Status,
			strconv.FormatBool(p.IsPaid),
			p.CreatedAt.Local().Format(timeLayout),
		)
	}
	return s.printer.Print(packages, table)
}

func newCreatePackageCmd(app *App) *cobra.Command {
	var req client.CreatePackageRequest
	var magazineID string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			if magazineID == "" {
				magazineID, err = firstMagazineID(cmd, s)
				if err != nil {
					return err
				}
			}
			req.MagazineID = client.ID(magazineID)

			if err := validateInput(req, map[string]string{
				"MagazineID":      "magazine",
				"ReceiverName":    "receiver-name",
				"ReceiverAddress": "receiver-address",
				"Size":            "size",
				"Weight":          "weight",
			}); err != nil {
				return err
			}

			pkg, err := s.client.CreatePackage(cmd.Context(), req)
			if err != nil {
				return describeError(err)
			}

			s.printer.Message("✓ Created package %s (size %s, %s PLN due)", pkg.ID, pkg.Size, client.AmountDue(*pkg))
			s.printer.Message("  Track it with: postmat track %s", pkg.ID)
			if s.printer.Format() == output.FormatTable {
				return nil
			}
			return s.printer.Print(pkg, output.Table{})
		},
	}

	cmd.Flags().StringVar(&magazineID, "magazine", "", "ID of the magazine the package is sent from (defaults to the first one)")
	cmd.Flags().StringVar(&req.ReceiverName, "receiver-name", "", "Receiver's name")
	cmd.Flags().StringVar(&req.ReceiverAddress, "receiver-address", "", "Receiver's address")
	cmd.Flags().StringVar(&req.Size, "size", "M", "Package size: S, M or L")
	cmd.Flags().Float64Var(&req.Weight, "weight", 0, "Weight in kg")

	return cmd
}

func firstMagazineID(cmd *cobra.Command, s *session) (string, error) {
	magazines, err := s.client.ListMagazines(cmd.Context())
	if err != nil {
		return "", describeError(err)
	}
	if len(magazines) == 0 {
		return "", fmt.Errorf("no magazines found. Add one with 'postmat magazines add' first")
	}
	return magazines[0].ID.String(), nil
}
