package commands

import (
	"errors"
	"fmt"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewBusinessCmd creates the business onboarding command group
func NewBusinessCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "business",
		Short: "Apply for a business account",
	}

	cmd.AddCommand(newBusinessRequestCmd(app))
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the state of your business request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBusinessStatus(cmd, app)
		},
	})

	return cmd
}

func newBusinessRequestCmd(app *App) *cobra.Command {
	var req client.SubmitBusinessRequest

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Submit a business account request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateInput(req, map[string]string{
				"TaxID": "tax-id", "CompanyName": "company-name",
			}); err != nil {
				return err
			}

			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			created, err := s.client.SubmitBusinessRequest(cmd.Context(), req)
			if err != nil {
				return describeError(err)
			}

			s.printer.Message("✓ Submitted business request for %s (status %s)", created.CompanyName, created.Status)
			if s.printer.Format() == output.FormatTable {
				return nil
			}
			return s.printer.Print(created, output.Table{})
		},
	}

	cmd.Flags().StringVar(&req.TaxID, "tax-id", "", "10-digit tax identification number (NIP)")
	cmd.Flags().StringVar(&req.CompanyName, "company-name", "", "Registered company name")
	cmd.Flags().StringVar(&req.Address, "address", "", "Company address")

	return cmd
}

func runBusinessStatus(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	req, err := s.client.GetBusinessRequest(cmd.Context())
	if errors.Is(err, client.ErrNotFound) {
		fmt.Fprintln(cmd.OutOrStdout(), "No business request submitted.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nApply with: postmat business request --tax-id <nip> --company-name <name>")
		return nil
	}
	if err != nil {
		return describeError(err)
	}

	return s.printer.Print(req, businessRequestTable([]client.BusinessRequest{*req}))
}

func businessRequestTable(requests []client.BusinessRequest) output.Table {
	table := output.Table{Headers: []string{"ID", "COMPANY", "TAX ID", "STATUS", "CREATED AT"}}
	for _, r := range requests {
		table.AddRow(r.ID.String(), r.CompanyName, r.TaxID, r.Status, r.CreatedAt.Local().Format(timeLayout))
	}
	return table
}
