package commands

import (
	"fmt"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// PaymentsSummary lists the packages awaiting payment
type PaymentsSummary struct {
	Packages []client.Package `json:"packages" yaml:"packages"`
	Total    string           `json:"total" yaml:"total"`
}

// NewPaymentsCmd creates the payments command group
func NewPaymentsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Show packages awaiting payment",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List unpaid packages and the amount due",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListPayments(cmd, app)
		},
	})

	return cmd
}

func runListPayments(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	packages, err := s.client.ListPackages(cmd.Context())
	if err != nil {
		return describeError(err)
	}

	unpaid := client.UnpaidPackages(packages)
	total, err := client.TotalDue(unpaid)
	if err != nil {
		return err
	}

	if len(unpaid) == 0 && s.printer.Format() == output.FormatTable {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to pay.")
		return nil
	}

	table := output.Table{Headers: []string{"ID", "RECEIVER", "SIZE", "AMOUNT"}}
	for _, p := range unpaid {
		table.AddRow(p.ID.String(), p.ReceiverName, p.Size, client.AmountDue(p))
	}
	table.AddRow("", "", "TOTAL", total)

	return s.printer.Print(PaymentsSummary{Packages: unpaid, Total: total}, table)
}
