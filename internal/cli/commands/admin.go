package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewAdminCmd creates the admin command group
func NewAdminCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (admin accounts only)",
	}

	requests := &cobra.Command{
		Use:   "requests",
		Short: "Review business account requests",
	}
	requests.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List business requests, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListBusinessRequests(cmd, app)
		},
	})
	for _, action := range []struct {
		name  string
		short string
	}{
		{client.ActionApprove, "Approve a request and grant the business role"},
		{client.ActionReject, "Reject a request"},
		{client.ActionDelete, "Delete a request"},
	} {
		action := action
		requests.AddCommand(&cobra.Command{
			Use:   action.name + " <request-id>",
			Short: action.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBusinessRequestAction(cmd, app, args[0], action.name)
			},
		})
	}

	packages := &cobra.Command{
		Use:   "packages",
		Short: "Manage packages across all accounts",
	}
	packages.AddCommand(&cobra.Command{
		Use:   "status <package-id> <status>",
		Short: "Move a package to a new status (" + strings.Join(client.PackageStatuses, ", ") + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdatePackageStatus(cmd, app, args[0], args[1])
		},
	})

	cmd.AddCommand(requests, packages)
	return cmd
}

func runUpdatePackageStatus(cmd *cobra.Command, app *App, packageID, status string) error {
	status = strings.ToUpper(status)
	if !slices.Contains(client.PackageStatuses, status) {
		return fmt.Errorf("status must be one of: %s", strings.Join(client.PackageStatuses, ", "))
	}

	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	resp, err := s.client.UpdatePackageStatus(cmd.Context(), packageID, status)
	if err != nil {
		return describeError(err)
	}

	s.printer.Message("✓ Package %s is now %s", packageID, resp.StatusDisplay)
	if s.printer.Format() == output.FormatTable {
		return nil
	}
	return s.printer.Print(resp, output.Table{})
}

func runListBusinessRequests(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	requests, err := s.client.ListBusinessRequests(cmd.Context())
	if err != nil {
		return describeError(err)
	}

	if len(requests) == 0 && s.printer.Format() == output.FormatTable {
		fmt.Fprintln(cmd.OutOrStdout(), "No business requests.")
		return nil
	}

	return s.printer.Print(requests, businessRequestTable(requests))
}

func runBusinessRequestAction(cmd *cobra.Command, app *App, requestID, action string) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	resp, err := s.client.ActOnBusinessRequest(cmd.Context(), requestID, action)
	if err != nil {
		return describeError(err)
	}

	if resp.Deleted {
		s.printer.Message("✓ Deleted request %s", requestID)
	} else {
		s.printer.Message("✓ Request %s is now %s", requestID, resp.NewStatus)
	}
	if s.printer.Format() == output.FormatTable {
		return nil
	}
	return s.printer.Print(resp, output.Table{})
}
