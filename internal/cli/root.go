package cli

import (
	"fmt"
	"os"

	"github.com/postmat-dev/postmat/internal/cli/commands"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the postmat command tree
func NewRootCmd(version string) *cobra.Command {
	app := &commands.App{}

	rootCmd := &cobra.Command{
		Use:   "postmat",
		Short: "Postmat - parcel locker platform CLI",
		Long: `Postmat CLI - manage business packages, magazines and payments
from the terminal.

Sessions are kept per server in the OS keychain. When the server reports the
session has expired, the CLI signs you out and asks you to log in again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&app.ServerAlias, "server", "", "Server alias from postmat.json")
	rootCmd.PersistentFlags().StringVarP(&app.Output, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log HTTP requests and session checks to stderr")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "postmat version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd(app))
	rootCmd.AddCommand(commands.NewRegisterCmd(app))
	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewStatusCmd(app))
	rootCmd.AddCommand(commands.NewDashboardCmd(app))
	rootCmd.AddCommand(commands.NewMagazinesCmd(app))
	rootCmd.AddCommand(commands.NewPackagesCmd(app))
	rootCmd.AddCommand(commands.NewPaymentsCmd(app))
	rootCmd.AddCommand(commands.NewTrackCmd(app))
	rootCmd.AddCommand(commands.NewPickupCmd(app))
	rootCmd.AddCommand(commands.NewParcelsCmd(app))
	rootCmd.AddCommand(commands.NewBusinessCmd(app))
	rootCmd.AddCommand(commands.NewAdminCmd(app))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
