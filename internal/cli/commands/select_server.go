package commands

import (
	"fmt"

	"github.com/postmat-dev/postmat/internal/cli/config"
	"github.com/postmat-dev/postmat/internal/cli/serverselect"
	"github.com/postmat-dev/postmat/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// NewSelectServerCmd creates the select-server command
func NewSelectServerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-server [url-or-alias]",
		Short: "Select the server to use for commands",
		Long: `Select the server to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ postmat select-server                         # Interactive selection
  $ postmat select-server http://localhost:8000   # Select by URL
  $ postmat select-server production              # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectServer(cmd, app, urlOrAlias)
		},
	}

	return cmd
}

func runSelectServer(cmd *cobra.Command, app *App, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'postmat init <url>' to create a configuration file", err)
	}

	var server *config.Server
	if urlOrAlias != "" {
		server, err = cfg.GetServerByURLOrAlias(urlOrAlias)
	} else {
		prompt := app.Prompt
		if prompt == nil {
			prompt = serverselect.PromptServerSelection
		}
		server, err = prompt(cfg.Servers)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		return fmt.Errorf("failed to save selected server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Selected server: %s (%s)\n", server.Alias, server.URL)
	return nil
}
