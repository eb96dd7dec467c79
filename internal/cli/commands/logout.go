package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the selected server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd, app)
		},
	}
}

func runLogout(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	// A server that no longer knows the session still counts as logged out
	if err := s.client.Logout(cmd.Context()); err != nil {
		s.logger.Debug().Err(err).Msg("Server-side logout failed")
	}

	if err := s.jar.Clear(); err != nil {
		return fmt.Errorf("failed to remove stored session: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged out of %s\n", s.server.Alias)
	return nil
}
