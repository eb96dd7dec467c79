package commands

import (
	"fmt"
	"os"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a postmat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, app, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set POSTMAT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set POSTMAT_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(cmd *cobra.Command, app *App, email, password string) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// Environment variables are useful for CI
	if email == "" {
		email = s.env.Email
	}
	if password == "" {
		password = s.env.Password
	}

	if password == "" && email != "" {
		password, err = readPassword(cmd)
		if err != nil {
			return err
		}
	}

	req := client.LoginRequest{Email: email, Password: password}
	if err := validateInput(req, map[string]string{"Email": "email", "Password": "password"}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Logging in to %s (%s)...\n", s.server.Alias, s.server.URL)

	if _, err := s.client.Login(cmd.Context(), req.Email, req.Password); err != nil {
		return describeError(err)
	}

	fmt.Fprintln(out, "✓ Login successful!")

	user, err := s.client.CurrentUser(cmd.Context())
	if err != nil {
		s.logger.Debug().Err(err).Msg("Could not load user profile")
		return nil
	}

	fmt.Fprintf(out, "  User: %s (%s)\n", user.Name, user.Email)
	switch {
	case user.IsAdmin:
		fmt.Fprintln(out, "  Role: Admin")
	case user.IsBusiness:
		fmt.Fprintln(out, "  Role: Business")
	}

	return nil
}

// readPassword prompts on the terminal without echoing
func readPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or POSTMAT_PASSWORD env var)")
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}
