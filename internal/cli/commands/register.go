package commands

import (
	"fmt"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/spf13/cobra"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(app *App) *cobra.Command {
	var req client.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on a postmat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.newSession(cmd)
			if err != nil {
				return err
			}

			if req.Email == "" {
				req.Email = s.env.Email
			}
			if req.Password == "" {
				req.Password = s.env.Password
			}
			if req.Password == "" && req.Email != "" {
				req.Password, err = readPassword(cmd)
				if err != nil {
					return err
				}
			}

			if err := validateInput(req, map[string]string{
				"Email": "email", "Password": "password", "Name": "name",
			}); err != nil {
				return err
			}

			user, err := s.client.Register(cmd.Context(), req)
			if err != nil {
				return describeError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Registered %s on %s\n", user.Email, s.server.Alias)
			fmt.Fprintf(out, "\nLog in with: postmat login --email %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address (or set POSTMAT_EMAIL)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "Password, at least 8 characters (or set POSTMAT_PASSWORD, will prompt if not provided)")

	return cmd
}
