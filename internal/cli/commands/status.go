package commands

import (
	"fmt"
	"strconv"

	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/postmat-dev/postmat/internal/cli/userconfig"
	"github.com/spf13/cobra"
)

// Status is the session report printed by the status command
type Status struct {
	Server   string       `json:"server" yaml:"server"`
	URL      string       `json:"url" yaml:"url"`
	LoggedIn bool         `json:"logged_in" yaml:"logged_in"`
	Session  string       `json:"session" yaml:"session"`
	User     *client.User `json:"user,omitempty" yaml:"user,omitempty"`
}

// NewStatusCmd creates the status command
func NewStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the selected server and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, app)
		},
	}
}

func runStatus(cmd *cobra.Command, app *App) error {
	s, err := app.newSession(cmd)
	if err != nil {
		return err
	}

	loggedIn, err := userconfig.IsLoggedIn(s.server.URL)
	if err != nil {
		return err
	}

	status := Status{
		Server:   s.server.Alias,
		URL:      s.server.URL,
		LoggedIn: loggedIn,
	}

	health, err := s.client.TokenHealth(cmd.Context())
	if err != nil {
		return describeError(err)
	}
	status.Session = health.Reason

	if health.Valid {
		user, err := s.client.CurrentUser(cmd.Context())
		if err != nil {
			return describeError(err)
		}
		status.User = user
	}

	table := output.Table{Headers: []string{"FIELD", "VALUE"}}
	table.AddRow("Server", fmt.Sprintf("%s (%s)", status.Server, status.URL))
	table.AddRow("Logged in", strconv.FormatBool(status.LoggedIn))
	table.AddRow("Session", status.Session)
	if status.User != nil {
		table.AddRow("User", fmt.Sprintf("%s (%s)", status.User.Name, status.User.Email))
		table.AddRow("Role", role(status.User))
	}

	return s.printer.Print(status, table)
}

func role(user *client.User) string {
	switch {
	case user.IsAdmin:
		return "admin"
	case user.IsBusiness:
		return "business"
	default:
		return "customer"
	}
}
