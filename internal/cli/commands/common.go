package commands

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/postmat-dev/postmat/internal/cli/auth"
	"github.com/postmat-dev/postmat/internal/cli/client"
	"github.com/postmat-dev/postmat/internal/cli/config"
	"github.com/postmat-dev/postmat/internal/cli/output"
	"github.com/postmat-dev/postmat/internal/cli/serverselect"
	"github.com/postmat-dev/postmat/internal/cli/userconfig"
	"github.com/postmat-dev/postmat/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// SessionExpiredMessage is printed when the API reports the session is gone
const SessionExpiredMessage = "Session expired. Run 'postmat login' to sign in again."

// App holds the global flags shared by every command
type App struct {
	ServerAlias string
	Output      string
	Verbose     bool
	// Prompt overrides the interactive server picker
	Prompt serverselect.Prompter
}

// session is everything a command needs to talk to one server
type session struct {
	server  *config.Server
	env     *config.Env
	client  *client.Client
	jar     *auth.PersistentJar
	printer *output.Printer
	logger  zerolog.Logger
}

// loginNavigator ends the local session and tells the user to sign in again
type loginNavigator struct {
	w      io.Writer
	jar    *auth.PersistentJar
	logger zerolog.Logger
}

func (n *loginNavigator) Navigate(route string) {
	if route != client.LoginRoute {
		return
	}
	if err := n.jar.Clear(); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to clear stored session")
	}
	fmt.Fprintln(n.w, SessionExpiredMessage)
}

// resolveServer loads postmat.json and the environment, and picks the server
func (a *App) resolveServer(cmd *cobra.Command) (*config.Server, *config.Env, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	resolver := &serverselect.Resolver{
		APIURL: env.APIURL,
		Prompt: a.Prompt,
		Warn:   cmd.ErrOrStderr(),
	}
	server, err := resolver.ResolveServer(cfg, a.ServerAlias)
	if err != nil {
		return nil, nil, err
	}

	return server, env, nil
}

// newSession builds an API client for the selected server whose cookies are
// restored from and written back to the OS keychain
func (a *App) newSession(cmd *cobra.Command) (*session, error) {
	format, err := output.ParseFormat(a.Output)
	if err != nil {
		return nil, err
	}

	server, env, err := a.resolveServer(cmd)
	if err != nil {
		return nil, err
	}

	level := env.LogLevel
	if a.Verbose {
		level = "debug"
	}
	log := logger.New(cmd.ErrOrStderr(), level, "console").With().Str("server", server.Alias).Logger()

	jar, err := auth.NewPersistentJar(server.URL, auth.Default, log)
	if err != nil {
		return nil, err
	}

	apiClient, err := client.New(server.URL,
		client.WithHTTPClient(&http.Client{Timeout: env.Timeout}),
		client.WithCookieJar(jar),
		client.WithLogger(log),
		client.WithSessionFlag(userconfig.Flag{ServerURL: server.URL}),
		client.WithNavigator(&loginNavigator{w: cmd.ErrOrStderr(), jar: jar, logger: log}),
	)
	if err != nil {
		return nil, err
	}

	return &session{
		server:  server,
		env:     env,
		client:  apiClient,
		jar:     jar,
		printer: output.NewPrinter(cmd.OutOrStdout(), format),
		logger:  log,
	}, nil
}

var validate = validator.New()

// validateInput turns validator errors into a flag-oriented message
func validateInput(v any, flagNames map[string]string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	name := flagNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("--%s is required", name)
	case "oneof":
		return fmt.Errorf("--%s must be one of: %s", name, fe.Param())
	case "len":
		return fmt.Errorf("--%s must be exactly %s characters", name, fe.Param())
	case "min":
		return fmt.Errorf("--%s must be at least %s characters", name, fe.Param())
	case "numeric":
		return fmt.Errorf("--%s must contain only digits", name)
	case "email":
		return fmt.Errorf("--%s must be a valid email address", name)
	default:
		return fmt.Errorf("--%s is invalid (%s)", name, fe.Tag())
	}
}

// describeError adds a hint to API errors the user can act on
func describeError(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	msg := apiErr.Message()
	if msg == "" {
		msg = http.StatusText(apiErr.StatusCode)
	}
	switch apiErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s\nRun 'postmat login' first", msg)
	case http.StatusForbidden:
		return fmt.Errorf("permission denied: %s", msg)
	default:
		return fmt.Errorf("%s (status %d)", msg, apiErr.StatusCode)
	}
}
