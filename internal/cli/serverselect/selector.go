package serverselect

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/postmat-dev/postmat/internal/cli/config"
	"github.com/postmat-dev/postmat/internal/cli/userconfig"
)

// EnvAlias labels a server taken from POSTMAT_API_URL
const EnvAlias = "env"

// Prompter asks the user to pick one of several servers
type Prompter func(servers []config.Server) (*config.Server, error)

// Resolver picks the API server a command talks to
type Resolver struct {
	// APIURL overrides every configured server when set
	APIURL string
	Prompt Prompter
	// Warn receives non-fatal problems such as an unsaved selection
	Warn io.Writer
}

// ResolveServer determines which server to use based on the following priority:
// 1. If serverAlias flag is provided, use that server
// 2. If POSTMAT_API_URL is set, use it
// 3. If user has a selected server in their local config, use that
// 4. If only one server in project config, use that
// 5. Otherwise, prompt user to select a server interactively
func (r *Resolver) ResolveServer(projectConfig *config.Config, serverAlias string) (*config.Server, error) {
	if projectConfig == nil {
		projectConfig = &config.Config{}
	}

	if serverAlias != "" {
		return projectConfig.GetServerByAlias(serverAlias)
	}

	if r.APIURL != "" {
		return &config.Server{URL: r.APIURL, Alias: EnvAlias}, nil
	}

	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURLOrAlias(selectedURL)
		if err == nil {
			return server, nil
		}
		// Selected server no longer exists in project config, clear it and continue
		_ = userconfig.SetSelectedServer("")
	}

	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured. Run 'postmat init <url>' or set POSTMAT_API_URL")
	}

	var server *config.Server
	if len(projectConfig.Servers) == 1 {
		server = &projectConfig.Servers[0]
	} else {
		prompt := r.Prompt
		if prompt == nil {
			prompt = PromptServerSelection
		}
		server, err = prompt(projectConfig.Servers)
		if err != nil {
			return nil, err
		}
	}

	if err := userconfig.SetSelectedServer(server.URL); err != nil && r.Warn != nil {
		fmt.Fprintf(r.Warn, "Warning: failed to save selected server: %v\n", err)
	}

	return server, nil
}

// PromptServerSelection shows an interactive prompt for the user to select a server
func PromptServerSelection(servers []config.Server) (*config.Server, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers configured in postmat.json")
	}

	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(servers))
	for i := range servers {
		server := &servers[i]
		options[i] = serverOption{
			Label:  fmt.Sprintf("%s (%s)", server.Alias, server.URL),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}
