package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/postmat-dev/postmat/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var alias string

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add a postmat API server to ./postmat.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, args[0], alias)
		},
	}

	cmd.Flags().StringVar(&alias, "alias", "", "Server alias (defaults to 'default', then server-N)")

	return cmd
}

func runInit(cmd *cobra.Command, apiURL, alias string) error {
	out := cmd.OutOrStdout()
	apiURL = strings.TrimRight(apiURL, "/")

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	cfg := &config.Config{Servers: []config.Server{}}
	isNewConfig := true

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		isNewConfig = false
		fmt.Fprintln(out, "Found existing postmat.json")
	}

	for _, server := range cfg.Servers {
		if server.URL == apiURL {
			fmt.Fprintf(out, "Server %s already exists in postmat.json (%s)\n", apiURL, server.Alias)
			return nil
		}
	}

	if alias == "" {
		if len(cfg.Servers) == 0 {
			alias = "default"
		} else {
			alias = fmt.Sprintf("server-%d", len(cfg.Servers)+1)
		}
	}

	cfg.Servers = append(cfg.Servers, config.Server{
		URL:   apiURL,
		Alias: alias,
	})

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(out, "✓ Created ./postmat.json with server %s (%s)\n", apiURL, alias)
	} else {
		fmt.Fprintf(out, "✓ Added server %s (%s) to ./postmat.json\n", apiURL, alias)
	}

	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  Run 'postmat login' to authenticate")

	return nil
}
