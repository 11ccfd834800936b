package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/pageask/internal/config"
)

//go:embed templates/pageask.yaml
var configTemplate embed.FS

const (
	templatePath   = "templates/pageask.yaml"
	configFileName = config.DefaultConfigFile
)

var errConfigExists = errors.New("configuration file already exists")

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .pageask configuration file",
		Long: `Init writes a commented configuration template.

The template sets the model endpoint (a local Ollama by default), the fetch
engine and proxy, the CAPTCHA attempt limit, and shows how to attach cookies
or headers to a single host. pageask reads it from the current directory,
the home directory or $XDG_CONFIG_HOME/pageask/config.yaml.

Examples:
  pageask init                     # ./.pageask
  pageask init -o ~/.pageask       # per-user file
  pageask init -o team.yaml -f     # replace an existing file`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Where to write the configuration template")
	cmd.Flags().BoolP("force", "f", false,
		"Replace the file if it already exists")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigTemplate(path, force); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s. Set model.base_url and model.name, then run:\n  pageask ask <url> -q \"...\"\n", path)
	return nil
}

// writeConfigTemplate writes the embedded template to path with owner-only
// permissions, since the file may end up holding API keys and cookies.
// An existing file is kept unless force is set.
func writeConfigTemplate(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use -f to overwrite)", errConfigExists, path)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
