package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/updsync/internal/config"
	"github.com/adamancini/updsync/internal/templates"
)

func newInitCmd() *cobra.Command {
	var templateName string
	var outputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a config file from a template",
		Long: `Create a config file from a built-in template.

Available templates:
  github       - GitHub releases and the MaaResource branch archive
  mirrorchyan  - MirrorChyan mirror with a CDK

Examples:
  updsync init                          # GitHub template in the default location
  updsync init --template mirrorchyan
  updsync init --path ./config.yaml --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.OutOrStdout(), templateName, outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", templates.Default, "Template name")
	cmd.Flags().StringVar(&outputPath, "path", "", "Output path (default $XDG_CONFIG_HOME/updsync/config.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	// Register completion for template flag
	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, name := range templates.List() {
			completions = append(completions, fmt.Sprintf("%s\t%s", name, templates.GetDescription(name)))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInit writes the named template to outputPath.
func runInit(stdout io.Writer, templateName, outputPath string, force bool) error {
	if outputPath == "" {
		outputPath = defaultConfigPath()
	}
	outputPath = expandHomePath(outputPath)

	if _, err := os.Stat(outputPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", outputPath)
	}

	tmpl, err := templates.Get(templateName)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	// Validate the template content before writing
	if _, err := config.Parse(outputPath, tmpl.Content); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(outputPath), err)
	}
	if err := os.WriteFile(outputPath, tmpl.Content, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if !quiet {
		_, _ = fmt.Fprintf(stdout, "Created %s from the %s template\n", outputPath, tmpl.Name)
		_, _ = fmt.Fprintln(stdout, "\nNext steps:")
		_, _ = fmt.Fprintln(stdout, "  1. Set app.current_version and the install targets")
		_, _ = fmt.Fprintln(stdout, "  2. Run 'updsync check' to see what is available")
		_, _ = fmt.Fprintln(stdout, "  3. Run 'updsync update' to install")
	}
	return nil
}

// defaultConfigPath returns the first location config.Find searches.
func defaultConfigPath() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, "updsync", "config.yaml")
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
