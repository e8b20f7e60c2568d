package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/irpress/kavosh/internal/config"
)

//go:embed templates/urls.yml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter urls.yml configuration file",
		Long: `Init writes a commented starter configuration to get a new harvest
going. Edit the generated file and replace the example entries with the
archives you want to collect.`,
		Example: `  kavosh init
  kavosh init -o ./config/urls.yml
  kavosh init --force`,
		RunE: runInit,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path the configuration file is written to")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/urls.yml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n\n", outputPath)
	fmt.Fprintf(out, "Next steps:\n")
	fmt.Fprintf(out, "  1. Edit %s and replace the example archives\n", outputPath)
	fmt.Fprintf(out, "  2. Run \"kavosh harvest\" to start collecting\n")
	return nil
}
