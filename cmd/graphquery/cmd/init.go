package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/graphquery/configs"
	"github.com/Aman-CERP/graphquery/internal/config"
	"github.com/Aman-CERP/graphquery/internal/output"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write starter config and graph definition files",
		Long: `Write a starter ` + config.ConfigFileName + ` and an example graph.yaml
into the target directory (default: current directory).

Existing files are left alone unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())

	files := []struct {
		name    string
		content string
	}{
		{config.ConfigFileName, configs.ConfigTemplate},
		{"graph.yaml", configs.GraphTemplate},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if _, err := os.Stat(path); err == nil && !force {
			out.Statusf("", "%s already exists, skipping (use --force to overwrite)", f.name)
			continue
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		out.Successf("wrote %s", path)
	}

	out.Newline()
	out.Status("", "Next: graphquery query \"your question\" --graph "+filepath.Join(dir, "graph.yaml"))
	return nil
}
