package main

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

//go:embed starter
var starter embed.FS

const configTemplate = `project: %s
version: 1

paths:
  world: world.yaml
  catalog: events
  names: names.yaml
  save: saves/world.json.zst

database:
  dsn: sqlite://worldsim.db

simulation:
  seed: 0
  tick_seconds: 1
  tick_interval: 500ms
  trigger_probability: 0.05
  weighted_selection: true
  max_cascade_depth: 8
  drift_rate: 0.05
  day_phase_seconds: 300
  weather_change_seconds: 60

custom_stats:
  - Faith

aggregates:
  - name: economy.treasury
    initial: 100
  - name: economy.prosperity
    initial: 50
    track: EconomicProsperity
`

func initCmd() *cobra.Command {
	var projectName string
	var dir string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new worldsim project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(cmd.OutOrStdout(), dir, projectName)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to scaffold into")
	return cmd
}

func runInit(out io.Writer, dir, projectName string) error {
	configFile := filepath.Join(dir, "worldsim.yaml")
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists", configFile)
	}

	var files []string
	err := fs.WalkDir(starter, "starter", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel := strings.TrimPrefix(path, "starter/")
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("%s already exists", target)
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return err
	}

	for _, path := range files {
		contents, err := starter.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading starter %s: %w", path, err)
		}
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(path, "starter/")))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, contents, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
		fmt.Fprintf(out, "created %s\n", target)
	}

	if err := os.WriteFile(configFile, []byte(fmt.Sprintf(configTemplate, projectName)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}
	fmt.Fprintf(out, "created %s\n", configFile)
	return nil
}
