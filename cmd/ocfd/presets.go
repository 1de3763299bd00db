package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ocfkit/ocf/internal/config"
	"github.com/ocfkit/ocf/internal/core/controllable"
	"github.com/ocfkit/ocf/internal/core/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Inspect preset directories",
}

var presetsListCmd = &cobra.Command{
	Use:   "list ID",
	Short: "List the presets of a configured controllable",
	Long: `List the presets stored for a controllable declared in the configuration.
The last used preset is marked with *.`,
	Args: cobra.ExactArgs(1),
	RunE: runPresetsList,
}

func init() {
	presetsCmd.AddCommand(presetsListCmd)
}

func runPresetsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	return listPresets(cmd, cfg, args[0])
}

func listPresets(cmd *cobra.Command, cfg config.Config, id string) error {
	m, ok := cfg.Manifest(id)
	if !ok {
		return fmt.Errorf("no controllable %q in configuration", id)
	}
	if !m.UsePresets {
		return fmt.Errorf("controllable %q does not use presets", id)
	}
	schema, err := m.Schema()
	if err != nil {
		return err
	}
	c, err := controllable.New(schema, controllable.WithPresetRoot(cfg.Presets.Root, cfg.Scene))
	if err != nil {
		return err
	}
	store := c.Presets()
	list, err := preset.ListDir(store.Dir())
	if err != nil {
		return err
	}

	last, _ := store.ReadMarker()
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, store.Dir())
	for _, name := range list {
		mark := " "
		if name == last {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s\n", mark, name)
	}
	return nil
}
