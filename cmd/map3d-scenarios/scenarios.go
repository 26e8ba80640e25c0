package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var scenariosJSON bool

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the available scenarios",
	Long:  "scenarios lists the built-in scenarios merged with the configured catalogue, in play order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry(settings.cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if scenariosJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			defs := make([]any, 0, reg.Len())
			for _, sc := range reg.List() {
				defs = append(defs, sc.Source)
			}
			return enc.Encode(defs)
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("NAME", "KIND", "STEPS", "TITLE")
		for _, sc := range reg.List() {
			t.Row(sc.Name, string(sc.Kind), strconv.Itoa(len(sc.Steps)), sc.Title)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

func init() {
	scenariosCmd.Flags().BoolVar(&scenariosJSON, "json", false, "Print the scenario definitions as JSON")
}
