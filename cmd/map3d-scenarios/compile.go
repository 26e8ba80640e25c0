package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"map3d-scenarios/internal/animation"
)

var compileCanonical bool

var compileCmd = &cobra.Command{
	Use:   "compile <script>",
	Short: "Compile an animation script and print its steps",
	Long: "compile parses an animation script such as " +
		"\"flyTo=lat=1,lng=2,dur=3000;waitUntilTheMapIsSteady\" and prints the resulting steps. " +
		"Unknown directives are dropped, exactly as during playback.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := animation.Compile(args[0])
		out := cmd.OutOrStdout()
		if compileCanonical {
			fmt.Fprintln(out, animation.Format(steps))
			return nil
		}
		for i, s := range steps {
			fmt.Fprintf(out, "%2d  %s\n", i+1, s)
		}
		if len(steps) == 0 {
			fmt.Fprintln(out, "no steps")
		}
		return nil
	},
}

func init() {
	compileCmd.Flags().BoolVar(&compileCanonical, "canonical", false, "Print the steps re-serialised as a single script")
}
