package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"map3d-scenarios/internal/surface"
)

var (
	replayInput     string
	replayPrintOnly bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a command log",
	Long:  "replay feeds the camera commands of a JSONL command log back through a headless surface into the configured sinks (GreptimeDB, command log) or STDOUT.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayInput == "" {
			return fmt.Errorf("input file required")
		}
		cfg := settings.cfg
		if cfg.Sinks.CommandLog == replayInput {
			return fmt.Errorf("command log %s is also the replay input", replayInput)
		}
		writer, cleanup, err := newWriters(cfg, replayPrintOnly)
		if err != nil {
			return err
		}
		defer cleanup()
		surf := surface.NewHeadless(surface.HeadlessOptions{
			Speed:  cfg.Playback.Speed,
			Settle: cfg.Playback.Settle(),
			Writer: writer,
			Logger: settings.log,
		})
		n, err := surface.ReplayFile(cmd.Context(), replayInput, surf, cfg.Playback.Speed)
		settings.log.Info("replay done", "input", replayInput, "commands", n)
		return err
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayInput, "input", "", "Path to a command log file")
	replayCmd.Flags().BoolVar(&replayPrintOnly, "print-only", true, "Print commands to STDOUT as JSON lines")
	replayCmd.Flags().String("command-log", "", "Write replayed commands to this JSONL file")
	replayCmd.Flags().String("greptime-host", "", "Write replayed commands to GreptimeDB at this host")
	replayCmd.MarkFlagRequired("input")
}
