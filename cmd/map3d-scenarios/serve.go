package main

import (
	"github.com/spf13/cobra"

	"map3d-scenarios/internal/admin"
)

var (
	serveScenario      string
	servePrintCommands bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the sequencer and strategy client over HTTP",
	Long:  "serve runs the sequencer against a headless surface and exposes its controls, state and the strategy simulation as JSON endpoints.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings.cfg
		ctx := cmd.Context()
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		writer, cleanup, err := newWriters(cfg, servePrintCommands)
		if err != nil {
			return err
		}
		defer cleanup()

		seq := newSequencer(cfg, reg, writer, settings.log)
		defer seq.Close()
		if serveScenario != "" {
			if err := seq.Select(serveScenario); err != nil {
				return err
			}
		}
		client := newStrategyClient(cfg, settings.log)
		defer client.Close()

		srv := admin.NewServer(seq, client)
		if err := srv.Start(ctx, cfg.Admin.Addr); err != nil {
			return err
		}
		settings.log.Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Admin listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveScenario, "scenario", "", "Scenario to start playing immediately")
	serveCmd.Flags().BoolVar(&servePrintCommands, "print-commands", false, "Also print surface commands to STDOUT as JSON lines")
}
