package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"map3d-scenarios/internal/config"
	"map3d-scenarios/internal/logging"
	"map3d-scenarios/internal/scenario"
	"map3d-scenarios/internal/sim"
	"map3d-scenarios/internal/strategy"
	"map3d-scenarios/internal/surface"
	"map3d-scenarios/internal/tui"
)

var playNoTUI bool

var playCmd = &cobra.Command{
	Use:   "play [scenario]",
	Short: "Play a scenario against the headless map surface",
	Long: "play runs one scenario (the first one when none is named). On a terminal it opens the " +
		"interactive view; otherwise every surface command is printed as a JSON line and the " +
		"command exits when the scenario finishes.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := settings.cfg
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		name := ""
		if len(args) == 1 {
			name = args[0]
		} else if first, ok := reg.First(); ok {
			name = first.Name
		}

		interactive := !playNoTUI && term.IsTerminal(int(os.Stdout.Fd()))
		logger := settings.log
		if interactive {
			// The alternate screen owns the terminal.
			logger = logging.NewWithOptions(io.Discard, cfg.Log.Level, cfg.Log.Format)
		}
		ctx := logging.NewContext(cmd.Context(), logger)

		writer, cleanup, err := newWriters(cfg, !interactive)
		if err != nil {
			return err
		}
		defer cleanup()

		seq := newSequencer(cfg, reg, writer, logger)
		defer seq.Close()

		if !interactive {
			if err := seq.Select(name); err != nil {
				return err
			}
			return waitRun(ctx, seq)
		}

		client := newStrategyClient(cfg, logger)
		defer client.Close()
		ui := tui.Start(ctx, seq, client)
		if err := seq.Select(name); err != nil {
			ui.Close()
			return err
		}
		<-ui.Done()
		return ui.Close()
	},
}

func init() {
	playCmd.Flags().BoolVar(&playNoTUI, "no-tui", false, "Print JSON command lines even on a terminal")
}

// newSequencer wires a sequencer to a ready headless surface.
func newSequencer(cfg *config.Config, reg *scenario.Registry, writer surface.CommandWriter, logger *slog.Logger) *sim.Sequencer {
	surf := surface.NewHeadless(surface.HeadlessOptions{
		Settle: cfg.Playback.Settle(),
		Writer: writer,
		Logger: logger,
	})
	seq := sim.New(reg, sim.Options{
		Speed:     cfg.Playback.Speed,
		ReadyPoll: cfg.Playback.ReadyPoll(),
		Logger:    logger,
	})
	seq.SetSurface(surf)
	return seq
}

func newStrategyClient(cfg *config.Config, logger *slog.Logger) *strategy.Client {
	s := cfg.Strategy
	return strategy.New(strategy.Options{
		BaseURL:         s.BaseURL,
		Tool:            s.Tool,
		Variants:        s.Variants,
		ClientName:      s.ClientName,
		ClientVersion:   s.ClientVersion,
		ProtocolVersion: s.ProtocolVersion,
		Logger:          logger,
	})
}

// waitRun blocks until the active run finishes, fails or ctx ends.
func waitRun(ctx context.Context, seq *sim.Sequencer) error {
	ch, cancel := seq.State().Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case st := <-ch:
			switch {
			case st.Phase == sim.PhaseFailed:
				return fmt.Errorf("scenario %s failed: %s", st.Scenario, st.Err)
			case st.Finished:
				logging.FromContext(ctx).Info("scenario finished", "scenario", st.Scenario)
				return nil
			}
		}
	}
}
