package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"map3d-scenarios/internal/strategy"
)

var (
	strategyNoSimulate bool
	strategyTimeout    time.Duration
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Stream a race strategy simulation",
	Long:  "strategy connects to the strategy server, runs the pit window simulation for every configured variant and prints each status line until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if strategyTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, strategyTimeout)
			defer cancel()
		}
		client := newStrategyClient(settings.cfg, settings.log)
		defer client.Close()

		out := cmd.OutOrStdout()
		last := ""
		stop := client.State().OnChange(func(st strategy.State) {
			if st.Text != "" && st.Text != last {
				last = st.Text
				fmt.Fprintln(out, st.Text)
			}
		})
		defer stop()

		if err := client.Connect(ctx); err != nil {
			return err
		}
		if !strategyNoSimulate {
			go func() {
				err := client.Simulate(ctx)
				if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					settings.log.Error("simulation failed", "error", err)
				}
			}()
		}
		select {
		case <-ctx.Done():
		case <-client.Done():
		}
		if st := client.State().Get(); st.Phase == strategy.PhaseFailed {
			return errors.New(st.Text)
		}
		return nil
	},
}

func init() {
	strategyCmd.Flags().BoolVar(&strategyNoSimulate, "no-simulate", false, "Only connect and print server messages")
	strategyCmd.Flags().DurationVar(&strategyTimeout, "timeout", 0, "Stop after this long (0 runs until interrupted)")
	strategyCmd.Flags().String("strategy-url", "", "Strategy server base URL")
}
