package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"map3d-scenarios/internal/config"
	"map3d-scenarios/internal/logging"
	"map3d-scenarios/internal/scenario"
)

// settings holds the resolved configuration for the running command.
var settings = struct {
	cfg *config.Config
	log *slog.Logger
}{}

var rootCmd = &cobra.Command{
	Use:   "map3d-scenarios",
	Short: "Scripted 3D map camera scenarios",
	Long: "map3d-scenarios plays scripted camera scenarios against a headless map surface, " +
		"serves them over HTTP and streams race strategy simulations.",
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the root command until it returns or SIGINT/SIGTERM arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to configuration YAML")
	pf.String("catalogue", "", "Path to a scenario catalogue YAML merged over the built-in scenarios")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text or json)")
	pf.Float64("speed", 0, "Playback speed multiplier")

	rootCmd.AddCommand(scenariosCmd, compileCmd, playCmd, serveCmd, strategyCmd, replayCmd)
}

// loadSettings layers .env, MAP3D_* environment variables and flags over the
// config file.
func loadSettings(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("MAP3D")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(v.GetString("config"))
	if err != nil {
		return err
	}
	applyOverrides(v, cfg)

	logger := logging.NewWithOptions(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	settings.cfg = cfg
	settings.log = logger
	cmd.SetContext(logging.NewContext(cmd.Context(), logger))
	return nil
}

func applyOverrides(v *viper.Viper, cfg *config.Config) {
	if s := v.GetString("catalogue"); s != "" {
		cfg.Catalogue = s
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString("log-format"); s != "" {
		cfg.Log.Format = s
	}
	if f := v.GetFloat64("speed"); f > 0 {
		cfg.Playback.Speed = f
	}
	if s := v.GetString("command-log"); s != "" {
		cfg.Sinks.CommandLog = s
	}
	if s := v.GetString("greptime-host"); s != "" {
		cfg.Sinks.Greptime.Host = s
	}
	if s := v.GetString("strategy-url"); s != "" {
		cfg.Strategy.BaseURL = s
	}
	if s := v.GetString("addr"); s != "" {
		cfg.Admin.Addr = s
	}
}

// loadRegistry returns the built-in scenarios with the configured catalogue
// merged over them.
func loadRegistry(cfg *config.Config) (*scenario.Registry, error) {
	reg := scenario.DefaultRegistry()
	if cfg.Catalogue == "" {
		return reg, nil
	}
	n, err := scenario.LoadInto(reg, cfg.Catalogue)
	if err != nil {
		return nil, err
	}
	slog.Info("catalogue loaded", "path", cfg.Catalogue, "scenarios", n)
	return reg, nil
}
