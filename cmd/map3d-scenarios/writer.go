package main

import (
	"map3d-scenarios/internal/config"
	"map3d-scenarios/internal/surface"
)

// newWriters sets up the command sinks from config: JSON lines on STDOUT when
// stdout is set, the JSONL command log and GreptimeDB when configured.
// It returns the writer (nil when no sink applies) and a cleanup function to
// close any resources.
func newWriters(cfg *config.Config, stdout bool) (surface.CommandWriter, func(), error) {
	cleanup := func() {}
	var ws []surface.CommandWriter
	if stdout {
		ws = append(ws, surface.NewJSONStdoutWriter())
	}
	if g := cfg.Sinks.Greptime; g.Host != "" {
		gw, err := surface.NewGreptimeDBWriter(g.Host, g.Port, g.Database, g.Table)
		if err != nil {
			return nil, nil, err
		}
		ws = append(ws, gw)
	}
	if path := cfg.Sinks.CommandLog; path != "" {
		fw, err := surface.NewFileWriter(path)
		if err != nil {
			return nil, nil, err
		}
		ws = append(ws, fw)
		cleanup = func() { fw.Close() }
	}
	switch len(ws) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return ws[0], cleanup, nil
	}
	return surface.NewMultiWriter(ws...), cleanup, nil
}
