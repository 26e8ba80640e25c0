package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"map3d-scenarios/internal/config"
	"map3d-scenarios/internal/surface"
)

func TestNewWritersPrintOnly(t *testing.T) {
	w, cleanup, err := newWriters(config.Default(), true)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*surface.JSONStdoutWriter); !ok {
		t.Fatalf("expected *surface.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersNoSinks(t *testing.T) {
	w, cleanup, err := newWriters(config.Default(), false)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if w != nil {
		t.Fatalf("expected no writer, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.jsonl")
	cfg := config.Default()
	cfg.Sinks.CommandLog = path

	w, cleanup, err := newWriters(cfg, true)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := w.(*surface.MultiWriter); !ok {
		t.Fatalf("expected *surface.MultiWriter, got %T", w)
	}
	row := surface.CommandRow{SessionID: "s1", Command: surface.CmdFlyTo, Lat: 1, Lng: 2, Timestamp: time.Now()}
	if err := w.Write(row); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cleanup()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected log file to be non-empty")
	}

	w, cleanup, err = newWriters(cfg, false)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer cleanup()
	if _, ok := w.(*surface.FileWriter); !ok {
		t.Fatalf("expected *surface.FileWriter alone, got %T", w)
	}
}
