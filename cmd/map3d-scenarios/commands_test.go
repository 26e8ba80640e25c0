package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	t.Cleanup(func() {
		compileCanonical = false
		scenariosJSON = false
		replayInput = ""
		replayPrintOnly = true
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCompileCommand(t *testing.T) {
	out := run(t, "compile", "delay=dur=250;bogus;waitUntilTheMapIsSteady")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 steps, got %q", out)
	}
	if !strings.Contains(lines[0], "delay=dur=250") {
		t.Fatalf("unexpected first step %q", lines[0])
	}

	out = run(t, "compile", "--canonical", "delay=dur=250;bogus")
	if strings.TrimSpace(out) != "delay=dur=250" {
		t.Fatalf("unexpected canonical form %q", out)
	}

	if out := run(t, "compile", "bogus"); !strings.Contains(out, "no steps") {
		t.Fatalf("expected no steps, got %q", out)
	}
}

func TestScenariosCommand(t *testing.T) {
	out := run(t, "scenarios")
	for _, name := range []string{"camera", "race_strategy", "neuschwanstein"} {
		if !strings.Contains(out, name) {
			t.Fatalf("scenario %s missing:\n%s", name, out)
		}
	}

	var defs []map[string]any
	if err := json.Unmarshal([]byte(run(t, "scenarios", "--json")), &defs); err != nil {
		t.Fatalf("decode json listing: %v", err)
	}
	if len(defs) < 3 {
		t.Fatalf("expected the built-in scenarios, got %d", len(defs))
	}
}

func TestReplayCommandWritesLog(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.jsonl")
	line := `{"session_id":"s1","command":"set_camera","lat":1,"lng":2,"alt":0,"heading":0,"tilt":45,"range":1000,"duration_ms":0,"ts":"2024-01-01T00:00:00Z"}` + "\n"
	if err := os.WriteFile(input, []byte(line), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	output := filepath.Join(dir, "out.jsonl")
	run(t, "replay", "--input", input, "--print-only=false", "--command-log", output, "--speed", "1000")
	t.Cleanup(func() { replayCmd.Flags().Set("command-log", "") })

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("replay wrote nothing")
	}
}
