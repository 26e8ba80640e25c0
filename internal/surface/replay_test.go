package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"map3d-scenarios/internal/scene"
)

func TestReplayReissuesCameraCommands(t *testing.T) {
	base := time.Unix(100, 0).UTC()
	rows := []CommandRow{
		{Command: CmdSetMapMode, Detail: "hybrid", Timestamp: base},
		{Command: CmdAddMarker, ObjectID: "m1", Timestamp: base},
		{Command: CmdSetCamera, Lat: 1, Lng: 2, Tilt: 45, Range: 1500, Timestamp: base.Add(10 * time.Millisecond)},
		{Command: CmdFlyTo, Lat: 3, Lng: 4, Tilt: 45, Range: 900, DurationMs: 10, Timestamp: base.Add(20 * time.Millisecond)},
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}

	w := &recordingWriter{}
	h := NewHeadless(HeadlessOptions{Writer: w})
	n, err := Replay(context.Background(), &buf, h, 0)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if n != 3 {
		t.Fatalf("applied = %d, want 3", n)
	}
	if h.Objects().Mode != scene.Hybrid {
		t.Fatalf("map mode not replayed")
	}
	cmds := w.commands()
	if len(cmds) != 3 || cmds[2] != CmdFlyTo {
		t.Fatalf("unexpected commands %v", cmds)
	}
}

func TestReplayHonoursCancellation(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.Encode(CommandRow{Command: CmdClear, Timestamp: base})
	enc.Encode(CommandRow{Command: CmdClear, Timestamp: base.Add(time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	n, err := Replay(ctx, &buf, NewHeadless(HeadlessOptions{}), 1)
	if err == nil || n != 1 {
		t.Fatalf("expected cancellation after first command, got n=%d err=%v", n, err)
	}
}
