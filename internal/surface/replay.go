package surface

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"map3d-scenarios/internal/scene"
)

// Replay re-issues the camera commands of a JSONL command log to s. A speed >0
// scales the recorded gaps between commands; if speed <= 0 no delay is inserted.
// Object commands are skipped since rows do not carry full object descriptors.
func Replay(ctx context.Context, r io.Reader, s Surface, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	applied := 0
	for {
		var row CommandRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return applied, nil
			}
			return applied, err
		}
		if !prev.IsZero() && speed > 0 {
			diff := time.Duration(float64(row.Timestamp.Sub(prev)) / speed)
			if diff > 0 {
				t := time.NewTimer(diff)
				select {
				case <-ctx.Done():
					t.Stop()
					return applied, ctx.Err()
				case <-t.C:
				}
			}
		}
		prev = row.Timestamp
		d := time.Duration(row.DurationMs) * time.Millisecond
		switch row.Command {
		case CmdSetCamera:
			s.SetCamera(row.Camera())
		case CmdSetMapMode:
			s.SetMapMode(scene.ParseMapMode(row.Detail))
		case CmdClear:
			s.ClearObjects()
		case CmdFlyTo:
			s.FlyTo(row.Camera(), d)
		case CmdFlyAround:
			s.FlyAround(row.Camera(), d, row.Rounds)
		default:
			continue
		}
		applied++
	}
}

// ReplayFile opens a command log and replays it.
func ReplayFile(ctx context.Context, path string, s Surface, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Replay(ctx, f, s, speed)
}
