package surface

import (
	"time"

	"map3d-scenarios/internal/scene"
)

// Command names recorded in CommandRow.Command.
const (
	CmdSetCamera   = "set_camera"
	CmdSetMapMode  = "set_map_mode"
	CmdClear       = "clear_objects"
	CmdAddMarker   = "add_marker"
	CmdAddModel    = "add_model"
	CmdAddPolyline = "add_polyline"
	CmdAddPolygon  = "add_polygon"
	CmdFlyTo       = "fly_to"
	CmdFlyAround   = "fly_around"
)

// CommandRow is one command issued to a surface, flattened for log sinks.
type CommandRow struct {
	SessionID  string    `json:"session_id"`
	Command    string    `json:"command"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Alt        float64   `json:"alt"`
	Heading    float64   `json:"heading"`
	Tilt       float64   `json:"tilt"`
	Range      float64   `json:"range"`
	Roll       float64   `json:"roll"`
	DurationMs int64     `json:"duration_ms,omitempty"`
	Rounds     float64   `json:"rounds,omitempty"`
	ObjectID   string    `json:"object_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"ts"`
}

// Camera returns the pose carried by the row.
func (r CommandRow) Camera() scene.Camera {
	return scene.Camera{
		Center:  scene.LatLngAltitude{Latitude: r.Lat, Longitude: r.Lng, Altitude: r.Alt},
		Heading: r.Heading,
		Tilt:    r.Tilt,
		Range:   r.Range,
		Roll:    r.Roll,
	}
}

func (r *CommandRow) setCamera(c scene.Camera) {
	r.Lat = c.Center.Latitude
	r.Lng = c.Center.Longitude
	r.Alt = c.Center.Altitude
	r.Heading = c.Heading
	r.Tilt = c.Tilt
	r.Range = c.Range
	r.Roll = c.Roll
}

func (r *CommandRow) setPosition(p scene.LatLngAltitude) {
	r.Lat = p.Latitude
	r.Lng = p.Longitude
	r.Alt = p.Altitude
}

// CommandWriter receives command rows from a surface.
type CommandWriter interface {
	Write(CommandRow) error
}

// Optional: writers can also support batch mode
type batchWriter interface {
	WriteBatch([]CommandRow) error
}
