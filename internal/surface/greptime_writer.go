package surface

import (
	"context"
	"log/slog"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

// DefaultCommandTable is the GreptimeDB table command rows are written to.
const DefaultCommandTable = "camera_commands"

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes command rows to GreptimeDB via the ingester client.
type GreptimeDBWriter struct {
	client  greptimeClient
	table   string
	timeout time.Duration
}

// NewGreptimeDBWriter connects to host:port and writes into database.table.
// The table is created on first write by GreptimeDB's auto-create.
func NewGreptimeDBWriter(host string, port int, database, tableName string) (*GreptimeDBWriter, error) {
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		tableName = DefaultCommandTable
	}
	return &GreptimeDBWriter{client: client, table: tableName, timeout: 5 * time.Second}, nil
}

// Write inserts a single command row.
func (w *GreptimeDBWriter) Write(row CommandRow) error {
	return w.WriteBatch([]CommandRow{row})
}

// WriteBatch inserts multiple command rows.
func (w *GreptimeDBWriter) WriteBatch(rows []CommandRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("session_id", types.STRING)
	tbl.AddTagColumn("command", types.STRING)
	tbl.AddFieldColumn("lat", types.FLOAT64)
	tbl.AddFieldColumn("lng", types.FLOAT64)
	tbl.AddFieldColumn("alt", types.FLOAT64)
	tbl.AddFieldColumn("heading", types.FLOAT64)
	tbl.AddFieldColumn("tilt", types.FLOAT64)
	tbl.AddFieldColumn("range", types.FLOAT64)
	tbl.AddFieldColumn("roll", types.FLOAT64)
	tbl.AddFieldColumn("duration_ms", types.INT64)
	tbl.AddFieldColumn("rounds", types.FLOAT64)
	tbl.AddFieldColumn("object_id", types.STRING)
	tbl.AddFieldColumn("detail", types.STRING)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	for _, r := range rows {
		if err := tbl.AddRow(r.SessionID, r.Command, r.Lat, r.Lng, r.Alt, r.Heading, r.Tilt, r.Range, r.Roll,
			r.DurationMs, r.Rounds, r.ObjectID, r.Detail, r.Timestamp); err != nil {
			return err
		}
	}

	timeout := w.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		slog.Error("greptime write failed", "table", w.table, "err", err)
		return err
	}
	slog.Debug("greptime wrote rows", "table", w.table, "rows", len(rows))
	return nil
}
