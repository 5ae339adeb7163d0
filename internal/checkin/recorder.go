package checkin

import (
	"context"

	"github.com/estateguard/estate/internal/shared"
)

// LogWriter appends entries to the check-in log.
type LogWriter interface {
	InsertLog(ctx context.Context, entry LogEntry) error
}

// Recorder is the only writer of check-in log entries.
type Recorder struct {
	logs  LogWriter
	ids   shared.IDGenerator
	clock shared.Clock
}

// NewRecorder constructs a Recorder.
func NewRecorder(logs LogWriter, ids shared.IDGenerator, clock shared.Clock) *Recorder {
	if ids == nil {
		ids = shared.NewID
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Recorder{logs: logs, ids: ids, clock: clock}
}

// Record appends one entry stamped with a fresh id and the current time.
func (r *Recorder) Record(ctx context.Context, userID, checkpointID string, lat, lon float64) (LogEntry, error) {
	entry := LogEntry{
		ID:           r.ids(),
		UserID:       userID,
		CheckpointID: checkpointID,
		Latitude:     lat,
		Longitude:    lon,
		Timestamp:    r.clock.Now(),
	}
	if err := r.logs.InsertLog(ctx, entry); err != nil {
		return LogEntry{}, err
	}
	return entry, nil
}
