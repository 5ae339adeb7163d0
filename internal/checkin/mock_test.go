package checkin

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/estateguard/estate/internal/checkpoints"
)

type memRepo struct {
	mu       sync.Mutex
	logs     []LogEntry
	settings *Settings

	readErr     error
	insertErr   error
	settingsErr error
}

func (m *memRepo) LatestSince(_ context.Context, userID, checkpointID string, since time.Time) (LogEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return LogEntry{}, false, m.readErr
	}
	var best *LogEntry
	for i := range m.logs {
		e := m.logs[i]
		if e.UserID != userID || e.CheckpointID != checkpointID || !e.Timestamp.After(since) {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) {
			best = &e
		}
	}
	if best == nil {
		return LogEntry{}, false, nil
	}
	return *best, true, nil
}

func (m *memRepo) Latest(ctx context.Context, userID, checkpointID string) (LogEntry, bool, error) {
	return m.LatestSince(ctx, userID, checkpointID, time.Time{})
}

func (m *memRepo) InsertLog(_ context.Context, e LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.logs = append(m.logs, e)
	return nil
}

func (m *memRepo) ListLogs(_ context.Context) ([]LogView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make([]LogView, 0, len(m.logs))
	for _, e := range m.logs {
		name := "cp:" + e.CheckpointID
		out = append(out, LogView{LogEntry: e, CheckpointName: &name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (m *memRepo) GetSettings(_ context.Context) (Settings, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settingsErr != nil {
		return Settings{}, false, m.settingsErr
	}
	if m.settings == nil {
		return Settings{}, false, nil
	}
	return *m.settings, true, nil
}

func (m *memRepo) UpsertSettings(_ context.Context, s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settingsErr != nil {
		return m.settingsErr
	}
	m.settings = &s
	return nil
}

type staticPoints struct {
	cps []checkpoints.Checkpoint
	err error
}

func (s staticPoints) ListAll(context.Context) ([]checkpoints.Checkpoint, error) {
	return s.cps, s.err
}

type outcomeLog struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *outcomeLog) ObserveCheckin(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

var errStore = errors.New("store unavailable")

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return "log-" + strconv.Itoa(n)
	}
}
