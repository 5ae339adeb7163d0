package checkin

import (
	"context"
	"math"
	"time"

	"github.com/estateguard/estate/internal/shared"
)

// LogReader finds the latest entry for (user, checkpoint) strictly after since.
type LogReader interface {
	LatestSince(ctx context.Context, userID, checkpointID string, since time.Time) (LogEntry, bool, error)
}

// Decision is the limiter verdict.
type Decision struct {
	Allowed     bool
	WaitMinutes int
	Last        *LogEntry
}

// Limiter enforces the per-user-per-checkpoint cooldown.
type Limiter struct {
	logs  LogReader
	clock shared.Clock
}

// NewLimiter constructs a Limiter.
func NewLimiter(logs LogReader, clock shared.Clock) *Limiter {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Limiter{logs: logs, clock: clock}
}

// CheckAllowed denies when a check-in for the same pair lies inside the
// cooldown window. A zero cooldown always allows. The check is not
// atomic with the subsequent insert.
func (l *Limiter) CheckAllowed(ctx context.Context, userID, checkpointID string, cooldownMinutes int) (Decision, error) {
	if cooldownMinutes <= 0 {
		return Decision{Allowed: true}, nil
	}
	cooldown := time.Duration(cooldownMinutes) * time.Minute
	now := l.clock.Now()
	last, found, err := l.logs.LatestSince(ctx, userID, checkpointID, now.Add(-cooldown))
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return Decision{Allowed: true}, nil
	}
	remaining := last.Timestamp.Add(cooldown).Sub(now)
	return Decision{Allowed: false, WaitMinutes: WaitMinutes(remaining), Last: &last}, nil
}

// WaitMinutes rounds a remaining duration up to whole minutes, minimum one.
func WaitMinutes(remaining time.Duration) int {
	n := int(math.Ceil(float64(remaining) / float64(time.Minute)))
	if n < 1 {
		n = 1
	}
	return n
}
