// Package checkin implements geofenced checkpoint check-ins: nearest
// checkpoint, radius test, per-user-per-checkpoint cooldown and the
// append-only log.
package checkin

import (
	"time"

	"github.com/estateguard/estate/internal/checkpoints"
)

const (
	DefaultRadiusMeters  = 50.0
	DefaultWindowMinutes = 5
)

// Point is a WGS84 coordinate.
type Point struct {
	Latitude  float64
	Longitude float64
}

// LogEntry is one recorded check-in. Entries are never updated.
type LogEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CheckpointID string    `json:"checkpoint_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Timestamp    time.Time `json:"timestamp"`
}

// LogView is a log entry joined with its checkpoint name.
type LogView struct {
	LogEntry
	CheckpointName *string `json:"checkpoint_name"`
}

// Settings is the singleton geofence configuration.
type Settings struct {
	RadiusMeters  float64
	WindowMinutes int
	UpdatedAt     time.Time
}

// DefaultSettings applies when no settings row exists.
func DefaultSettings() Settings {
	return Settings{RadiusMeters: DefaultRadiusMeters, WindowMinutes: DefaultWindowMinutes}
}

// Outcome is the terminal state of a check-in attempt.
type Outcome string

const (
	OutcomeConfirmed               Outcome = "confirmed"
	OutcomeRejectedGeofence        Outcome = "rejected_geofence"
	OutcomeRejectedRateLimit       Outcome = "rejected_rate_limit"
	OutcomeRejectedNoCheckpoints   Outcome = "rejected_no_checkpoints"
	OutcomeRejectedUnauthenticated Outcome = "rejected_unauthenticated"
)

// Submission is a check-in request.
type Submission struct {
	UserID string
	Point  Point
}

// Result describes how a submission ended. Rejections are results, not errors.
type Result struct {
	Outcome     Outcome
	Message     string
	Checkpoint  checkpoints.Checkpoint
	Distance    float64
	WaitMinutes int
	Entry       LogEntry
}
