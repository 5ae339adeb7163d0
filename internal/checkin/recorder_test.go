package checkin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estateguard/estate/internal/shared"
)

func TestRecorderStampsEntry(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, func() string { return "id-1" }, &shared.FixedClock{T: t0})

	e, err := rec.Record(context.Background(), "u", "cp", 3.1, 101.6)
	require.NoError(t, err)
	assert.Equal(t, LogEntry{ID: "id-1", UserID: "u", CheckpointID: "cp", Latitude: 3.1, Longitude: 101.6, Timestamp: t0}, e)
	assert.Equal(t, []LogEntry{e}, repo.logs)
}

func TestRecorderWriteFailure(t *testing.T) {
	rec := NewRecorder(&memRepo{insertErr: errStore}, nil, nil)
	_, err := rec.Record(context.Background(), "u", "cp", 0, 0)
	assert.ErrorIs(t, err, errStore)
}
