package checkin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/estateguard/estate/internal/checkpoints"
	"github.com/estateguard/estate/internal/shared"
)

// CheckpointSource lists the checkpoints the geofence scans.
type CheckpointSource interface {
	ListAll(ctx context.Context) ([]checkpoints.Checkpoint, error)
}

// RepositoryPort is the log and settings storage contract.
type RepositoryPort interface {
	LogReader
	LogWriter
	Latest(ctx context.Context, userID, checkpointID string) (LogEntry, bool, error)
	ListLogs(ctx context.Context) ([]LogView, error)
	GetSettings(ctx context.Context) (Settings, bool, error)
	UpsertSettings(ctx context.Context, s Settings) error
}

// OutcomeObserver receives the terminal outcome of every submission.
type OutcomeObserver interface {
	ObserveCheckin(outcome string)
}

// Service runs the check-in pipeline.
type Service struct {
	repo     RepositoryPort
	points   CheckpointSource
	limiter  *Limiter
	recorder *Recorder
	guard    Guard
	clock    shared.Clock
	logger   *slog.Logger
	observer OutcomeObserver
}

// Options carries the optional collaborators of a Service.
type Options struct {
	IDs   shared.IDGenerator
	Clock shared.Clock
	// Guard, when set, makes the cooldown reservation atomic.
	Guard    Guard
	Logger   *slog.Logger
	Observer OutcomeObserver
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, points CheckpointSource, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = shared.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		points:   points,
		limiter:  NewLimiter(repo, opts.Clock),
		recorder: NewRecorder(repo, opts.IDs, opts.Clock),
		guard:    opts.Guard,
		clock:    opts.Clock,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
}

// Submit evaluates and, when allowed, records a check-in. Business
// rejections come back as a Result; err is reserved for storage failures.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	var (
		settings Settings
		cps      []checkpoints.Checkpoint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		settings, err = s.Settings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		cps, err = s.points.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, fmt.Errorf("checkin: load: %w", err)
	}

	res, err := s.evaluate(ctx, sub, settings, cps)
	if err != nil {
		return Result{}, err
	}
	s.observe(res.Outcome)
	return res, nil
}

func (s *Service) evaluate(ctx context.Context, sub Submission, settings Settings, cps []checkpoints.Checkpoint) (Result, error) {
	match, ok := Nearest(sub.Point, cps)
	if !ok {
		return Result{Outcome: OutcomeRejectedNoCheckpoints, Message: "No checkpoints defined"}, nil
	}
	if match.Distance > settings.RadiusMeters {
		return Result{
			Outcome:    OutcomeRejectedGeofence,
			Checkpoint: match.Checkpoint,
			Distance:   match.Distance,
			Message: fmt.Sprintf("You are too far from any checkpoint. Nearest is %dm away (Max %sm).",
				int64(math.Round(match.Distance)), strconv.FormatFloat(settings.RadiusMeters, 'f', -1, 64)),
		}, nil
	}

	cpID := match.Checkpoint.ID
	decision, err := s.limiter.CheckAllowed(ctx, sub.UserID, cpID, settings.WindowMinutes)
	if err != nil {
		return Result{}, fmt.Errorf("checkin: cooldown: %w", err)
	}
	if !decision.Allowed {
		return rateLimited(match, decision.WaitMinutes), nil
	}

	reserved := false
	if s.guard != nil && settings.WindowMinutes > 0 {
		window := time.Duration(settings.WindowMinutes) * time.Minute
		ok, remaining, err := s.guard.Reserve(ctx, sub.UserID, cpID, window)
		switch {
		case err != nil:
			s.logger.Warn("checkin guard unavailable", slog.String("user_id", sub.UserID), slog.Any("error", err))
		case !ok:
			return rateLimited(match, WaitMinutes(remaining)), nil
		default:
			reserved = true
		}
	}

	entry, err := s.recorder.Record(ctx, sub.UserID, cpID, sub.Point.Latitude, sub.Point.Longitude)
	if err != nil {
		if reserved {
			if rerr := s.guard.Release(ctx, sub.UserID, cpID); rerr != nil {
				s.logger.Warn("checkin guard release", slog.Any("error", rerr))
			}
		}
		return Result{}, fmt.Errorf("checkin: record: %w", err)
	}
	return Result{
		Outcome:    OutcomeConfirmed,
		Message:    "Checked in at " + match.Checkpoint.Name,
		Checkpoint: match.Checkpoint,
		Distance:   match.Distance,
		Entry:      entry,
	}, nil
}

func rateLimited(match Match, wait int) Result {
	return Result{
		Outcome:     OutcomeRejectedRateLimit,
		Checkpoint:  match.Checkpoint,
		Distance:    match.Distance,
		WaitMinutes: wait,
		Message:     fmt.Sprintf("You checked in here recently. Please wait %d minutes.", wait),
	}
}

// RejectUnauthenticated records an attempt without a credential.
func (s *Service) RejectUnauthenticated() {
	s.observe(OutcomeRejectedUnauthenticated)
}

func (s *Service) observe(o Outcome) {
	if s.observer != nil {
		s.observer.ObserveCheckin(string(o))
	}
}

// LastCheckIn returns the newest entry time for the pair, nil when none.
func (s *Service) LastCheckIn(ctx context.Context, userID, checkpointID string) (*time.Time, error) {
	entry, found, err := s.repo.Latest(ctx, userID, checkpointID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &entry.Timestamp, nil
}

// ListLogs returns the whole log newest first.
func (s *Service) ListLogs(ctx context.Context) ([]LogView, error) {
	return s.repo.ListLogs(ctx)
}

// Settings returns the stored settings or the defaults when none exist.
func (s *Service) Settings(ctx context.Context) (Settings, error) {
	st, found, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return DefaultSettings(), nil
	}
	return st, nil
}

// ErrInvalidSettings rejects negative radius or window values.
var ErrInvalidSettings = errors.New("checkin: invalid settings")

// UpdateSettings upserts the singleton.
func (s *Service) UpdateSettings(ctx context.Context, radius float64, windowMinutes int) (Settings, error) {
	if radius < 0 || windowMinutes < 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return Settings{}, ErrInvalidSettings
	}
	st := Settings{RadiusMeters: radius, WindowMinutes: windowMinutes, UpdatedAt: s.clock.Now()}
	if err := s.repo.UpsertSettings(ctx, st); err != nil {
		return Settings{}, err
	}
	return st, nil
}
