package checkpoints

import (
	"context"
	"strings"

	"github.com/estateguard/estate/internal/shared"
)

// RepositoryPort is the storage contract of the service.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]Checkpoint, int, error)
	ListAll(ctx context.Context) ([]Checkpoint, error)
	Get(ctx context.Context, id string) (Checkpoint, error)
	Insert(ctx context.Context, c Checkpoint) error
	Update(ctx context.Context, c Checkpoint) error
	Delete(ctx context.Context, id string) error
}

// Service manages checkpoints.
type Service struct {
	repo  RepositoryPort
	ids   shared.IDGenerator
	clock shared.Clock
}

// NewService constructs a Service.
func NewService(repo RepositoryPort, ids shared.IDGenerator, clock shared.Clock) *Service {
	if ids == nil {
		ids = shared.NewID
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{repo: repo, ids: ids, clock: clock}
}

// List returns a page of checkpoints.
func (s *Service) List(ctx context.Context, name string, page shared.PageRequest) (shared.Page[Checkpoint], error) {
	items, total, err := s.repo.List(ctx, ListFilter{Name: strings.TrimSpace(name), Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return shared.Page[Checkpoint]{}, err
	}
	return shared.Page[Checkpoint]{Page: page.Page, PageSize: page.PageSize, Total: total, Data: items}, nil
}

// ListAll returns every checkpoint; the geofence evaluator scans this list.
func (s *Service) ListAll(ctx context.Context) ([]Checkpoint, error) {
	return s.repo.ListAll(ctx)
}

// Create stores a new checkpoint. Input must already be validated.
func (s *Service) Create(ctx context.Context, in Input) (Checkpoint, error) {
	now := s.clock.Now()
	c := Checkpoint{
		ID:        s.ids(),
		Name:      strings.TrimSpace(in.Name),
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return Checkpoint{}, err
	}
	return c, nil
}

// Update rewrites a checkpoint.
func (s *Service) Update(ctx context.Context, id string, in Input) (Checkpoint, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Checkpoint{}, err
	}
	existing.Name = strings.TrimSpace(in.Name)
	existing.Latitude = *in.Latitude
	existing.Longitude = *in.Longitude
	existing.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, existing); err != nil {
		return Checkpoint{}, err
	}
	return existing, nil
}

// Delete removes a checkpoint.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
