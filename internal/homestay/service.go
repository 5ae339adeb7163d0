package homestay

import (
	"context"
	"strings"

	"github.com/estateguard/estate/internal/shared"
)

// RepositoryPort is the storage contract of the service.
type RepositoryPort interface {
	Insert(ctx context.Context, c Checkin) error
	Update(ctx context.Context, id string, d Details) error
	List(ctx context.Context, f ListFilter) ([]Checkin, int, error)
	LatestPerHomestay(ctx context.Context) ([]Checkin, error)
}

// Service manages homestay guest check-ins.
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

// Submit registers a guest arrival.
func (s *Service) Submit(ctx context.Context, homestayID string, d Details) (Checkin, error) {
	c := Checkin{
		ID:             s.ids(),
		HomestayID:     strings.TrimSpace(homestayID),
		PersonInCharge: strings.TrimSpace(d.PersonInCharge),
		Guests:         d.Guests,
		Plates:         nonNil(d.Plates),
		Arrival:        d.Arrival,
		Departure:      d.Departure,
		Notes:          d.Notes,
		SubmittedAt:    s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		return Checkin{}, err
	}
	return c, nil
}

// Update edits an existing check-in.
func (s *Service) Update(ctx context.Context, id string, d Details) (Details, error) {
	d.PersonInCharge = strings.TrimSpace(d.PersonInCharge)
	d.Plates = nonNil(d.Plates)
	if err := s.repo.Update(ctx, id, d); err != nil {
		return Details{}, err
	}
	return d, nil
}

// List returns a page of check-ins.
func (s *Service) List(ctx context.Context, homestayID string, page shared.PageRequest) (shared.Page[Checkin], error) {
	items, total, err := s.repo.List(ctx, ListFilter{HomestayID: strings.TrimSpace(homestayID), Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return shared.Page[Checkin]{}, err
	}
	return shared.Page[Checkin]{Page: page.Page, PageSize: page.PageSize, Total: total, Data: items}, nil
}

// Latest returns the newest check-in per homestay.
func (s *Service) Latest(ctx context.Context) ([]Checkin, error) {
	return s.repo.LatestPerHomestay(ctx)
}

func nonNil(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}
