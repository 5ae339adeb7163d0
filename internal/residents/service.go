package residents

import (
	"context"
	"strings"

	"github.com/estateguard/estate/internal/shared"
)

// RepositoryPort is the storage contract of the service.
type RepositoryPort interface {
	List(ctx context.Context, f ListFilter) ([]Resident, int, error)
	Insert(ctx context.Context, res Resident) error
	Update(ctx context.Context, res Resident) (Resident, error)
	Delete(ctx context.Context, id string) error
}

// Service manages the resident directory.
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

// List returns a page of residents.
func (s *Service) List(ctx context.Context, f ListFilter) (shared.Page[Resident], error) {
	f.Query = strings.TrimSpace(f.Query)
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return shared.Page[Resident]{}, err
	}
	if items == nil {
		items = []Resident{}
	}
	return shared.Page[Resident]{Page: f.Page, PageSize: f.PageSize, Total: total, Data: items}, nil
}

// Create adds a house. Every owner must carry a name and phone; incomplete
// vehicles are dropped.
func (s *Service) Create(ctx context.Context, in Input) (Resident, error) {
	houseNo := strings.TrimSpace(in.HouseNo)
	if houseNo == "" {
		return Resident{}, ErrHouseNoRequired
	}
	owners := cleanOwners(in.Owners)
	if len(owners) != len(in.Owners) {
		return Resident{}, ErrOwnerIncomplete
	}
	now := s.clock.Now()
	res := Resident{
		ID:        s.ids(),
		HouseNo:   houseNo,
		HouseType: houseType(in.HouseType),
		Owners:    owners,
		Vehicles:  cleanVehicles(in.Vehicles),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, res); err != nil {
		return Resident{}, err
	}
	return res, nil
}

// Update rewrites a house. Incomplete owners and vehicles are dropped.
func (s *Service) Update(ctx context.Context, id string, in Input) (Resident, error) {
	houseNo := strings.TrimSpace(in.HouseNo)
	if houseNo == "" {
		return Resident{}, ErrHouseNoRequired
	}
	return s.repo.Update(ctx, Resident{
		ID:        id,
		HouseNo:   houseNo,
		HouseType: houseType(in.HouseType),
		Owners:    cleanOwners(in.Owners),
		Vehicles:  cleanVehicles(in.Vehicles),
		UpdatedAt: s.clock.Now(),
	})
}

// Delete removes a house.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func cleanOwners(in []Owner) []Owner {
	out := make([]Owner, 0, len(in))
	for _, o := range in {
		o.Name, o.Phone = strings.TrimSpace(o.Name), strings.TrimSpace(o.Phone)
		if o.Name == "" || o.Phone == "" {
			continue
		}
		if o.UserID != nil && strings.TrimSpace(*o.UserID) == "" {
			o.UserID = nil
		}
		out = append(out, o)
	}
	return out
}

func cleanVehicles(in []Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(in))
	for _, v := range in {
		v = Vehicle{Brand: strings.TrimSpace(v.Brand), Model: strings.TrimSpace(v.Model), Plate: strings.TrimSpace(v.Plate)}
		if v.Brand == "" || v.Model == "" || v.Plate == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
