package warehouses

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

// Repository persists warehouses.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error)
	Get(ctx context.Context, id int64) (Warehouse, error)
	Create(ctx context.Context, warehouse Warehouse) (Warehouse, error)
	Update(ctx context.Context, id int64, warehouse Warehouse) error
	Deactivate(ctx context.Context, id int64) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	filters.Normalize()
	filters.Search = shared.FoldSearch(filters.Search)
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Warehouse, error) {
	if id <= 0 {
		return Warehouse{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, warehouse Warehouse) (Warehouse, error) {
	if err := validate(warehouse); err != nil {
		return Warehouse{}, err
	}
	warehouse.IsActive = true
	return s.repo.Create(ctx, warehouse)
}

func (s *Service) Update(ctx context.Context, id int64, warehouse Warehouse) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := validate(warehouse); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, warehouse)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}

func validate(w Warehouse) error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: warehouse name is required", shared.ErrValidation)
	}
	if w.Capacity != nil && *w.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", shared.ErrValidation)
	}
	return nil
}
