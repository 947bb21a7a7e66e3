package products

import (
	"context"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	Deactivate(ctx context.Context, id int64) error
}

// MovementChecker reports whether a product already appears in the movement
// ledger. Once it does, the storage mode is frozen.
type MovementChecker interface {
	HasMovements(ctx context.Context, productID int64) (bool, error)
}

type Service struct {
	repo      Repository
	movements MovementChecker
}

func NewService(repo Repository, movements MovementChecker) *Service {
	return &Service{repo: repo, movements: movements}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	filters.Normalize()
	filters.Search = shared.FoldSearch(filters.Search)
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	product.IsActive = true
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(product); err != nil {
		return err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.StorageMode != product.StorageMode {
		locked, err := s.movements.HasMovements(ctx, id)
		if err != nil {
			return err
		}
		if locked {
			return ErrStorageModeLocked
		}
	}
	return s.repo.Update(ctx, id, product)
}

// Deactivate soft-disables a product. History stays queryable; new movements
// against it are for the inventory service to reject.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}
