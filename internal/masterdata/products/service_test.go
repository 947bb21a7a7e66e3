package products

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

type memoryRepo struct {
	products map[int64]Product
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[int64]Product)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	var result []Product
	for _, p := range r.products {
		result = append(result, p)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) Create(ctx context.Context, p Product) (Product, error) {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return p, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, p Product) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	p.ID = id
	r.products[id] = p
	return nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id int64) error {
	p, ok := r.products[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.IsActive = false
	r.products[id] = p
	return nil
}

type staticChecker bool

func (c staticChecker) HasMovements(ctx context.Context, productID int64) (bool, error) {
	return bool(c), nil
}

func validProduct() Product {
	return Product{Code: "HAR001", Name: "Harina", Unit: "kg", StorageMode: StorageLotted}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	svc := NewService(newMemoryRepo(), staticChecker(false))
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "x", Unit: "kg", StorageMode: StorageBulk})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, Product{Code: "X", Name: "x", Unit: "kg", StorageMode: "PILED"})
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.NotZero(t, created.ID)
}

func TestExpiryTrackingRequiresLottedStorage(t *testing.T) {
	svc := NewService(newMemoryRepo(), staticChecker(false))

	p := validProduct()
	p.StorageMode = StorageBulk
	p.RequiresExpiry = true
	_, err := svc.Create(context.Background(), p)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestStorageModeLockedOnceMovementsExist(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	svc := NewService(repo, staticChecker(true))
	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	changed := created
	changed.StorageMode = StorageBulk
	err = svc.Update(ctx, created.ID, changed)
	require.ErrorIs(t, err, ErrStorageModeLocked)

	// Other fields stay editable.
	renamed := created
	renamed.Name = "Harina integral"
	require.NoError(t, svc.Update(ctx, created.ID, renamed))
}

func TestStorageModeChangeableWithoutMovements(t *testing.T) {
	repo := newMemoryRepo()
	ctx := context.Background()

	svc := NewService(repo, staticChecker(false))
	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)

	changed := created
	changed.StorageMode = StorageBulk
	require.NoError(t, svc.Update(ctx, created.ID, changed))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, StorageBulk, got.StorageMode)
}

func TestDeactivateIsSoft(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, staticChecker(false))
	ctx := context.Background()

	created, err := svc.Create(ctx, validProduct())
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, created.ID))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}
