package warehouses

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lightwin075/RossiChatllm2/internal/masterdata/shared"
)

type memoryRepo struct {
	warehouses map[int64]Warehouse
	nextID     int64
	lastSearch string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{warehouses: make(map[int64]Warehouse)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Warehouse, int, error) {
	r.lastSearch = filters.Search
	var result []Warehouse
	for _, w := range r.warehouses {
		result = append(result, w)
	}
	return result, len(result), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return Warehouse{}, shared.ErrNotFound
	}
	return w, nil
}

func (r *memoryRepo) Create(ctx context.Context, w Warehouse) (Warehouse, error) {
	r.nextID++
	w.ID = r.nextID
	r.warehouses[w.ID] = w
	return w, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, w Warehouse) error {
	if _, ok := r.warehouses[id]; !ok {
		return shared.ErrNotFound
	}
	w.ID = id
	r.warehouses[id] = w
	return nil
}

func (r *memoryRepo) Deactivate(ctx context.Context, id int64) error {
	w, ok := r.warehouses[id]
	if !ok {
		return shared.ErrNotFound
	}
	w.IsActive = false
	r.warehouses[id] = w
	return nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Warehouse{Name: "   "})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRejectsNonPositiveCapacity(t *testing.T) {
	svc := NewService(newMemoryRepo())
	capacity := float64(0)

	_, err := svc.Create(context.Background(), Warehouse{Name: "Bodega Central", Capacity: &capacity})
	require.ErrorIs(t, err, shared.ErrValidation)

	capacity = -250
	_, err = svc.Create(context.Background(), Warehouse{Name: "Bodega Central", Capacity: &capacity})
	require.ErrorIs(t, err, shared.ErrValidation)

	capacity = 1200.5
	created, err := svc.Create(context.Background(), Warehouse{Name: "Bodega Central", Capacity: &capacity})
	require.NoError(t, err)
	require.Equal(t, 1200.5, *created.Capacity)
}

func TestCreateActivatesWarehouse(t *testing.T) {
	svc := NewService(newMemoryRepo())

	created, err := svc.Create(context.Background(), Warehouse{Name: "Bodega Norte", Location: "Guayaquil"})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.NotZero(t, created.ID)
}

func TestGetRejectsInvalidID(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Get(context.Background(), 0)
	require.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestDeactivateClearsActiveFlag(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), Warehouse{Name: "Bodega Quito"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestListFoldsSearchTerm(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	_, _, err := svc.List(context.Background(), shared.ListFilters{Search: "Bodéga"})
	require.NoError(t, err)
	require.Equal(t, "bodega", repo.lastSearch)
}
