package orders

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	mu       sync.Mutex
	orders   map[int64]Order
	payments map[int64]int
	nextID   int64
	nextNum  int64
	nextLine int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: make(map[int64]Order), payments: make(map[int64]int)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetOrder(ctx context.Context, id int64) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return order, nil
}

func (r *memoryRepo) ListOrders(ctx context.Context, filter Filter) ([]Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []Order
	for _, order := range r.orders {
		if filter.SupplierID != 0 && order.SupplierID != filter.SupplierID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, order)
	}
	return result, len(result), nil
}

func (tx *memoryTx) GetOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	order, ok := tx.repo.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return order, nil
}

func (tx *memoryTx) InsertOrder(ctx context.Context, order Order) (Order, error) {
	tx.repo.nextID++
	tx.repo.nextNum++
	order.ID = tx.repo.nextID
	order.Number = tx.repo.nextNum
	tx.repo.orders[order.ID] = order
	return order, nil
}

func (tx *memoryTx) UpdateOrder(ctx context.Context, order Order) error {
	if _, ok := tx.repo.orders[order.ID]; !ok {
		return ErrNotFound
	}
	tx.repo.orders[order.ID] = order
	return nil
}

func (tx *memoryTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := tx.repo.orders[id]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.orders, id)
	return nil
}

func (tx *memoryTx) ReplaceLines(ctx context.Context, orderID int64, lines []Line) ([]Line, error) {
	out := make([]Line, len(lines))
	for i, line := range lines {
		tx.repo.nextLine++
		line.ID = tx.repo.nextLine
		line.OrderID = orderID
		out[i] = line
	}
	order := tx.repo.orders[orderID]
	order.Lines = out
	tx.repo.orders[orderID] = order
	return out, nil
}

func (tx *memoryTx) PaymentCount(ctx context.Context, orderID int64) (int, error) {
	return tx.repo.payments[orderID], nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(slog.Default(), repo, nil, decimal.Zero)
}

func validCreateInput() CreateInput {
	return CreateInput{
		SupplierID: 5,
		Lines: []LineInput{
			{ProductID: 1, Qty: dec("10"), UnitCost: dec("2.5")},
			{ProductID: 2, Qty: dec("3.333"), UnitCost: dec("1.111")},
		},
		ActorID: 7,
	}
}

func TestCreateComputesTotalsAndStartsAsPreOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)
	require.Equal(t, StatusPreOrder, order.Status)
	require.Equal(t, int64(1), order.Number)
	require.Len(t, order.Lines, 2)

	// 25 + 3.703 = 28.703; tax 15% = 4.305; total 33.008
	require.True(t, order.Subtotal.Equal(dec("28.703")), order.Subtotal.String())
	require.True(t, order.Tax.Equal(dec("4.305")), order.Tax.String())
	require.True(t, order.Total.Equal(dec("33.008")), order.Total.String())
	require.Nil(t, order.IssuedAt)
}

func TestCreateRejectsBadLines(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{SupplierID: 5})
	require.ErrorIs(t, err, ErrEmptyLines)

	_, err = svc.Create(ctx, CreateInput{SupplierID: 5, Lines: []LineInput{{ProductID: 1, Qty: dec("0"), UnitCost: dec("1")}}})
	require.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.Create(ctx, CreateInput{SupplierID: 5, Lines: []LineInput{{ProductID: 1, Qty: dec("1"), UnitCost: dec("-1")}}})
	require.ErrorIs(t, err, ErrInvalidLine)
}

func TestEditReplacesLinesAndRecomputes(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	updated, err := svc.Edit(ctx, order.ID, EditInput{
		Lines: []LineInput{{ProductID: 3, Qty: dec("2"), UnitCost: dec("4")}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	require.Equal(t, int64(3), updated.Lines[0].ProductID)
	require.True(t, updated.Subtotal.Equal(dec("8")), updated.Subtotal.String())
	require.True(t, updated.Total.Equal(dec("9.2")), updated.Total.String())
}

func TestEditRejectedPastPreOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, order.ID, StatusIssued, 7)
	require.NoError(t, err)

	_, err = svc.Edit(ctx, order.ID, EditInput{Lines: []LineInput{{ProductID: 1, Qty: dec("1"), UnitCost: dec("1")}}})
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestAdvanceWalksLifecycleOneStepAtATime(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = svc.Advance(ctx, order.ID, StatusReceived, 7)
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	issued, err := svc.Advance(ctx, order.ID, StatusIssued, 7)
	require.NoError(t, err)
	require.NotNil(t, issued.IssuedAt)
	require.Nil(t, issued.ReceivedAt)

	_, err = svc.Advance(ctx, order.ID, StatusIssued, 7)
	require.ErrorIs(t, err, ErrInvalidStatusTransition)

	received, err := svc.Advance(ctx, order.ID, StatusReceived, 7)
	require.NoError(t, err)
	require.NotNil(t, received.ReceivedAt)

	paid, err := svc.Advance(ctx, order.ID, StatusPaid, 7)
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	_, err = svc.Advance(ctx, order.ID, StatusPaid, 7)
	require.ErrorIs(t, err, ErrTerminalStatus)
}

func TestDeleteOnlyPreOrderWithoutPayments(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)

	repo.payments[order.ID] = 1
	err = svc.Delete(ctx, order.ID, 7)
	require.ErrorIs(t, err, ErrHasPayments)

	repo.payments[order.ID] = 0
	require.NoError(t, svc.Delete(ctx, order.ID, 7))

	_, err = svc.Get(ctx, order.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRejectedPastPreOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, order.ID, StatusIssued, 7)
	require.NoError(t, err)

	err = svc.Delete(ctx, order.ID, 7)
	require.ErrorIs(t, err, ErrNotEditable)
}

func TestCloneResetsLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, order.ID, StatusIssued, 7)
	require.NoError(t, err)

	clone, err := svc.Clone(ctx, order.ID, 7)
	require.NoError(t, err)
	require.NotEqual(t, order.ID, clone.ID)
	require.NotEqual(t, order.Number, clone.Number)
	require.Equal(t, StatusPreOrder, clone.Status)
	require.Nil(t, clone.IssuedAt)
	require.Equal(t, order.SupplierID, clone.SupplierID)
	require.Len(t, clone.Lines, len(order.Lines))
	require.True(t, clone.Total.Equal(order.Total))

	_, err = svc.Clone(ctx, 999, 7)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, validCreateInput())
	require.NoError(t, err)
	_, err = svc.Advance(ctx, first.ID, StatusIssued, 7)
	require.NoError(t, err)

	issued, total, err := svc.List(ctx, Filter{Status: StatusIssued})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, issued, 1)
	require.Equal(t, first.ID, issued[0].ID)
}
