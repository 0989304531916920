package orders

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop.git/internal/catalog"
	"github.com/ariefcatur/go-shop.git/internal/paging"
)

type memItem struct {
	name  string
	price int64
	stock int
}

// memStore serializes transactions on one mutex and restores a snapshot
// when the callback fails.
type memStore struct {
	mu         sync.Mutex
	items      map[int64]memItem
	orders     map[int64]*Order
	nextID     int64
	failInsert error
}

func newMemStore() *memStore {
	return &memStore{items: map[int64]memItem{}, orders: map[int64]*Order{}}
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Lines = append([]OrderLine(nil), o.Lines...)
	return &cp
}

func (m *memStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make(map[int64]memItem, len(m.items))
	for k, v := range m.items {
		items[k] = v
	}
	orders := make(map[int64]*Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = cloneOrder(v)
	}
	nextID := m.nextID

	if err := fn(memTx{m}); err != nil {
		m.items, m.orders, m.nextID = items, orders, nextID
		return err
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *memStore) ListByMember(_ context.Context, memberID int64, req paging.Request) (paging.Page[Order], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Order
	for _, o := range m.orders {
		if o.MemberID == memberID {
			all = append(all, *cloneOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := min(req.Offset(), len(all))
	end := min(start+req.Limit(), len(all))
	return paging.New(all[start:end], total, req), nil
}

func (m *memStore) stock(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id].stock
}

type memTx struct{ m *memStore }

func (t memTx) DecrementStock(_ context.Context, itemID int64, qty int) (string, int64, error) {
	it, ok := t.m.items[itemID]
	if !ok {
		return "", 0, catalog.ErrItemNotFound
	}
	if it.stock < qty {
		return "", 0, ErrInsufficientStock
	}
	it.stock -= qty
	t.m.items[itemID] = it
	return it.name, it.price, nil
}

func (t memTx) RestoreStock(_ context.Context, itemID int64, qty int) error {
	it, ok := t.m.items[itemID]
	if !ok {
		return catalog.ErrItemNotFound
	}
	it.stock += qty
	t.m.items[itemID] = it
	return nil
}

func (t memTx) InsertOrder(_ context.Context, o *Order) (int64, error) {
	if t.m.failInsert != nil {
		return 0, t.m.failInsert
	}
	t.m.nextID++
	o.ID = t.m.nextID
	t.m.orders[o.ID] = cloneOrder(o)
	return o.ID, nil
}

func (t memTx) LockOrder(_ context.Context, id int64) (*Order, error) {
	o, ok := t.m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t memTx) SetStatus(_ context.Context, id int64, st Status) error {
	o, ok := t.m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = st
	return nil
}

const (
	memberA int64 = 1
	memberB int64 = 2
	itemID  int64 = 7
)

func setup(stock int, price int64) (*Service, *memStore) {
	store := newMemStore()
	store.items[itemID] = memItem{name: "keyboard", price: price, stock: stock}
	svc := NewService(store)
	svc.Now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestPlaceThenCancel(t *testing.T) {
	svc, store := setup(100, 1500)
	ctx := context.Background()

	o, err := svc.PlaceOrder(ctx, memberA, itemID, 10)
	require.NoError(t, err)
	assert.Equal(t, 90, store.stock(itemID))
	assert.Equal(t, StatusOrder, o.Status)
	assert.Equal(t, int64(10*1500), o.TotalPrice())

	got, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, OrderLine{ItemID: itemID, ItemName: "keyboard", Quantity: 10, UnitPrice: 1500}, got.Lines[0])

	cancelled, err := svc.CancelOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancel, cancelled.Status)
	assert.Equal(t, 100, store.stock(itemID))

	got, err = svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancel, got.Status)
}

func TestPlaceOrder_PriceSnapshot(t *testing.T) {
	svc, store := setup(5, 1000)
	ctx := context.Background()

	o, err := svc.PlaceOrder(ctx, memberA, itemID, 2)
	require.NoError(t, err)

	store.mu.Lock()
	it := store.items[itemID]
	it.price = 9999
	store.items[itemID] = it
	store.mu.Unlock()

	got, err := svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.TotalPrice())
}

func TestCancelOrder_SecondCancelRejected(t *testing.T) {
	svc, store := setup(100, 1500)
	ctx := context.Background()

	o, err := svc.PlaceOrder(ctx, memberA, itemID, 10)
	require.NoError(t, err)
	_, err = svc.CancelOrder(ctx, o.ID)
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, o.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 100, store.stock(itemID))
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	svc, store := setup(5, 1500)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, memberA, itemID, 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 5, store.stock(itemID))

	page, err := svc.ListOrders(ctx, memberA, paging.Request{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestPlaceOrder_Errors(t *testing.T) {
	svc, store := setup(5, 1500)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, memberA, 404, 1)
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)

	for _, q := range []int{0, -3} {
		_, err = svc.PlaceOrder(ctx, memberA, itemID, q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 5, store.stock(itemID))
}

func TestPlaceOrder_LedgerFailureRollsBackStock(t *testing.T) {
	svc, store := setup(5, 1500)
	store.failInsert = errors.New("disk on fire")

	_, err := svc.PlaceOrder(context.Background(), memberA, itemID, 3)
	assert.Error(t, err)
	assert.Equal(t, 5, store.stock(itemID))
	assert.Empty(t, store.orders)
}

func TestCancelOrder_NotFound(t *testing.T) {
	svc, _ := setup(5, 1500)
	_, err := svc.CancelOrder(context.Background(), 999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOwnOrder(t *testing.T) {
	svc, store := setup(10, 100)
	ctx := context.Background()

	o, err := svc.PlaceOrder(ctx, memberA, itemID, 4)
	require.NoError(t, err)

	_, err = svc.CancelOwnOrder(ctx, o.ID, memberB)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.Equal(t, 6, store.stock(itemID))

	_, err = svc.CancelOwnOrder(ctx, o.ID, memberA)
	require.NoError(t, err)
	assert.Equal(t, 10, store.stock(itemID))
}

func TestPlaceOrder_ConcurrentNeverOversells(t *testing.T) {
	svc, store := setup(10, 100)
	ctx := context.Background()

	var ok, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(ctx, memberA, itemID, 1)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrInsufficientStock):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), ok.Load())
	assert.Equal(t, int32(40), rejected.Load())
	assert.Equal(t, 0, store.stock(itemID))
}

func TestListOrders_NewestFirst(t *testing.T) {
	svc, _ := setup(10, 100)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		o, err := svc.PlaceOrder(ctx, memberA, itemID, 1)
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, err := svc.PlaceOrder(ctx, memberB, itemID, 1)
	require.NoError(t, err)

	page, err := svc.ListOrders(ctx, memberA, paging.Request{Number: 0, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Content, 2)
	assert.Equal(t, ids[2], page.Content[0].ID)
	assert.Equal(t, ids[1], page.Content[1].ID)
	assert.True(t, page.HasNext())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusOrder, StatusCancel))
	assert.False(t, CanTransition(StatusCancel, StatusCancel))
	assert.False(t, CanTransition(StatusCancel, StatusOrder))
	assert.False(t, CanTransition("BOGUS", StatusCancel))
}
