package orders

import (
	"context"
	"fmt"
	"github.com/ariefcatur/go-shop.git/internal/paging"
	"time"
)

// Store is the order ledger. Stock changes and ledger writes only happen
// inside WithTx so that they commit or roll back together.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Get(ctx context.Context, id int64) (*Order, error)
	ListByMember(ctx context.Context, memberID int64, req paging.Request) (paging.Page[Order], error)
}

type Tx interface {
	// DecrementStock takes qty units off the item in one compare-and-update
	// and returns the item's current name and price.
	DecrementStock(ctx context.Context, itemID int64, qty int) (name string, price int64, err error)
	RestoreStock(ctx context.Context, itemID int64, qty int) error
	InsertOrder(ctx context.Context, o *Order) (int64, error)
	// LockOrder loads the order and its lines, holding the order row until commit.
	LockOrder(ctx context.Context, id int64) (*Order, error)
	SetStatus(ctx context.Context, id int64, st Status) error
}

type Service struct {
	Store Store
	Now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{Store: store, Now: time.Now}
}

// PlaceOrder orders qty units of one item for memberID and returns the new order.
func (s *Service) PlaceOrder(ctx context.Context, memberID, itemID int64, qty int) (*Order, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	var placed *Order
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		name, price, err := tx.DecrementStock(ctx, itemID, qty)
		if err != nil {
			return err
		}
		o := &Order{
			MemberID:  memberID,
			Status:    StatusOrder,
			OrderedAt: s.Now(),
			Lines:     []OrderLine{{ItemID: itemID, ItemName: name, Quantity: qty, UnitPrice: price}},
		}
		if _, err := tx.InsertOrder(ctx, o); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// CancelOrder cancels any order and puts its stock back.
func (s *Service) CancelOrder(ctx context.Context, orderID int64) (*Order, error) {
	return s.cancel(ctx, orderID, 0)
}

// CancelOwnOrder is CancelOrder restricted to orders owned by memberID.
func (s *Service) CancelOwnOrder(ctx context.Context, orderID, memberID int64) (*Order, error) {
	return s.cancel(ctx, orderID, memberID)
}

func (s *Service) cancel(ctx context.Context, orderID, ownerID int64) (*Order, error) {
	var cancelled *Order
	err := s.Store.WithTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if ownerID != 0 && o.MemberID != ownerID {
			return ErrNotOwner
		}
		if !CanTransition(o.Status, StatusCancel) {
			return fmt.Errorf("%w: order %d is %s", ErrInvalidState, o.ID, o.Status)
		}
		if err := tx.SetStatus(ctx, o.ID, StatusCancel); err != nil {
			return err
		}
		for _, l := range o.Lines {
			if err := tx.RestoreStock(ctx, l.ItemID, l.Quantity); err != nil {
				return fmt.Errorf("restore stock item %d: %w", l.ItemID, err)
			}
		}
		o.Status = StatusCancel
		cancelled = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return s.Store.Get(ctx, id)
}

// ListOrders is the member's order history, newest first.
func (s *Service) ListOrders(ctx context.Context, memberID int64, req paging.Request) (paging.Page[Order], error) {
	return s.Store.ListByMember(ctx, memberID, req.Normalize())
}
