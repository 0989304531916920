package orders

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("order is not in a cancellable state")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrNotOwner          = errors.New("order belongs to another member")
)

type Order struct {
	ID        int64       `json:"id"`
	MemberID  int64       `json:"member_id"`
	Status    Status      `json:"status"`
	OrderedAt time.Time   `json:"ordered_at"`
	Lines     []OrderLine `json:"lines"`
}

// OrderLine snapshots the unit price at order time.
type OrderLine struct {
	ItemID    int64  `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	ImageURL  string `json:"image_url,omitempty"`
}

func (l OrderLine) TotalPrice() int64 { return int64(l.Quantity) * l.UnitPrice }

func (o Order) TotalPrice() int64 {
	var sum int64
	for _, l := range o.Lines {
		sum += l.TotalPrice()
	}
	return sum
}
