package catalog

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound  = errors.New("item not found")
	ErrImageNotFound = errors.New("item image not found")
)

type SellStatus string

const (
	SellStatusOnSale  SellStatus = "ON_SALE"
	SellStatusSoldOut SellStatus = "SOLD_OUT"
)

// ParseSellStatus accepts the canonical names plus the legacy "SELL" alias.
func ParseSellStatus(s string) (SellStatus, bool) {
	switch s {
	case "ON_SALE", "SELL":
		return SellStatusOnSale, true
	case "SOLD_OUT":
		return SellStatusSoldOut, true
	}
	return "", false
}

type Item struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Price      int64       `json:"price"`
	Detail     string      `json:"detail"`
	SellStatus SellStatus  `json:"sell_status"`
	Stock      int         `json:"stock"`
	CreatedBy  string      `json:"created_by"`
	ModifiedBy string      `json:"modified_by"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	Images     []ItemImage `json:"images,omitempty"`
}

type ItemImage struct {
	ID             int64  `json:"id"`
	ItemID         int64  `json:"item_id"`
	OriginalName   string `json:"original_name"`
	StoredName     string `json:"stored_name"`
	URL            string `json:"url"`
	Representative bool   `json:"representative"`
}

// MainItem is the storefront projection: an item plus its representative image.
type MainItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Detail   string `json:"detail"`
	Price    int64  `json:"price"`
	ImageURL string `json:"image_url"`
}

// ItemForm is the admin input for creating or editing an item.
type ItemForm struct {
	Name       string
	Price      int64
	Detail     string
	SellStatus SellStatus
	Stock      int
}
