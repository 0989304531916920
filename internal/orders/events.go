package orders

import (
	"encoding/json"
	"github.com/google/uuid"
	"time"
)

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderCancelled = "OrderCancelled"

	EventVersion = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type LineQty struct {
	ItemID   int64 `json:"item_id"`
	Quantity int   `json:"quantity"`
}

type OrderPlacedPayload struct {
	OrderID    int64     `json:"order_id"`
	MemberID   int64     `json:"member_id"`
	Lines      []LineQty `json:"lines"`
	TotalPrice int64     `json:"total_price"`
}

type OrderCancelledPayload struct {
	OrderID  int64     `json:"order_id"`
	MemberID int64     `json:"member_id"`
	Lines    []LineQty `json:"lines"`
}

func NewEnvelope(eventType, producer, traceID string, orderID int64, payload []byte) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: string(PartitionKey(orderID)),
		Payload:       payload,
	}
}

func PlacedPayload(o *Order) OrderPlacedPayload {
	return OrderPlacedPayload{OrderID: o.ID, MemberID: o.MemberID, Lines: lineQtys(o.Lines), TotalPrice: o.TotalPrice()}
}

func CancelledPayload(o *Order) OrderCancelledPayload {
	return OrderCancelledPayload{OrderID: o.ID, MemberID: o.MemberID, Lines: lineQtys(o.Lines)}
}

func lineQtys(lines []OrderLine) []LineQty {
	out := make([]LineQty, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineQty{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}
