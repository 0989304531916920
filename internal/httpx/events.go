package httpx

import (
	kafkax "github.com/ariefcatur/go-shop.git/internal/kafka"
	"github.com/ariefcatur/go-shop.git/internal/orders"
	"github.com/go-chi/chi/v5/middleware"
	kafkago "github.com/segmentio/kafka-go"
	"net/http"
	"strconv"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// OrderEvents publishes order lifecycle events after the transaction has
// committed. A nil *OrderEvents publishes nothing.
type OrderEvents struct {
	Placed    Publisher
	Cancelled Publisher
	Service   string
}

func (e *OrderEvents) placed(r *http.Request, o *orders.Order) {
	if e == nil || e.Placed == nil {
		return
	}
	e.publish(e.Placed, r, orders.EventOrderPlaced, o.ID, kafkax.MustMarshal(orders.PlacedPayload(o)))
}

func (e *OrderEvents) cancelled(r *http.Request, o *orders.Order) {
	if e == nil || e.Cancelled == nil {
		return
	}
	e.publish(e.Cancelled, r, orders.EventOrderCancelled, o.ID, kafkax.MustMarshal(orders.CancelledPayload(o)))
}

func (e *OrderEvents) publish(p Publisher, r *http.Request, eventType string, orderID int64, payload []byte) {
	ev := orders.NewEnvelope(eventType, e.Service, middleware.GetReqID(r.Context()), orderID, payload)
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(orders.EventVersion))},
	)
}
