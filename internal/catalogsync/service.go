// Package catalogsync reconciles item sell status from order events.
package catalogsync

import (
	"context"
	"encoding/json"
	"fmt"
	kafkax "github.com/ariefcatur/go-shop.git/internal/kafka"
	"github.com/ariefcatur/go-shop.git/internal/orders"
	"github.com/ariefcatur/go-shop.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log"
	"time"
)

// StatusStore flips an item's sell status when its stock crosses zero.
type StatusStore interface {
	MarkSoldOutIfEmpty(ctx context.Context, itemID int64) (bool, error)
	MarkOnSaleIfRestocked(ctx context.Context, itemID int64) (bool, error)
}

// Dedup remembers processed event ids.
type Dedup interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string, ttl time.Duration) error
}

type RedisDedup struct{ RDB redis.Cmdable }

func (d RedisDedup) Seen(ctx context.Context, key string) (bool, error) {
	return redisx.Exists(ctx, d.RDB, key)
}

func (d RedisDedup) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return d.RDB.Set(ctx, key, "1", ttl).Err()
}

type Service struct {
	Items       StatusStore
	Dedup       Dedup
	ServiceName string
}

// Handle routes a message from either order topic to its handler.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	switch m.Topic {
	case orders.TopicOrderPlaced:
		return s.HandleOrderPlaced(ctx, m)
	case orders.TopicOrderCancelled:
		return s.HandleOrderCancelled(ctx, m)
	}
	log.Printf("catalogsync: skip message from unexpected topic %q", m.Topic)
	return nil
}

// HandleOrderPlaced handles placed orders.
// Every item on the order whose stock reached zero is flipped to SOLD_OUT.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	return s.handle(ctx, m, orders.EventOrderPlaced, func(env orders.Envelope) error {
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			log.Printf("catalogsync: event %s: %v", env.EventID, err)
			return nil
		}
		for _, l := range p.Lines {
			changed, err := s.Items.MarkSoldOutIfEmpty(ctx, l.ItemID)
			if err != nil {
				return fmt.Errorf("mark sold out item %d: %w", l.ItemID, err)
			}
			if changed {
				log.Printf("catalogsync: item %d sold out after order %d", l.ItemID, p.OrderID)
			}
		}
		return nil
	})
}

// HandleOrderCancelled puts items that were SOLD_OUT back on sale once the
// cancelled order's quantities have been returned to stock.
func (s *Service) HandleOrderCancelled(ctx context.Context, m kafkago.Message) error {
	return s.handle(ctx, m, orders.EventOrderCancelled, func(env orders.Envelope) error {
		p, err := kafkax.UnwrapPayload[orders.OrderCancelledPayload](env.Payload)
		if err != nil {
			log.Printf("catalogsync: event %s: %v", env.EventID, err)
			return nil
		}
		for _, l := range p.Lines {
			changed, err := s.Items.MarkOnSaleIfRestocked(ctx, l.ItemID)
			if err != nil {
				return fmt.Errorf("mark on sale item %d: %w", l.ItemID, err)
			}
			if changed {
				log.Printf("catalogsync: item %d back on sale after cancel of order %d", l.ItemID, p.OrderID)
			}
		}
		return nil
	})
}

// handle decodes the envelope, skips other event types and events already
// processed, and marks the event done only after apply succeeds.
func (s *Service) handle(ctx context.Context, m kafkago.Message, eventType string, apply func(orders.Envelope) error) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Printf("catalogsync: skip undecodable message offset=%d: %v", m.Offset, err)
		return nil
	}
	if env.EventType != eventType {
		return nil
	}

	// 2) dedup via Redis (event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, err := s.Dedup.Seen(ctx, dkey); err != nil {
		log.Printf("catalogsync: dedup check %s: %v", dkey, err)
	} else if seen {
		return nil
	}

	// 3) reconcile, idempotent per item
	if err := apply(env); err != nil {
		return err
	}

	if err := s.Dedup.Mark(ctx, dkey, redisx.TTLDedup); err != nil {
		log.Printf("catalogsync: dedup mark %s: %v", dkey, err)
	}
	return nil
}
