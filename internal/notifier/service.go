package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/shopkit/storefront/internal/kafka"
	"github.com/shopkit/storefront/internal/orders"
	"github.com/shopkit/storefront/internal/redisx"
)

// Mailer delivers a confirmation for a freshly placed order.
type Mailer interface {
	SendOrderConfirmation(ctx context.Context, email string, orderID int64, total float64) error
}

// LogMailer stands in for a real mail provider and just logs the delivery.
type LogMailer struct{}

func (LogMailer) SendOrderConfirmation(_ context.Context, email string, orderID int64, total float64) error {
	log.Printf("order confirmation: order=%d email=%s total=%.2f", orderID, email, total)
	return nil
}

// Deduper remembers processed event ids so redelivered messages are dropped.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

type RedisDeduper struct {
	Redis   *redis.Client
	Service string
}

func (d *RedisDeduper) Seen(ctx context.Context, eventID string) (bool, error) {
	return redisx.Exists(ctx, d.Redis, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID))
}

func (d *RedisDeduper) Mark(ctx context.Context, eventID string) error {
	return d.Redis.Set(ctx, fmt.Sprintf(redisx.KeyDedup, d.Service, eventID), "1", redisx.TTLDedup).Err()
}

type Service struct {
	Dedup  Deduper
	Mailer Mailer
}

// HandleOrderCreated is the consumer handler for the order.created topic.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	seen, err := s.Dedup.Seen(ctx, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if err := s.Mailer.SendOrderConfirmation(ctx, p.Email, p.OrderID, p.Total); err != nil {
		return err
	}
	return s.Dedup.Mark(ctx, env.EventID)
}
