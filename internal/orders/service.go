package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/shopkit/storefront/internal/kafka"
)

var (
	ErrMissingFields     = errors.New("customer, email, items and total are required")
	ErrInvalidQuantity   = errors.New("item quantity must be at least 1")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

type Store interface {
	CreateOrder(ctx context.Context, in CreateInput) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	SetStatus(ctx context.Context, id int64, to Status) (*Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type EventPublisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// One producer per topic; each kafka writer is bound to a single topic.
type Service struct {
	Store          Store
	Producer       EventPublisher // order.created; may be nil when events are disabled
	StatusProducer EventPublisher // order.status.changed; may be nil
	ServiceName    string
}

// Create persists the order with its cart snapshot and publishes an
// OrderCreated event after commit. Initial status is always pending.
func (s *Service) Create(ctx context.Context, in CreateInput, traceID string) (*Order, error) {
	if in.Customer == "" || in.Email == "" || len(in.Items) == 0 || in.Total == 0 {
		return nil, ErrMissingFields
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, it.ProductID)
		}
	}

	o, err := s.Store.CreateOrder(ctx, in)
	if err != nil {
		return nil, err
	}

	s.publish(EventOrderCreated, o.ID, traceID, OrderCreatedPayload{
		OrderID:  o.ID,
		Customer: o.Customer,
		Email:    o.Email,
		UserID:   o.UserID,
		Items:    in.Items,
		Total:    o.Total,
	})
	return o, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.Store.ListOrders(ctx)
}

// UpdateStatus is the only way an order leaves pending. The target must be a
// known status and reachable from the current one.
func (s *Service) UpdateStatus(ctx context.Context, id int64, to Status) (*Order, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	cur, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur.Status, to)
	}
	o, err := s.Store.SetStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	s.publish(EventOrderStatusChanged, o.ID, "", OrderStatusChangedPayload{
		OrderID: o.ID,
		From:    string(cur.Status),
		To:      string(to),
	})
	return o, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.Store.DeleteOrder(ctx, id)
}

func (s *Service) publish(eventType string, orderID int64, traceID string, payload any) {
	p := s.Producer
	if eventType == EventOrderStatusChanged {
		p = s.StatusProducer
	}
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: fmt.Sprintf("%d", orderID),
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
