// Package event keeps the catalog in sync with the upstream product service
// by consuming its lifecycle events.
package event

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/gopikant21/jumbotail/internal/service"
	apperrors "github.com/gopikant21/jumbotail/pkg/errors"
	"github.com/gopikant21/jumbotail/pkg/kafka"
)

// Event types published by the product service.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// ProductEventData is the payload carried by product lifecycle events. It
// mirrors the indexing input so created and updated events can upsert
// directly.
type ProductEventData struct {
	service.ProductInput
}

// ProductConsumer subscribes to product lifecycle topics and applies them to
// the search catalog.
type ProductConsumer struct {
	svc       *service.SearchService
	logger    *slog.Logger
	consumers []*kafka.Consumer
}

// NewProductConsumer creates consumers for the created, updated, and deleted
// product topics.
func NewProductConsumer(brokers []string, groupID string, svc *service.SearchService, logger *slog.Logger) *ProductConsumer {
	pc := &ProductConsumer{
		svc:    svc,
		logger: logger,
	}

	for _, action := range []string{"created", "updated", "deleted"} {
		cfg := kafka.ConsumerConfig{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   kafka.Topic("product", action),
		}
		pc.consumers = append(pc.consumers, kafka.NewConsumer(cfg, pc.handle, logger))
	}
	return pc
}

// Start runs all topic consumers until the context is canceled.
func (pc *ProductConsumer) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, c := range pc.consumers {
		wg.Add(1)
		go func(c *kafka.Consumer) {
			defer wg.Done()
			if err := c.Start(ctx); err != nil {
				pc.logger.Error("product consumer stopped with error",
					slog.String("error", err.Error()),
				)
			}
		}(c)
	}
	wg.Wait()
	return nil
}

// Close shuts down all topic consumers.
func (pc *ProductConsumer) Close() error {
	var firstErr error
	for _, c := range pc.consumers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (pc *ProductConsumer) handle(ctx context.Context, ev *kafka.Event) error {
	switch ev.EventType {
	case EventProductCreated, EventProductUpdated:
		var data ProductEventData
		if err := ev.UnmarshalData(&data); err != nil {
			return err
		}
		// Upsert: the store replaces an existing product with the same id.
		_, err := pc.svc.IndexProduct(ctx, data.ProductInput)
		return err

	case EventProductDeleted:
		id, err := strconv.ParseInt(ev.AggregateID, 10, 64)
		if err != nil {
			pc.logger.Warn("deleted event with non-numeric aggregate id",
				slog.String("aggregate_id", ev.AggregateID),
			)
			return nil
		}
		if err := pc.svc.RemoveProduct(ctx, id); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		return nil

	default:
		pc.logger.Debug("ignoring unhandled event type",
			slog.String("event_type", ev.EventType),
		)
		return nil
	}
}
