// Package events publishes booking lifecycle events to a message broker.
package events

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"luxdrive/internal/config"
	"luxdrive/internal/models"
)

// Publisher defines the interface for booking event publishers.
type Publisher interface {
	Publish(ctx context.Context, event models.BookingEvent) error
	Close() error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Publish(ctx context.Context, event models.BookingEvent) error { return nil }

func (Noop) Close() error { return nil }

// New returns the Publisher selected by cfg.EventsDriver.
func New(cfg *config.Config, logger *zap.Logger) (Publisher, error) {
	switch cfg.EventsDriver {
	case config.EventsNone, "":
		return Noop{}, nil
	case config.EventsRabbitMQ:
		return NewRabbitMQPublisher(RabbitMQConfig{URL: cfg.RabbitMQURL, Queue: cfg.EventsTopic}, logger)
	case config.EventsKafka:
		return NewKafkaPublisher(KafkaConfig{
			Brokers: strings.Split(cfg.KafkaBrokers, ","),
			Topic:   cfg.EventsTopic,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.EventsDriver)
	}
}
