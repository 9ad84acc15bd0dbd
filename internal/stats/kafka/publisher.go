// Package kafka carries stats increments over a topic so record mutations
// never block on the counter backend.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"lostfound/internal/stats/models"
)

const DefaultTopic = "lostfound.stats"

// Producer is the subset of the platform producer used here.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

type Publisher struct {
	producer Producer
	topic    string
}

func NewPublisher(p Producer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: p, topic: topic}
}

// Publish keys the record by event ID so duplicates land on one partition.
func (p *Publisher) Publish(ctx context.Context, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stats event: %w", err)
	}
	return p.producer.Produce(ctx, p.topic, []byte(event.ID), payload)
}

// Applier writes a consumed event to the counter store.
type Applier interface {
	Apply(ctx context.Context, event models.Event) error
}
