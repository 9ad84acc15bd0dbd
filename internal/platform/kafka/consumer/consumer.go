// Package consumer runs a consumer-group poll loop and hands each record to a
// Handler. Records are committed once handled. When the handler fails, the
// partition is rewound to the failed record and polled again after a backoff,
// so records handled before it are not redelivered.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultMinBackoff = 200 * time.Millisecond
	defaultMaxBackoff = 30 * time.Second
)

// Message is the handler-facing view of a consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
}

type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

type Config struct {
	Brokers []string
	Group   string
	Topics  []string
}

// groupClient is the subset of *kgo.Client the poll loop uses.
type groupClient interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitRecords(ctx context.Context, rs ...*kgo.Record) error
	SetOffsets(setOffsets map[string]map[int32]kgo.EpochOffset)
	Close()
}

type Consumer struct {
	client     groupClient
	handler    Handler
	logger     *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

type Option func(*Consumer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		c.logger = logger
	}
}

func New(cfg Config, handler Handler, opts ...Option) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Group == "" || len(cfg.Topics) == 0 {
		return nil, fmt.Errorf("kafka consumer needs brokers, group and topics")
	}
	if handler == nil {
		return nil, fmt.Errorf("kafka consumer handler is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return newConsumer(client, handler, opts...), nil
}

func newConsumer(client groupClient, handler Handler, opts ...Option) *Consumer {
	c := &Consumer{
		client:     client,
		handler:    handler,
		logger:     slog.Default(),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run polls until ctx is done. It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	failures := 0
	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		handled, rewind := c.handle(ctx, fetches)
		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil && ctx.Err() == nil {
				c.logger.ErrorContext(ctx, "kafka commit failed", "error", err)
			}
		}
		if len(rewind) == 0 {
			failures = 0
			continue
		}

		c.client.SetOffsets(rewind)
		failures++
		wait := c.backoff(failures)
		c.logger.WarnContext(ctx, "kafka handler failed, retrying", "attempt", failures, "retry_in", wait)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// handle runs the handler over each partition in offset order. A partition
// stops at its first failure; the returned rewind map points at that record.
func (c *Consumer) handle(ctx context.Context, fetches kgo.Fetches) ([]*kgo.Record, map[string]map[int32]kgo.EpochOffset) {
	var handled []*kgo.Record
	rewind := make(map[string]map[int32]kgo.EpochOffset)
	fetches.EachPartition(func(p kgo.FetchTopicPartition) {
		for _, rec := range p.Records {
			msg := &Message{
				Topic:     rec.Topic,
				Partition: rec.Partition,
				Offset:    rec.Offset,
				Key:       rec.Key,
				Value:     rec.Value,
			}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.ErrorContext(ctx, "kafka handler failed",
					"topic", rec.Topic,
					"partition", rec.Partition,
					"offset", rec.Offset,
					"error", err,
				)
				if rewind[rec.Topic] == nil {
					rewind[rec.Topic] = make(map[int32]kgo.EpochOffset)
				}
				rewind[rec.Topic][rec.Partition] = kgo.EpochOffset{Epoch: -1, Offset: rec.Offset}
				return
			}
			handled = append(handled, rec)
		}
	})
	return handled, rewind
}

// backoff doubles from minBackoff on each consecutive failure, capped at maxBackoff.
func (c *Consumer) backoff(failures int) time.Duration {
	wait := c.minBackoff
	for i := 1; i < failures && wait < c.maxBackoff; i++ {
		wait *= 2
	}
	return min(wait, c.maxBackoff)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
