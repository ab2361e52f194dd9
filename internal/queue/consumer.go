package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Consumer reads the workflow queue and writes one audit record per event.
type Consumer struct {
	url   string
	log   zerolog.Logger
	audit zerolog.Logger
}

// NewConsumer builds a consumer. log receives operational messages, audit
// receives the events themselves.
func NewConsumer(url string, log, audit zerolog.Logger) *Consumer {
	return &Consumer{url: url, log: log.With().Str("component", "auditor").Logger(), audit: audit}
}

// Run connects, consumes and reconnects with exponential backoff until ctx is
// cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", backoff).Msg("dial broker failed")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn().Err(err).Msg("set QoS failed")
	}
	if _, err := ch.QueueDeclare(WorkflowQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(WorkflowQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.log.Error().Err(err).Msg("handle message failed")
				_ = d.Nack(false, false) // no requeue, avoids tight redelivery loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev WorkflowEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	rec := c.audit.Info().
		Str("event_id", ev.ID).
		Str("type", string(ev.Type)).
		Uint64("program_id", ev.ProgramID).
		Str("actor", ev.Actor).
		Time("occurred_at", ev.OccurredAt)
	if ev.ScreeningID != 0 {
		rec = rec.Uint64("screening_id", ev.ScreeningID)
	}
	if ev.From != "" || ev.To != "" {
		rec = rec.Str("from", ev.From).Str("to", ev.To)
	}
	if ev.Detail != "" {
		rec = rec.Str("detail", ev.Detail)
	}
	rec.Msg("workflow event")
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
