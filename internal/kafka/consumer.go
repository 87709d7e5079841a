// Package kafka consumes change-data-capture events from the marketplace
// store and feeds them through the same event router the webhook uses.
package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/tailmates/notification/internal/application"
	"github.com/tailmates/notification/internal/domain"
)

// Consumer wraps the franz-go Kafka client.
type Consumer struct {
	client  *kgo.Client
	service *application.Service
}

// New creates a Consumer with the given brokers, group ID, and topics.
func New(brokers []string, groupID string, topics []string, svc *application.Service) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, err
	}
	return &Consumer{client: client, service: svc}, nil
}

// Start begins polling Kafka and processing records. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	log.Info().Msg("kafka consumer started")

	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			break
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			log.Error().Err(err).Str("topic", topic).Int32("partition", partition).Msg("kafka fetch error")
		})

		fetches.EachRecord(func(r *kgo.Record) {
			c.process(ctx, r)
		})

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			log.Error().Err(err).Msg("kafka commit error")
		}
	}

	c.client.Close()
	log.Info().Msg("kafka consumer stopped")
}

// process decodes one CDC record and dispatches it. Malformed records are
// skipped; handler failures are logged and the offset is still committed —
// retrying is the upstream pipeline's concern, not ours.
func (c *Consumer) process(ctx context.Context, r *kgo.Record) {
	log.Debug().
		Str("topic", r.Topic).
		Str("key", string(r.Key)).
		Msg("processing kafka record")

	var ev domain.ChangeEvent
	if err := json.Unmarshal(r.Value, &ev); err != nil {
		log.Warn().Err(err).Str("topic", r.Topic).Msg("skipping undecodable change event")
		return
	}

	if err := c.service.HandleEvent(ctx, ev); err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			log.Warn().Err(err).Str("topic", r.Topic).Msg("skipping malformed change event")
			return
		}
		log.Error().Err(err).
			Str("topic", r.Topic).
			Str("table", ev.Table).
			Msg("failed to handle change event from kafka")
	}
}
