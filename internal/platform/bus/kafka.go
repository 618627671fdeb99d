package bus

import (
	"context"
	stderrs "errors"
	"io"

	perr "darkroom/internal/platform/errors"
	"darkroom/internal/platform/logger"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher writes records through a shared kafka.Writer
type KafkaPublisher struct {
	w   *kafka.Writer
	log *logger.Logger
}

// NewKafkaPublisher builds a publisher for the configured brokers.
// Topics are chosen per message so one writer serves all producers
func NewKafkaPublisher(cfg Config) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: logger.Named("bus.pub"),
	}
}

// Publish writes one record and surfaces broker failures to the caller
func (p *KafkaPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	err := p.w.WriteMessages(ctx, kafka.Message{Topic: topic, Key: key, Value: value})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeBus, "publish to %s", topic)
	}
	return nil
}

// Close flushes and closes the underlying writer
func (p *KafkaPublisher) Close() error { return p.w.Close() }

// KafkaConsumer pulls one topic inside a consumer group with explicit commits
type KafkaConsumer struct {
	r   *kafka.Reader
	log *logger.Logger
}

// NewKafkaConsumer builds a group consumer for topic
func NewKafkaConsumer(cfg Config, group, topic string) *KafkaConsumer {
	l := logger.Named("bus.sub").With().Str("topic", topic).Str("group", group).Logger()
	return &KafkaConsumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  group,
			Topic:    topic,
			MinBytes: cfg.MinBytes,
			MaxBytes: cfg.MaxBytes,
			MaxWait:  cfg.MaxWait,
		}),
		log: &l,
	}
}

// Run fetches, handles, and commits until ctx is canceled.
// Handler errors are logged and the offset is committed anyway so a poison
// message can never wedge the partition
func (c *KafkaConsumer) Run(ctx context.Context, h Handler) error {
	for {
		km, err := c.r.FetchMessage(ctx)
		if err != nil {
			if stderrs.Is(err, context.Canceled) || stderrs.Is(err, io.EOF) {
				return nil
			}
			return perr.Wrapf(err, perr.ErrorCodeBus, "fetch")
		}

		m := Message{
			Topic:     km.Topic,
			Key:       km.Key,
			Value:     km.Value,
			Partition: km.Partition,
			Offset:    km.Offset,
			Time:      km.Time,
		}
		if herr := h(ctx, m); herr != nil {
			c.log.Error().Err(herr).
				Int("partition", m.Partition).
				Int64("offset", m.Offset).
				Msg("handler failed, committing anyway")
		}

		if err := c.r.CommitMessages(ctx, km); err != nil {
			if stderrs.Is(err, context.Canceled) {
				return nil
			}
			return perr.Wrapf(err, perr.ErrorCodeBus, "commit")
		}
	}
}

// Close closes the underlying reader
func (c *KafkaConsumer) Close() error { return c.r.Close() }
