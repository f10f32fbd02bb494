package source

import (
	"context"
	"fmt"
	"io"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"synth-exchange-stats/internal/domain"
)

// KafkaConfig selects one partition of a topic. A single partition
// preserves the chain order the producer wrote.
type KafkaConfig struct {
	Brokers   []string
	Topic     string
	Partition int32
	// Offset is the first offset to read, or sarama.OffsetOldest / OffsetNewest.
	// Zero reads from the oldest retained offset.
	Offset int64
	// EndOffset stops the source before this offset. Zero follows the partition indefinitely.
	EndOffset int64
	ClientID  string
}

// Kafka reads wire-format events from a Kafka partition.
type Kafka struct {
	consumer  sarama.Consumer
	partition sarama.PartitionConsumer
	endOffset int64
	done      bool
	logger    *zap.Logger
}

// NewKafka connects to the brokers and starts consuming the configured partition.
func NewKafka(cfg KafkaConfig, logger *zap.Logger) (*Kafka, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Return.Errors = true
	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}

	consumer, err := sarama.NewConsumer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	src, err := NewKafkaFromConsumer(consumer, cfg, logger)
	if err != nil {
		_ = consumer.Close()
		return nil, err
	}
	return src, nil
}

// NewKafkaFromConsumer consumes the configured partition through an existing consumer.
// The source takes ownership of consumer.
func NewKafkaFromConsumer(consumer sarama.Consumer, cfg KafkaConfig, logger *zap.Logger) (*Kafka, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	offset := cfg.Offset
	if offset == 0 {
		offset = sarama.OffsetOldest
	}

	pc, err := consumer.ConsumePartition(cfg.Topic, cfg.Partition, offset)
	if err != nil {
		return nil, fmt.Errorf("consume %s/%d: %w", cfg.Topic, cfg.Partition, err)
	}

	logger = logger.Named("kafka_source")
	logger.Info("consuming partition",
		zap.String("topic", cfg.Topic),
		zap.Int32("partition", cfg.Partition),
		zap.Int64("offset", offset),
		zap.Int64("end_offset", cfg.EndOffset),
	)

	return &Kafka{
		consumer:  consumer,
		partition: pc,
		endOffset: cfg.EndOffset,
		logger:    logger,
	}, nil
}

// Next blocks until the next message arrives or ctx is done.
func (k *Kafka) Next(ctx context.Context) (*domain.Event, error) {
	if k.done {
		return nil, io.EOF
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case consumerErr, ok := <-k.partition.Errors():
		if !ok {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("kafka partition: %w", consumerErr)
	case msg, ok := <-k.partition.Messages():
		if !ok {
			return nil, io.EOF
		}
		if k.endOffset > 0 && msg.Offset+1 >= k.endOffset {
			k.done = true
		}

		ev, err := Decode(msg.Value)
		if err != nil {
			k.logger.Error("undecodable message",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			return nil, fmt.Errorf("offset %d: %w", msg.Offset, err)
		}
		return ev, nil
	}
}

// Close stops the partition consumer and the consumer.
func (k *Kafka) Close() error {
	pcErr := k.partition.Close()
	if err := k.consumer.Close(); err != nil {
		return err
	}
	return pcErr
}
