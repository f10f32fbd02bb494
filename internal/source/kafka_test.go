package source

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"synth-exchange-stats/internal/domain"
)

func TestKafka_Next(t *testing.T) {
	consumer := mocks.NewConsumer(t, nil)
	consumer.ExpectConsumePartition("synth-events", 0, sarama.OffsetOldest).
		YieldMessage(&sarama.ConsumerMessage{Value: []byte(exchangeLine)})

	src, err := NewKafkaFromConsumer(consumer, KafkaConfig{Topic: "synth-events"}, zap.NewNop())
	require.NoError(t, err)

	ev, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0x1", ev.TxHash)
	assert.Equal(t, domain.EventKindExchange, ev.Kind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKafka_UndecodableMessage(t *testing.T) {
	consumer := mocks.NewConsumer(t, nil)
	consumer.ExpectConsumePartition("synth-events", 2, 42).
		YieldMessage(&sarama.ConsumerMessage{Value: []byte("{")})

	src, err := NewKafkaFromConsumer(consumer, KafkaConfig{Topic: "synth-events", Partition: 2, Offset: 42}, nil)
	require.NoError(t, err)

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}
