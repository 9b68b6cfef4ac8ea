package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaSink_PublicaAlertaComoJSON(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got map[string]any
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got["sku"] != "SKU-1" || got["location"] != "default" {
			return errors.New("payload inesperado")
		}
		return nil
	})

	sink := NewKafkaSinkWithProducer(producer, "inventory.low-stock", zerolog.Nop())
	assert.Equal(t, "kafka", sink.Name())
	require.NoError(t, sink.Send(context.Background(), lowStock("SKU-1")))
	require.NoError(t, sink.Close())
}

func TestKafkaSink_ErrorDelBroker(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	sink := NewKafkaSinkWithProducer(producer, "inventory.low-stock", zerolog.Nop())
	err := sink.Send(context.Background(), lowStock("SKU-1"))
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, sink.Close())
}

// Tras 5 fallos seguidos el breaker se abre y no se contacta al broker.
func TestKafkaSink_BreakerAbierto(t *testing.T) {
	producer := mocks.NewSyncProducer(t, sarama.NewConfig())
	for i := 0; i < 5; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	sink := NewKafkaSinkWithProducer(producer, "inventory.low-stock", zerolog.Nop())
	for i := 0; i < 5; i++ {
		assert.Error(t, sink.Send(context.Background(), lowStock("SKU-1")))
	}

	err := sink.Send(context.Background(), lowStock("SKU-1"))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.NoError(t, sink.Close())
}
