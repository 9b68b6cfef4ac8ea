package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// KafkaSink publica alertas de stock bajo en un tópico, con la clave sku@location.
// Un circuit breaker evita encadenar reintentos mientras el broker no responde.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
	cb       *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

// NewKafkaSink crea un SyncProducer con acks de todas las réplicas.
func NewKafkaSink(brokers []string, topic string, log zerolog.Logger) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("crear productor kafka: %w", err)
	}
	return NewKafkaSinkWithProducer(p, topic, log), nil
}

// NewKafkaSinkWithProducer usa un productor existente (p. ej. mocks de sarama).
func NewKafkaSinkWithProducer(p sarama.SyncProducer, topic string, log zerolog.Logger) *KafkaSink {
	l := log.With().Str(logger.FieldComponent, "kafka_sink").Str("topic", topic).Logger()
	settings := gobreaker.Settings{
		Name:        "KafkaLowStock",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().Str("name", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker cambió de estado")
		},
	}
	return &KafkaSink{producer: p, topic: topic, cb: gobreaker.NewCircuitBreaker(settings), log: l}
}

func (k *KafkaSink) Name() string { return "kafka" }

// Send publica la alerta. Con el breaker abierto devuelve gobreaker.ErrOpenState sin tocar el broker.
func (k *KafkaSink) Send(_ context.Context, evt entity.LowStockEvent) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(evt.SKU + "@" + evt.Location),
		Value: sarama.ByteEncoder(payload),
	}
	_, err = k.cb.Execute(func() (interface{}, error) {
		partition, offset, err := k.producer.SendMessage(msg)
		if err != nil {
			return nil, err
		}
		k.log.Debug().Int32("partition", partition).Int64("offset", offset).Str("sku", evt.SKU).Msg("alerta publicada")
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("publicar alerta: %w", err)
	}
	return nil
}

// Close cierra el productor.
func (k *KafkaSink) Close() error { return k.producer.Close() }
