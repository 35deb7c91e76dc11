package repository

import (
	"context"

	"PowerCast/internal/domain/models"
	"PowerCast/internal/domain/repository"
	pkgkafka "PowerCast/pkg/kafka"
)

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func obsKey(o *models.Observation) []byte {
	return []byte(o.Source + "/" + o.Metric)
}

func obsValue(o *models.Observation) map[string]interface{} {
	return map[string]interface{}{
		"source": o.Source,
		"metric": o.Metric,
		"t":      o.Time,
		"v":      o.Value,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, o *models.Observation) error {
	return p.producer.Publish(ctx, p.topic, obsKey(o), obsValue(o))
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, obs []*models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(obs))
	for i, o := range obs {
		msgs[i] = pkgkafka.Message{Key: obsKey(o), Value: obsValue(o)}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
