package repository

import (
	"context"

	"MarketLens/internal/domain/models"
	drepo "MarketLens/internal/domain/repository"
	pkgkafka "MarketLens/pkg/kafka"
)

// KafkaPublisher pushes a compact report envelope to a Kafka topic, keyed by
// symbol so all reports for one instrument land in one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) drepo.ReportPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, symbol string, report *models.Report) error {
	return p.producer.Publish(ctx, p.topic, []byte(symbol), map[string]interface{}{
		"symbol":  symbol,
		"title":   report.Title,
		"modules": moduleSummary(report),
	})
}

// moduleSummary strips markdown from the envelope; consumers fetch the full
// rendering from the archive when they need it.
func moduleSummary(report *models.Report) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(report.Modules))
	for _, m := range report.Modules {
		entry := map[string]interface{}{"name": m.Name}
		if m.Failed() {
			entry["error"] = m.Error
		} else {
			entry["payload"] = m.Payload
		}
		out = append(out, entry)
	}
	return out
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
