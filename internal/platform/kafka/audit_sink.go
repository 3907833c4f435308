package kafka

import (
	"context"

	"customerapi/pkg/platform/audit"
)

// AuditSink relays outbox entries to Kafka keyed by aggregate id, so all
// events for one customer land on the same partition in order.
type AuditSink struct {
	producer *Producer
}

func NewAuditSink(producer *Producer) *AuditSink {
	return &AuditSink{producer: producer}
}

func (s *AuditSink) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, Record{
			Key:   e.AggregateID,
			Value: e.Payload,
			Headers: map[string]string{
				"event_type": e.EventType,
				"event_id":   e.ID.String(),
			},
		})
	}
	return s.producer.Produce(ctx, records...)
}
