package audit

import (
	"context"
	"encoding/json"
	"fmt"
)

// RecordProducer is the broker client the Kafka sink writes through.
type RecordProducer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaSink publishes events to the audit topic as JSON records keyed by
// action, so downstream consumers can compact or route per action.
type KafkaSink struct {
	producer RecordProducer
}

func NewKafkaSink(producer RecordProducer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.producer.Produce(ctx, []byte(event.Action), payload)
}
