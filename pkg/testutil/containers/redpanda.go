//go:build integration

package containers

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaContainer wraps a testcontainers Redpanda instance. Redpanda is
// Kafka-wire-compatible, so the production franz-go client talks to it
// unmodified.
type RedpandaContainer struct {
	Container testcontainers.Container
	Broker    string
}

// NewRedpandaContainer starts a Redpanda container.
func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "docker.redpanda.com/redpandadata/redpanda:v24.1.7",
		tcredpanda.WithAutoCreateTopics(),
	)
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redpanda broker address: %v", err)
	}

	return &RedpandaContainer{
		Container: container,
		Broker:    broker,
	}
}

// Consume reads up to max records from the beginning of a topic, waiting at
// most the given duration. It returns early once max records arrive.
func (r *RedpandaContainer) Consume(ctx context.Context, topic string, max int, wait time.Duration) ([][]byte, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(r.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	deadline, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	var values [][]byte
	for len(values) < max {
		fetches := client.PollFetches(deadline)
		if err := fetches.Err0(); err != nil {
			break
		}
		fetches.EachRecord(func(rec *kgo.Record) {
			values = append(values, rec.Value)
		})
	}
	return values, nil
}
