//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lgac/internal/audit"
	"lgac/internal/platform/kafka"
	id "lgac/pkg/domain"
	"lgac/pkg/testutil/containers"
)

// The audit trail's claim is that every emitted event survives the trip
// through the broker intact. Run it against a real Redpanda.
func TestAuditEventsReachBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	broker := containers.GetManager().GetRedpanda(t)

	const topic = "lgac.audit.events.test"
	producer, err := kafka.NewProducer(ctx, []string{broker.Broker}, topic)
	require.NoError(t, err)
	defer producer.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := audit.NewPublisher(logger, 16, audit.NewKafkaSink(producer))

	actor := id.NewUserID()
	publisher.Emit(ctx, audit.Event{
		Action:        audit.ActionCertIssued,
		ActorID:       actor,
		ApplicationID: id.ApplicationID(42),
		Detail:        "LGAC/AKS/2024/000042",
	})
	publisher.Emit(ctx, audit.Event{
		Action:  audit.ActionUserLogin,
		ActorID: actor,
	})
	publisher.Close() // drains the buffer

	values, err := broker.Consume(ctx, topic, 2, 15*time.Second)
	require.NoError(t, err)
	require.Len(t, values, 2)

	var first audit.Event
	require.NoError(t, json.Unmarshal(values[0], &first))
	require.Equal(t, audit.ActionCertIssued, first.Action)
	require.Equal(t, actor, first.ActorID)
	require.Equal(t, id.ApplicationID(42), first.ApplicationID)
	require.Equal(t, "LGAC/AKS/2024/000042", first.Detail)
	require.False(t, first.Timestamp.IsZero())

	var second audit.Event
	require.NoError(t, json.Unmarshal(values[1], &second))
	require.Equal(t, audit.ActionUserLogin, second.Action)
}
