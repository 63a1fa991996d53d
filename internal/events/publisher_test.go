package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/construction_ledger/internal/core/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPublishing(t *testing.T) {
	occurred := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	event := domain.DistributionEvent{
		Type:       domain.EventReconciliationRequired,
		RunID:      "run-1",
		ProjectID:  "project-1",
		Kind:       domain.RunPercentage,
		Status:     domain.RunPartial,
		FailedStep: domain.StepMarkLogsDistributed,
		OccurredAt: occurred,
	}

	msg, err := toPublishing(event)
	require.NoError(t, err)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "run-1:"+domain.EventReconciliationRequired, msg.MessageId)
	assert.Equal(t, occurred, msg.Timestamp)

	var decoded domain.DistributionEvent
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, domain.StepMarkLogsDistributed, decoded.FailedStep)
	assert.Equal(t, domain.RunPartial, decoded.Status)
}

func TestLogPublisher_WarnsOnReconciliation(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	publisher := NewLogPublisher(logger)

	err := publisher.Publish(context.Background(), domain.DistributionEvent{
		Type:  domain.EventReconciliationRequired,
		RunID: "run-9",
	})
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "run-9", line["run_id"])
}
