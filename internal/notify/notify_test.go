package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_UsesSnakeCaseFields(t *testing.T) {
	data, err := Encode(RunCompleted{
		RunID:      "abc",
		Outcome:    "success",
		Converted:  3,
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded["run_id"])
	assert.Equal(t, "success", decoded["outcome"])
	assert.InDelta(t, 3, decoded["converted"], 0)
	assert.Equal(t, "2024-05-01T12:00:00Z", decoded["finished_at"])
}

func TestNewNATSPublisher_RequiresSubject(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:4222", "")
	require.Error(t, err)
}

func TestNewNATSPublisher_UnreachableServer(t *testing.T) {
	_, err := NewNATSPublisher("nats://127.0.0.1:1", "docpress.runs")
	require.Error(t, err)
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	require.NoError(t, p.Publish(context.Background(), RunCompleted{}))
	require.NoError(t, p.Close())
}
