package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, Event{Type: StatementImported, AccountID: "CCP 1", Count: 3}))
	require.NoError(t, r.Publish(ctx, Event{Type: OperationAdded, AccountID: "CCP 1", OperationID: "x"}))

	assert.Equal(t, []string{StatementImported, OperationAdded}, r.Types())
	events := r.Events()
	require.Len(t, events, 2)
	assert.Equal(t, 3, events[0].Count)

	events[0].Count = 99
	assert.Equal(t, 3, r.Events()[0].Count)
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Type: OperationAdded}))
	assert.NoError(t, p.Close())
}

func TestNew_NoBrokers(t *testing.T) {
	assert.IsType(t, Nop{}, New(nil, "tally.operations"))
	assert.IsType(t, &KafkaPublisher{}, New([]string{"localhost:9092"}, "tally.operations"))
}

func TestMessage(t *testing.T) {
	at := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	msg, err := message(Event{Type: OperationUpdated, AccountID: "CCP 1", OperationID: "2026-10-14.X.-1.00", At: at})
	require.NoError(t, err)

	assert.Equal(t, "CCP 1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, OperationUpdated, string(msg.Headers[0].Value))

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "operation.updated", got["type"])
	assert.Equal(t, "2026-10-14.X.-1.00", got["operation_id"])
	assert.NotContains(t, got, "count")
}
