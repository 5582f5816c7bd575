package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPush_SkipsUnroutableBoardIDs(t *testing.T) {
	logger = zap.NewNop()

	// Neither an absent nor a malformed board ID reaches the broadcaster
	assert.NoError(t, push(context.Background(), "node.created", "", nil))
	assert.NoError(t, push(context.Background(), "node.created", "not-a-uuid", nil))
}

func TestHandler_EventBridgeDeliveryWithBadBoardID(t *testing.T) {
	logger = zap.NewNop()

	event, err := json.Marshal(map[string]interface{}{
		"detail-type": "link.created",
		"detail":      map[string]interface{}{"board_id": "not-a-uuid"},
	})
	require.NoError(t, err)

	assert.NoError(t, handler(context.Background(), event))
}

func TestHandler_RejectsUnparseableEvents(t *testing.T) {
	logger = zap.NewNop()

	assert.Error(t, handler(context.Background(), json.RawMessage(`{"noise":true}`)))
}
