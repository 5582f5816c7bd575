// Package main implements the WebSocket push Lambda. It consumes domain
// events from EventBridge and fans them out to every client viewing the
// affected board.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/infrastructure/messaging/websocket"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

var (
	broadcaster *websocket.Broadcaster
	logger      *zap.Logger
)

// CanvasUpdate is the message format pushed to clients
type CanvasUpdate struct {
	Type      string                 `json:"type"`
	BoardID   string                 `json:"board_id"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// BroadcastRequest is the direct-invocation payload for manual pushes
type BroadcastRequest struct {
	EventType string                 `json:"event_type"`
	BoardID   string                 `json:"board_id"`
	Payload   map[string]interface{} `json:"payload"`
}

func init() {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	endpoint := os.Getenv("WEBSOCKET_ENDPOINT")
	connectionsTable := os.Getenv("CONNECTIONS_TABLE")
	if connectionsTable == "" {
		connectionsTable = "tangent-connections"
	}

	broadcaster = websocket.NewBroadcaster(
		cfg,
		endpoint,
		dynamodb.NewFromConfig(cfg),
		connectionsTable,
		logger,
	)

	log.Println("WebSocket push handler initialized")
}

// push serializes the update and sends it to the board's viewers
func push(ctx context.Context, eventType, boardID string, data map[string]interface{}) error {
	if boardID == "" {
		logger.Warn("event has no board ID, skipping push", zap.String("eventType", eventType))
		return nil
	}

	id, err := valueobjects.NewBoardIDFromString(boardID)
	if err != nil {
		logger.Warn("event has an invalid board ID, skipping push",
			zap.String("eventType", eventType),
			zap.String("boardID", boardID),
		)
		return nil
	}

	update := CanvasUpdate{
		Type:      eventType,
		BoardID:   boardID,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	return broadcaster.BroadcastToBoard(ctx, id, payload)
}

// handler processes EventBridge domain events and direct invocations
func handler(ctx context.Context, event json.RawMessage) error {
	// EventBridge delivery carries the domain event in Detail
	var cloudWatchEvent events.CloudWatchEvent
	if err := json.Unmarshal(event, &cloudWatchEvent); err == nil && cloudWatchEvent.DetailType != "" {
		var detail map[string]interface{}
		if err := json.Unmarshal(cloudWatchEvent.Detail, &detail); err != nil {
			return fmt.Errorf("failed to parse event detail: %w", err)
		}

		boardID, _ := detail["board_id"].(string)
		return push(ctx, cloudWatchEvent.DetailType, boardID, detail)
	}

	// Direct invocation
	var req BroadcastRequest
	if err := json.Unmarshal(event, &req); err == nil && req.EventType != "" {
		return push(ctx, req.EventType, req.BoardID, req.Payload)
	}

	return fmt.Errorf("unable to parse event")
}

func main() {
	lambda.Start(handler)
}
