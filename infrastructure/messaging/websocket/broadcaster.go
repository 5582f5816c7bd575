package websocket

import (
	"context"
	"errors"
	"fmt"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/valueobjects"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Broadcaster pushes canvas mutations to every WebSocket client viewing a
// board. Connections register themselves against their board in the
// connections table; stale connections are dropped on Gone.
type Broadcaster struct {
	apiClient        *apigatewaymanagementapi.Client
	dynamoClient     *dynamodb.Client
	connectionsTable string
	logger           *zap.Logger
}

var _ ports.Broadcaster = (*Broadcaster)(nil)

// NewBroadcaster creates a broadcaster for one WebSocket API endpoint
func NewBroadcaster(
	awsCfg aws.Config,
	endpoint string,
	dynamoClient *dynamodb.Client,
	connectionsTable string,
	logger *zap.Logger,
) *Broadcaster {
	apiClient := apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", endpoint))
	})
	return &Broadcaster{
		apiClient:        apiClient,
		dynamoClient:     dynamoClient,
		connectionsTable: connectionsTable,
		logger:           logger,
	}
}

// BroadcastToBoard delivers a payload to every client viewing the board
func (b *Broadcaster) BroadcastToBoard(ctx context.Context, boardID valueobjects.BoardID, payload []byte) error {
	connectionIDs, err := b.connectionsForBoard(ctx, boardID.String())
	if err != nil {
		return fmt.Errorf("failed to resolve board connections: %w", err)
	}

	var failed int
	for _, connectionID := range connectionIDs {
		if err := b.post(ctx, connectionID, payload); err != nil {
			b.logger.Warn("Failed to push to connection",
				zap.String("connectionID", connectionID),
				zap.Error(err),
			)
			failed++
		}
	}

	if failed > 0 && failed == len(connectionIDs) {
		return fmt.Errorf("all %d pushes failed for board %s", failed, boardID.String())
	}
	return nil
}

func (b *Broadcaster) connectionsForBoard(ctx context.Context, boardID string) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(b.connectionsTable),
		IndexName:              aws.String("board-index"),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("BOARD#%s", boardID)},
		},
	}

	result, err := b.dynamoClient.Query(ctx, input)
	if err != nil {
		return nil, err
	}

	connectionIDs := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
			connectionIDs = append(connectionIDs, connID.Value)
		}
	}
	return connectionIDs, nil
}

func (b *Broadcaster) post(ctx context.Context, connectionID string, payload []byte) error {
	_, err := b.apiClient.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         payload,
	})
	if err != nil {
		var gone *apigwtypes.GoneException
		if errors.As(err, &gone) {
			b.removeStaleConnection(ctx, connectionID)
			return nil
		}
		return err
	}
	return nil
}

func (b *Broadcaster) removeStaleConnection(ctx context.Context, connectionID string) {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(b.connectionsTable),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: fmt.Sprintf("CONNECTION#%s", connectionID)},
			"SK": &types.AttributeValueMemberS{Value: "METADATA"},
		},
	}
	if _, err := b.dynamoClient.DeleteItem(ctx, input); err != nil {
		b.logger.Warn("Failed to remove stale connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return
	}
	b.logger.Debug("Removed stale connection", zap.String("connectionID", connectionID))
}
