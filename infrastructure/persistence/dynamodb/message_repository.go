package dynamodb

import (
	"context"
	"fmt"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// MessageRepository implements the MessageRepository interface using
// DynamoDB. A block's messages share its partition and sort by a
// zero-padded write sequence, so GetByBlockID returns them in
// conversation order without a client-side sort.
type MessageRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *MessageRepository {
	return &MessageRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save persists a message
func (r *MessageRepository) Save(ctx context.Context, message *entities.Message) error {
	av, err := attributevalue.MarshalMap(newMessageItem(message))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save message",
			zap.Error(err),
			zap.String("messageID", message.ID().String()),
			zap.String("blockID", message.BlockID().String()),
		)
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by its ID via GSI1
func (r *MessageRepository) GetByID(ctx context.Context, id valueobjects.MessageID) (*entities.Message, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("MSGID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query message: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("message")
	}

	var item messageItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return item.toMessage()
}

// GetByBlockID retrieves a block's messages in conversation order
func (r *MessageRepository) GetByBlockID(ctx context.Context, blockID valueobjects.NodeID) ([]*entities.Message, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: messagePK(blockID.String())},
			":sk": &types.AttributeValueMemberS{Value: "MSG#"},
		},
		ScanIndexForward: aws.Bool(true),
	}

	messages := make([]*entities.Message, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query messages: %w", err)
		}
		for _, raw := range page.Items {
			var item messageItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal message item", zap.Error(err))
				continue
			}
			message, err := item.toMessage()
			if err != nil {
				r.logger.Warn("Failed to reconstruct message",
					zap.String("messageID", item.MessageID),
					zap.Error(err),
				)
				continue
			}
			messages = append(messages, message)
		}
	}

	return messages, nil
}

// GetByIDs resolves identifiers to messages, preserving the input order
// and skipping identifiers that no longer resolve
func (r *MessageRepository) GetByIDs(ctx context.Context, ids []valueobjects.MessageID) ([]*entities.Message, error) {
	messages := make([]*entities.Message, 0, len(ids))
	for _, id := range ids {
		message, err := r.GetByID(ctx, id)
		if err != nil {
			if pkgerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// DeleteByBlockID removes every message a block owns
func (r *MessageRepository) DeleteByBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	messages, err := r.GetByBlockID(ctx, blockID)
	if err != nil {
		return err
	}

	for _, message := range messages {
		input := &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: messagePK(blockID.String())},
				"SK": &types.AttributeValueMemberS{Value: messageSK(message.CreatedAt(), message.ID().String())},
			},
		}
		if _, err := r.client.DeleteItem(ctx, input); err != nil {
			return fmt.Errorf("failed to delete message %s: %w", message.ID().String(), err)
		}
	}

	return nil
}
