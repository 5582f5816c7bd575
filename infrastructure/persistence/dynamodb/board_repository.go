package dynamodb

import (
	"context"
	"fmt"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// BoardRepository implements the BoardRepository interface using DynamoDB
type BoardRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.BoardRepository = (*BoardRepository)(nil)

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *BoardRepository {
	return &BoardRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save persists a board
func (r *BoardRepository) Save(ctx context.Context, board *aggregates.Board) error {
	av, err := attributevalue.MarshalMap(newBoardItem(board))
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save board",
			zap.Error(err),
			zap.String("boardID", board.ID().String()),
		)
		return fmt.Errorf("failed to save board: %w", err)
	}

	return nil
}

// GetByID retrieves a board by its ID via GSI1
func (r *BoardRepository) GetByID(ctx context.Context, id valueobjects.BoardID) (*aggregates.Board, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("BOARDID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query board: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("board")
	}

	var item boardItem
	if err := attributevalue.UnmarshalMap(result.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	return item.toBoard()
}

// GetByUserID retrieves all boards owned by a user
func (r *BoardRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Board, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: boardPK(userID)},
			":sk": &types.AttributeValueMemberS{Value: "BOARD#"},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}

	boards := make([]*aggregates.Board, 0, len(result.Items))
	for _, raw := range result.Items {
		var item boardItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal board item", zap.Error(err))
			continue
		}
		board, err := item.toBoard()
		if err != nil {
			r.logger.Warn("Failed to reconstruct board",
				zap.String("boardID", item.BoardID),
				zap.Error(err),
			)
			continue
		}
		boards = append(boards, board)
	}

	return boards, nil
}

// Delete removes a board's metadata item
func (r *BoardRepository) Delete(ctx context.Context, id valueobjects.BoardID) error {
	board, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: boardPK(board.UserID())},
			"SK": &types.AttributeValueMemberS{Value: boardSK(id.String())},
		},
	}
	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	r.logger.Debug("Board deleted",
		zap.String("boardID", id.String()),
		zap.String("userID", board.UserID()),
	)
	return nil
}
