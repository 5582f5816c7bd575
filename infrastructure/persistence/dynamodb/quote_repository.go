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

// QuoteRepository implements the QuoteRepository interface using DynamoDB.
// A branch has at most one provenance record, stored as a fixed-SK item in
// the branch block's partition.
type QuoteRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.QuoteRepository = (*QuoteRepository)(nil)

// NewQuoteRepository creates a new QuoteRepository
func NewQuoteRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *QuoteRepository {
	return &QuoteRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save persists a quote link
func (r *QuoteRepository) Save(ctx context.Context, quote *entities.QuoteLink) error {
	av, err := attributevalue.MarshalMap(newQuoteItem(quote))
	if err != nil {
		return fmt.Errorf("failed to marshal quote link: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		r.logger.Error("Failed to save quote link",
			zap.Error(err),
			zap.String("targetBlockID", quote.TargetBlockID().String()),
		)
		return fmt.Errorf("failed to save quote link: %w", err)
	}

	return nil
}

// GetByTargetBlockID retrieves the provenance record for a branch
func (r *QuoteRepository) GetByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) (*entities.QuoteLink, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: messagePK(blockID.String())},
			"SK": &types.AttributeValueMemberS{Value: "QUOTE"},
		},
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote link: %w", err)
	}
	if result.Item == nil {
		return nil, pkgerrors.NewNotFoundError("quote link")
	}

	var item quoteItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quote link: %w", err)
	}
	return item.toQuote()
}

// DeleteByTargetBlockID removes a branch's provenance record
func (r *QuoteRepository) DeleteByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: messagePK(blockID.String())},
			"SK": &types.AttributeValueMemberS{Value: "QUOTE"},
		},
	}
	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete quote link: %w", err)
	}
	return nil
}
