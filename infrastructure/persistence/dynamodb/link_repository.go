package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// LinkRepository implements the LinkRepository interface using DynamoDB.
// The link's sort key encodes the ordered (source, target) pair, so a
// conditional put on key absence is the storage-level uniqueness net the
// application's idempotency check leans on under concurrency.
type LinkRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.LinkRepository = (*LinkRepository)(nil)

// NewLinkRepository creates a new LinkRepository
func NewLinkRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *LinkRepository {
	return &LinkRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Create persists a new link, failing with a conflict if the pair exists
func (r *LinkRepository) Create(ctx context.Context, link *entities.ContextLink) error {
	av, err := attributevalue.MarshalMap(newLinkItem(link))
	if err != nil {
		return fmt.Errorf("failed to marshal link: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			r.logger.Debug("Link already exists for pair",
				zap.String("sourceID", link.SourceID().String()),
				zap.String("targetID", link.TargetID().String()),
			)
			return pkgerrors.NewConflictError("link already exists for this pair")
		}
		r.logger.Error("Failed to save link",
			zap.Error(err),
			zap.String("linkID", link.ID().String()),
		)
		return fmt.Errorf("failed to save link: %w", err)
	}

	return nil
}

// GetByID retrieves a link by its ID via GSI1
func (r *LinkRepository) GetByID(ctx context.Context, id valueobjects.LinkID) (*entities.ContextLink, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(gsi1IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND GSI1SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: fmt.Sprintf("LINKID#%s", id.String())},
			":sk": &types.AttributeValueMemberS{Value: "METADATA"},
		},
		Limit: aws.Int32(1),
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query link: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("link")
	}

	return parseLinkItem(result.Items[0])
}

// GetByPair retrieves the link for an ordered (source, target) pair. The
// pair is the table's sort key, so this is a direct read once the board
// partition is known; the board is carried on the GSI2 projection instead,
// so we query by source and match the target.
func (r *LinkRepository) GetByPair(ctx context.Context, sourceID, targetID valueobjects.NodeID) (*entities.ContextLink, error) {
	links, err := r.queryByIndex(ctx, gsi2IndexName, "GSI2PK", fmt.Sprintf("NODE#%s", sourceID.String()))
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		if link.TargetID().Equals(targetID) {
			return link, nil
		}
	}
	return nil, pkgerrors.NewNotFoundError("link")
}

// GetByBoardID retrieves every link on a board
func (r *LinkRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.ContextLink, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(nodePK(boardID.String()))).
		And(expression.Key("SK").BeginsWith("LINK#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build link query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	links := make([]*entities.ContextLink, 0)
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query links: %w", err)
		}
		for _, raw := range page.Items {
			link, err := parseLinkItem(raw)
			if err != nil {
				r.logger.Warn("Failed to parse link item", zap.Error(err))
				continue
			}
			links = append(links, link)
		}
	}

	return links, nil
}

// GetByNodeID retrieves every link touching a node, as source or target
func (r *LinkRepository) GetByNodeID(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.ContextLink, error) {
	outgoing, err := r.queryByIndex(ctx, gsi2IndexName, "GSI2PK", fmt.Sprintf("NODE#%s", nodeID.String()))
	if err != nil {
		return nil, err
	}
	incoming, err := r.queryByIndex(ctx, gsi3IndexName, "GSI3PK", fmt.Sprintf("TARGET#%s", nodeID.String()))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(outgoing))
	links := make([]*entities.ContextLink, 0, len(outgoing)+len(incoming))
	for _, link := range outgoing {
		seen[link.ID().String()] = true
		links = append(links, link)
	}
	for _, link := range incoming {
		if !seen[link.ID().String()] {
			links = append(links, link)
		}
	}

	return links, nil
}

// Delete removes a link
func (r *LinkRepository) Delete(ctx context.Context, id valueobjects.LinkID) error {
	link, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: nodePK(link.BoardID().String())},
			"SK": &types.AttributeValueMemberS{Value: linkSK(link.SourceID().String(), link.TargetID().String())},
		},
	}
	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	return nil
}

func (r *LinkRepository) queryByIndex(ctx context.Context, indexName, keyName, keyValue string) ([]*entities.ContextLink, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :pk", keyName)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: keyValue},
		},
	}

	result, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query links by %s: %w", indexName, err)
	}

	links := make([]*entities.ContextLink, 0, len(result.Items))
	for _, raw := range result.Items {
		link, err := parseLinkItem(raw)
		if err != nil {
			r.logger.Warn("Failed to parse link item", zap.Error(err))
			continue
		}
		links = append(links, link)
	}

	return links, nil
}

func parseLinkItem(raw map[string]types.AttributeValue) (*entities.ContextLink, error) {
	var item linkItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal link: %w", err)
	}
	return item.toLink()
}
