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
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoDB caps TransactWriteItems at 100 items; we stay well under it so
// a single canvas mutation never straddles two transactions.
const maxTransactItems = 50

// UnitOfWork implements the UnitOfWork pattern over TransactWriteItems.
// Writes staged through the transactional repositories are buffered and
// committed in one atomic call; a conditional-check cancellation surfaces
// as a conflict so callers can fall back to the idempotent read path.
type UnitOfWork struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger

	transactItems []types.TransactWriteItem
	inTransaction bool

	nodes    *txNodeRepository
	links    *txLinkRepository
	messages *txMessageRepository
	quotes   *txQuoteRepository
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a new unit of work instance
func NewUnitOfWork(client *dynamodb.Client, tableName string, logger *zap.Logger) *UnitOfWork {
	uow := &UnitOfWork{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
	uow.nodes = &txNodeRepository{uow: uow, reads: NewNodeRepository(client, tableName, logger)}
	uow.links = &txLinkRepository{uow: uow, reads: NewLinkRepository(client, tableName, logger)}
	uow.messages = &txMessageRepository{uow: uow, reads: NewMessageRepository(client, tableName, logger)}
	uow.quotes = &txQuoteRepository{uow: uow}
	return uow
}

// Begin starts a new transaction
func (uow *UnitOfWork) Begin(ctx context.Context) error {
	if uow.inTransaction {
		return pkgerrors.NewInternalError("transaction already in progress")
	}
	uow.inTransaction = true
	uow.transactItems = uow.transactItems[:0]
	return nil
}

// Commit executes all staged writes atomically
func (uow *UnitOfWork) Commit(ctx context.Context) error {
	if !uow.inTransaction {
		return pkgerrors.NewInternalError("no transaction in progress")
	}
	defer func() {
		uow.inTransaction = false
		uow.transactItems = nil
	}()

	if len(uow.transactItems) == 0 {
		return nil
	}
	if len(uow.transactItems) > maxTransactItems {
		return pkgerrors.NewInternalError(
			fmt.Sprintf("transaction exceeds limit of %d items: %d staged", maxTransactItems, len(uow.transactItems)))
	}

	input := &dynamodb.TransactWriteItemsInput{
		TransactItems: uow.transactItems,
	}
	if _, err := uow.client.TransactWriteItems(ctx, input); err != nil {
		var canceled *types.TransactionCanceledException
		if errors.As(err, &canceled) {
			for _, reason := range canceled.CancellationReasons {
				if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
					return pkgerrors.NewConflictError("transaction canceled by conditional check")
				}
			}
		}
		uow.logger.Error("Transaction failed",
			zap.Error(err),
			zap.Int("itemCount", len(uow.transactItems)),
		)
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// Rollback discards the staged writes
func (uow *UnitOfWork) Rollback() error {
	uow.inTransaction = false
	uow.transactItems = nil
	return nil
}

// Nodes returns the transactional node repository
func (uow *UnitOfWork) Nodes() ports.NodeRepository { return uow.nodes }

// Links returns the transactional link repository
func (uow *UnitOfWork) Links() ports.LinkRepository { return uow.links }

// Messages returns the transactional message repository
func (uow *UnitOfWork) Messages() ports.MessageRepository { return uow.messages }

// Quotes returns the transactional quote repository
func (uow *UnitOfWork) Quotes() ports.QuoteRepository { return uow.quotes }

func (uow *UnitOfWork) stagePut(item interface{}, conditionExpression string) error {
	if !uow.inTransaction {
		return pkgerrors.NewInternalError("no transaction in progress")
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	put := &types.Put{
		TableName: aws.String(uow.tableName),
		Item:      av,
	}
	if conditionExpression != "" {
		put.ConditionExpression = aws.String(conditionExpression)
	}
	uow.transactItems = append(uow.transactItems, types.TransactWriteItem{Put: put})
	return nil
}

func (uow *UnitOfWork) stageDelete(pk, sk string) error {
	if !uow.inTransaction {
		return pkgerrors.NewInternalError("no transaction in progress")
	}
	uow.transactItems = append(uow.transactItems, types.TransactWriteItem{
		Delete: &types.Delete{
			TableName: aws.String(uow.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk},
				"SK": &types.AttributeValueMemberS{Value: sk},
			},
		},
	})
	return nil
}

// txNodeRepository stages node writes; reads see the live table
type txNodeRepository struct {
	uow   *UnitOfWork
	reads *NodeRepository
}

func (r *txNodeRepository) Save(ctx context.Context, node *entities.Node) error {
	return r.uow.stagePut(newNodeItem(node), "")
}

func (r *txNodeRepository) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	return r.reads.GetByID(ctx, id)
}

func (r *txNodeRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.Node, error) {
	return r.reads.GetByBoardID(ctx, boardID)
}

func (r *txNodeRepository) Delete(ctx context.Context, id valueobjects.NodeID) error {
	node, err := r.reads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return r.uow.stageDelete(nodePK(node.BoardID().String()), nodeSK(id.String()))
}

// txLinkRepository stages link writes; reads see the live table
type txLinkRepository struct {
	uow   *UnitOfWork
	reads *LinkRepository
}

func (r *txLinkRepository) Create(ctx context.Context, link *entities.ContextLink) error {
	return r.uow.stagePut(newLinkItem(link), "attribute_not_exists(PK) AND attribute_not_exists(SK)")
}

func (r *txLinkRepository) GetByID(ctx context.Context, id valueobjects.LinkID) (*entities.ContextLink, error) {
	return r.reads.GetByID(ctx, id)
}

func (r *txLinkRepository) GetByPair(ctx context.Context, sourceID, targetID valueobjects.NodeID) (*entities.ContextLink, error) {
	return r.reads.GetByPair(ctx, sourceID, targetID)
}

func (r *txLinkRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.ContextLink, error) {
	return r.reads.GetByBoardID(ctx, boardID)
}

func (r *txLinkRepository) GetByNodeID(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.ContextLink, error) {
	return r.reads.GetByNodeID(ctx, nodeID)
}

func (r *txLinkRepository) Delete(ctx context.Context, id valueobjects.LinkID) error {
	link, err := r.reads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return r.uow.stageDelete(
		nodePK(link.BoardID().String()),
		linkSK(link.SourceID().String(), link.TargetID().String()),
	)
}

// txMessageRepository stages message writes; reads see the live table
type txMessageRepository struct {
	uow   *UnitOfWork
	reads *MessageRepository
}

func (r *txMessageRepository) Save(ctx context.Context, message *entities.Message) error {
	return r.uow.stagePut(newMessageItem(message), "")
}

func (r *txMessageRepository) GetByID(ctx context.Context, id valueobjects.MessageID) (*entities.Message, error) {
	return r.reads.GetByID(ctx, id)
}

func (r *txMessageRepository) GetByBlockID(ctx context.Context, blockID valueobjects.NodeID) ([]*entities.Message, error) {
	return r.reads.GetByBlockID(ctx, blockID)
}

func (r *txMessageRepository) GetByIDs(ctx context.Context, ids []valueobjects.MessageID) ([]*entities.Message, error) {
	return r.reads.GetByIDs(ctx, ids)
}

func (r *txMessageRepository) DeleteByBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	messages, err := r.reads.GetByBlockID(ctx, blockID)
	if err != nil {
		return err
	}
	for _, message := range messages {
		if err := r.uow.stageDelete(
			messagePK(blockID.String()),
			messageSK(message.CreatedAt(), message.ID().String()),
		); err != nil {
			return err
		}
	}
	return nil
}

// txQuoteRepository stages quote writes
type txQuoteRepository struct {
	uow *UnitOfWork
}

func (r *txQuoteRepository) Save(ctx context.Context, quote *entities.QuoteLink) error {
	return r.uow.stagePut(newQuoteItem(quote), "")
}

func (r *txQuoteRepository) GetByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) (*entities.QuoteLink, error) {
	return NewQuoteRepository(r.uow.client, r.uow.tableName, r.uow.logger).GetByTargetBlockID(ctx, blockID)
}

func (r *txQuoteRepository) DeleteByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	return r.uow.stageDelete(messagePK(blockID.String()), "QUOTE")
}

// UnitOfWorkFactory creates DynamoDB-backed units of work
type UnitOfWorkFactory struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

var _ ports.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)

// NewUnitOfWorkFactory creates a factory bound to one table
func NewUnitOfWorkFactory(client *dynamodb.Client, tableName string, logger *zap.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (f *UnitOfWorkFactory) New() ports.UnitOfWork {
	return NewUnitOfWork(f.client, f.tableName, f.logger)
}
