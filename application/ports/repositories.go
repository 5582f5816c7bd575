package ports

import (
	"context"

	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/domain/events"
)

// BoardRepository defines the interface for board persistence
type BoardRepository interface {
	// Save persists a board (create or update)
	Save(ctx context.Context, board *aggregates.Board) error

	// GetByID retrieves a board by its ID
	GetByID(ctx context.Context, id valueobjects.BoardID) (*aggregates.Board, error)

	// GetByUserID retrieves all boards for a user
	GetByUserID(ctx context.Context, userID string) ([]*aggregates.Board, error)

	// Delete removes a board
	Delete(ctx context.Context, id valueobjects.BoardID) error
}

// NodeRepository defines the interface for canvas node persistence
type NodeRepository interface {
	// Save persists a node (create or update)
	Save(ctx context.Context, node *entities.Node) error

	// GetByID retrieves a node by its ID
	GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error)

	// GetByBoardID retrieves all nodes on a board
	GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.Node, error)

	// Delete removes a node
	Delete(ctx context.Context, id valueobjects.NodeID) error
}

// LinkRepository defines the interface for context link persistence.
// Create must enforce the uniqueness of the ordered (source, target) pair
// at the storage layer; it is the final safety net against two concurrent
// creations both committing.
type LinkRepository interface {
	// Create persists a new link. Returns ErrDuplicateLink (a conflict
	// AppError) if the (source, target) pair already exists.
	Create(ctx context.Context, link *entities.ContextLink) error

	// GetByID retrieves a link by its ID
	GetByID(ctx context.Context, id valueobjects.LinkID) (*entities.ContextLink, error)

	// GetByPair retrieves the link for an ordered (source, target) pair
	GetByPair(ctx context.Context, sourceID, targetID valueobjects.NodeID) (*entities.ContextLink, error)

	// GetByBoardID retrieves every link on a board
	GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.ContextLink, error)

	// GetByNodeID retrieves every link where the node is source or target
	GetByNodeID(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.ContextLink, error)

	// Delete removes a link
	Delete(ctx context.Context, id valueobjects.LinkID) error
}

// MessageRepository defines the interface for message persistence
type MessageRepository interface {
	// Save persists a message
	Save(ctx context.Context, message *entities.Message) error

	// GetByID retrieves a message by its ID
	GetByID(ctx context.Context, id valueobjects.MessageID) (*entities.Message, error)

	// GetByBlockID retrieves a block's messages ordered by creation time
	GetByBlockID(ctx context.Context, blockID valueobjects.NodeID) ([]*entities.Message, error)

	// GetByIDs resolves identifiers to messages, preserving input order and
	// skipping identifiers that no longer resolve
	GetByIDs(ctx context.Context, ids []valueobjects.MessageID) ([]*entities.Message, error)

	// DeleteByBlockID removes every message a block owns
	DeleteByBlockID(ctx context.Context, blockID valueobjects.NodeID) error
}

// QuoteRepository defines the interface for branch provenance persistence
type QuoteRepository interface {
	// Save persists a quote link
	Save(ctx context.Context, quote *entities.QuoteLink) error

	// GetByTargetBlockID retrieves the provenance record for a branch
	GetByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) (*entities.QuoteLink, error)

	// DeleteByTargetBlockID removes a branch's provenance record
	DeleteByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) error
}

// UnitOfWork defines an all-or-nothing transaction boundary. Writes staged
// through the transactional repositories become visible only on Commit;
// Rollback (or a failed Commit) leaves no partial state behind.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits every staged write atomically
	Commit(ctx context.Context) error

	// Rollback discards the staged writes
	Rollback() error

	// Nodes returns the node repository for this transaction
	Nodes() NodeRepository

	// Links returns the link repository for this transaction
	Links() LinkRepository

	// Messages returns the message repository for this transaction
	Messages() MessageRepository

	// Quotes returns the quote repository for this transaction
	Quotes() QuoteRepository
}

// UnitOfWorkFactory creates a fresh unit of work per operation
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Broadcaster pushes canvas mutations to connected clients so their
// optimistic local state reconciles against the authoritative graph
type Broadcaster interface {
	// BroadcastToBoard delivers a payload to every client viewing a board
	BroadcastToBoard(ctx context.Context, boardID valueobjects.BoardID, payload []byte) error
}
