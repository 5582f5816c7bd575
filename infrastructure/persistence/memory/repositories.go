package memory

import (
	"context"

	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"
)

// BoardRepository is the in-memory board adapter
type BoardRepository struct {
	store *Store
}

// NewBoardRepository creates a board repository over the store
func NewBoardRepository(store *Store) *BoardRepository {
	return &BoardRepository{store: store}
}

func (r *BoardRepository) Save(ctx context.Context, board *aggregates.Board) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.boards[board.ID().String()] = board
	return nil
}

func (r *BoardRepository) GetByID(ctx context.Context, id valueobjects.BoardID) (*aggregates.Board, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	board, ok := r.store.boards[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("board")
	}
	return board, nil
}

func (r *BoardRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Board, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var boards []*aggregates.Board
	for _, b := range r.store.boards {
		if b.UserID() == userID {
			boards = append(boards, b)
		}
	}
	return boards, nil
}

func (r *BoardRepository) Delete(ctx context.Context, id valueobjects.BoardID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.boards[id.String()]; !ok {
		return pkgerrors.NewNotFoundError("board")
	}
	delete(r.store.boards, id.String())
	return nil
}

// NodeRepository is the in-memory node adapter
type NodeRepository struct {
	store *Store
}

// NewNodeRepository creates a node repository over the store
func NewNodeRepository(store *Store) *NodeRepository {
	return &NodeRepository{store: store}
}

func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nodes[node.ID().String()] = node
	return nil
}

func (r *NodeRepository) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	node, ok := r.store.nodes[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	return node, nil
}

func (r *NodeRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.Node, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var nodes []*entities.Node
	for _, n := range r.store.nodes {
		if n.BoardID().Equals(boardID) {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func (r *NodeRepository) Delete(ctx context.Context, id valueobjects.NodeID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.nodes[id.String()]; !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	delete(r.store.nodes, id.String())
	return nil
}

// LinkRepository is the in-memory link adapter. Pair uniqueness is
// enforced under the store lock, mirroring the conditional write the
// DynamoDB adapter relies on.
type LinkRepository struct {
	store *Store
}

// NewLinkRepository creates a link repository over the store
func NewLinkRepository(store *Store) *LinkRepository {
	return &LinkRepository{store: store}
}

func (r *LinkRepository) Create(ctx context.Context, link *entities.ContextLink) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := pairKey(link.SourceID().String(), link.TargetID().String())
	if _, exists := r.store.pairs[key]; exists {
		return pkgerrors.NewConflictError("link already exists for this pair")
	}

	r.store.links[link.ID().String()] = link
	r.store.pairs[key] = link.ID().String()
	return nil
}

func (r *LinkRepository) GetByID(ctx context.Context, id valueobjects.LinkID) (*entities.ContextLink, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	link, ok := r.store.links[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("link")
	}
	return link, nil
}

func (r *LinkRepository) GetByPair(ctx context.Context, sourceID, targetID valueobjects.NodeID) (*entities.ContextLink, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	linkID, ok := r.store.pairs[pairKey(sourceID.String(), targetID.String())]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("link")
	}
	return r.store.links[linkID], nil
}

func (r *LinkRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.ContextLink, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var links []*entities.ContextLink
	for _, l := range r.store.links {
		if l.BoardID().Equals(boardID) {
			links = append(links, l)
		}
	}
	return links, nil
}

func (r *LinkRepository) GetByNodeID(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.ContextLink, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var links []*entities.ContextLink
	for _, l := range r.store.links {
		if l.SourceID().Equals(nodeID) || l.TargetID().Equals(nodeID) {
			links = append(links, l)
		}
	}
	return links, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id valueobjects.LinkID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	link, ok := r.store.links[id.String()]
	if !ok {
		return pkgerrors.NewNotFoundError("link")
	}
	delete(r.store.links, id.String())
	delete(r.store.pairs, pairKey(link.SourceID().String(), link.TargetID().String()))
	return nil
}

// MessageRepository is the in-memory message adapter
type MessageRepository struct {
	store *Store
}

// NewMessageRepository creates a message repository over the store
func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

func (r *MessageRepository) Save(ctx context.Context, message *entities.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	blockKey := message.BlockID().String()
	r.store.messages[blockKey] = append(r.store.messages[blockKey], message)
	r.store.byMsgID[message.ID().String()] = message
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id valueobjects.MessageID) (*entities.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	message, ok := r.store.byMsgID[id.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("message")
	}
	return message, nil
}

func (r *MessageRepository) GetByBlockID(ctx context.Context, blockID valueobjects.NodeID) ([]*entities.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.sortedMessages(blockID.String()), nil
}

func (r *MessageRepository) GetByIDs(ctx context.Context, ids []valueobjects.MessageID) ([]*entities.Message, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	messages := make([]*entities.Message, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.store.byMsgID[id.String()]; ok {
			messages = append(messages, m)
		}
	}
	return messages, nil
}

func (r *MessageRepository) DeleteByBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.messages[blockID.String()] {
		delete(r.store.byMsgID, m.ID().String())
	}
	delete(r.store.messages, blockID.String())
	return nil
}

// QuoteRepository is the in-memory quote adapter
type QuoteRepository struct {
	store *Store
}

// NewQuoteRepository creates a quote repository over the store
func NewQuoteRepository(store *Store) *QuoteRepository {
	return &QuoteRepository{store: store}
}

func (r *QuoteRepository) Save(ctx context.Context, quote *entities.QuoteLink) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.quotes[quote.TargetBlockID().String()] = quote
	return nil
}

func (r *QuoteRepository) GetByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) (*entities.QuoteLink, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	quote, ok := r.store.quotes[blockID.String()]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("quote link")
	}
	return quote, nil
}

func (r *QuoteRepository) DeleteByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.quotes, blockID.String())
	return nil
}
