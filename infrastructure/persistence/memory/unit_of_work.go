package memory

import (
	"context"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"
)

// UnitOfWork stages writes and applies them under a single store lock on
// Commit. Validation runs first, so a conflicting staged write leaves the
// store untouched. Reads through the transactional repositories see the
// live store, not the staged writes.
type UnitOfWork struct {
	store  *Store
	active bool

	// checks run under the lock before any mutation is applied
	checks []func() error
	// mutations run under the same lock after every check passes
	mutations []func()

	nodes    *txNodeRepository
	links    *txLinkRepository
	messages *txMessageRepository
	quotes   *txQuoteRepository
}

// NewUnitOfWork creates a unit of work over the store
func NewUnitOfWork(store *Store) *UnitOfWork {
	uow := &UnitOfWork{store: store}
	uow.nodes = &txNodeRepository{uow: uow}
	uow.links = &txLinkRepository{uow: uow}
	uow.messages = &txMessageRepository{uow: uow}
	uow.quotes = &txQuoteRepository{uow: uow}
	return uow
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return pkgerrors.NewInternalError("transaction already active")
	}
	u.active = true
	u.checks = nil
	u.mutations = nil
	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.active {
		return pkgerrors.NewInternalError("no active transaction")
	}
	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	for _, check := range u.checks {
		if err := check(); err != nil {
			u.active = false
			return err
		}
	}
	for _, apply := range u.mutations {
		apply()
	}
	u.active = false
	return nil
}

func (u *UnitOfWork) Rollback() error {
	u.active = false
	u.checks = nil
	u.mutations = nil
	return nil
}

func (u *UnitOfWork) Nodes() ports.NodeRepository { return u.nodes }

func (u *UnitOfWork) Links() ports.LinkRepository { return u.links }

func (u *UnitOfWork) Messages() ports.MessageRepository { return u.messages }

func (u *UnitOfWork) Quotes() ports.QuoteRepository { return u.quotes }

// UnitOfWorkFactory creates memory-backed units of work
type UnitOfWorkFactory struct {
	store *Store
}

// NewUnitOfWorkFactory creates a factory over the store
func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) New() ports.UnitOfWork {
	return NewUnitOfWork(f.store)
}

// txNodeRepository stages node writes against the enclosing transaction
type txNodeRepository struct {
	uow *UnitOfWork
}

func (r *txNodeRepository) Save(ctx context.Context, node *entities.Node) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		store.nodes[node.ID().String()] = node
	})
	return nil
}

func (r *txNodeRepository) GetByID(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	return NewNodeRepository(r.uow.store).GetByID(ctx, id)
}

func (r *txNodeRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.Node, error) {
	return NewNodeRepository(r.uow.store).GetByBoardID(ctx, boardID)
}

func (r *txNodeRepository) Delete(ctx context.Context, id valueobjects.NodeID) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		delete(store.nodes, id.String())
	})
	return nil
}

// txLinkRepository stages link writes against the enclosing transaction
type txLinkRepository struct {
	uow *UnitOfWork
}

func (r *txLinkRepository) Create(ctx context.Context, link *entities.ContextLink) error {
	store := r.uow.store
	key := pairKey(link.SourceID().String(), link.TargetID().String())
	r.uow.checks = append(r.uow.checks, func() error {
		if _, exists := store.pairs[key]; exists {
			return pkgerrors.NewConflictError("link already exists for this pair")
		}
		return nil
	})
	r.uow.mutations = append(r.uow.mutations, func() {
		store.links[link.ID().String()] = link
		store.pairs[key] = link.ID().String()
	})
	return nil
}

func (r *txLinkRepository) GetByID(ctx context.Context, id valueobjects.LinkID) (*entities.ContextLink, error) {
	return NewLinkRepository(r.uow.store).GetByID(ctx, id)
}

func (r *txLinkRepository) GetByPair(ctx context.Context, sourceID, targetID valueobjects.NodeID) (*entities.ContextLink, error) {
	return NewLinkRepository(r.uow.store).GetByPair(ctx, sourceID, targetID)
}

func (r *txLinkRepository) GetByBoardID(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.ContextLink, error) {
	return NewLinkRepository(r.uow.store).GetByBoardID(ctx, boardID)
}

func (r *txLinkRepository) GetByNodeID(ctx context.Context, nodeID valueobjects.NodeID) ([]*entities.ContextLink, error) {
	return NewLinkRepository(r.uow.store).GetByNodeID(ctx, nodeID)
}

func (r *txLinkRepository) Delete(ctx context.Context, id valueobjects.LinkID) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		if link, ok := store.links[id.String()]; ok {
			delete(store.links, id.String())
			delete(store.pairs, pairKey(link.SourceID().String(), link.TargetID().String()))
		}
	})
	return nil
}

// txMessageRepository stages message writes against the enclosing transaction
type txMessageRepository struct {
	uow *UnitOfWork
}

func (r *txMessageRepository) Save(ctx context.Context, message *entities.Message) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		blockKey := message.BlockID().String()
		store.messages[blockKey] = append(store.messages[blockKey], message)
		store.byMsgID[message.ID().String()] = message
	})
	return nil
}

func (r *txMessageRepository) GetByID(ctx context.Context, id valueobjects.MessageID) (*entities.Message, error) {
	return NewMessageRepository(r.uow.store).GetByID(ctx, id)
}

func (r *txMessageRepository) GetByBlockID(ctx context.Context, blockID valueobjects.NodeID) ([]*entities.Message, error) {
	return NewMessageRepository(r.uow.store).GetByBlockID(ctx, blockID)
}

func (r *txMessageRepository) GetByIDs(ctx context.Context, ids []valueobjects.MessageID) ([]*entities.Message, error) {
	return NewMessageRepository(r.uow.store).GetByIDs(ctx, ids)
}

func (r *txMessageRepository) DeleteByBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		for _, m := range store.messages[blockID.String()] {
			delete(store.byMsgID, m.ID().String())
		}
		delete(store.messages, blockID.String())
	})
	return nil
}

// txQuoteRepository stages quote writes against the enclosing transaction
type txQuoteRepository struct {
	uow *UnitOfWork
}

func (r *txQuoteRepository) Save(ctx context.Context, quote *entities.QuoteLink) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		store.quotes[quote.TargetBlockID().String()] = quote
	})
	return nil
}

func (r *txQuoteRepository) GetByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) (*entities.QuoteLink, error) {
	return NewQuoteRepository(r.uow.store).GetByTargetBlockID(ctx, blockID)
}

func (r *txQuoteRepository) DeleteByTargetBlockID(ctx context.Context, blockID valueobjects.NodeID) error {
	store := r.uow.store
	r.uow.mutations = append(r.uow.mutations, func() {
		delete(store.quotes, blockID.String())
	})
	return nil
}
