package memory

import (
	"context"
	"testing"
	"time"

	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatBlock(t *testing.T, boardID valueobjects.BoardID) *entities.Node {
	t.Helper()
	node, err := entities.NewChatBlock(boardID, "user-1", "block", "model", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	return node
}

func newLink(t *testing.T, boardID valueobjects.BoardID, src, dst valueobjects.NodeID) *entities.ContextLink {
	t.Helper()
	link, err := entities.NewContextLink(boardID, src, dst, "", "")
	require.NoError(t, err)
	return link
}

func TestUnitOfWork_CommitAppliesStagedWrites(t *testing.T) {
	store := NewStore()
	boardID := valueobjects.NewBoardID()
	ctx := context.Background()

	a := newChatBlock(t, boardID)
	b := newChatBlock(t, boardID)
	link := newLink(t, boardID, a.ID(), b.ID())

	uow := NewUnitOfWork(store)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Nodes().Save(ctx, a))
	require.NoError(t, uow.Nodes().Save(ctx, b))
	require.NoError(t, uow.Links().Create(ctx, link))

	// Nothing visible until commit
	_, err := NewNodeRepository(store).GetByID(ctx, a.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	require.NoError(t, uow.Commit(ctx))

	got, err := NewNodeRepository(store).GetByID(ctx, a.ID())
	require.NoError(t, err)
	assert.Equal(t, a.ID(), got.ID())
	stored, err := NewLinkRepository(store).GetByPair(ctx, a.ID(), b.ID())
	require.NoError(t, err)
	assert.Equal(t, link.ID(), stored.ID())
}

func TestUnitOfWork_FailedCheckLeavesStoreUntouched(t *testing.T) {
	store := NewStore()
	boardID := valueobjects.NewBoardID()
	ctx := context.Background()

	a := newChatBlock(t, boardID)
	b := newChatBlock(t, boardID)
	nodeRepo := NewNodeRepository(store)
	require.NoError(t, nodeRepo.Save(ctx, a))
	require.NoError(t, nodeRepo.Save(ctx, b))
	existing := newLink(t, boardID, a.ID(), b.ID())
	require.NoError(t, NewLinkRepository(store).Create(ctx, existing))

	// Stage a node write and a conflicting link in the same transaction.
	// The pair check must fail and the node write must not land.
	c := newChatBlock(t, boardID)
	duplicate := newLink(t, boardID, a.ID(), b.ID())

	uow := NewUnitOfWork(store)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Nodes().Save(ctx, c))
	require.NoError(t, uow.Links().Create(ctx, duplicate))

	err := uow.Commit(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))

	_, err = nodeRepo.GetByID(ctx, c.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = NewLinkRepository(store).GetByID(ctx, duplicate.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUnitOfWork_RollbackDiscardsStagedWrites(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	node := newChatBlock(t, valueobjects.NewBoardID())

	uow := NewUnitOfWork(store)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Nodes().Save(ctx, node))
	require.NoError(t, uow.Rollback())

	_, err := NewNodeRepository(store).GetByID(ctx, node.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	// The instance is reusable after rollback
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Commit(ctx))
}

func TestUnitOfWork_BeginTwiceFails(t *testing.T) {
	uow := NewUnitOfWork(NewStore())
	require.NoError(t, uow.Begin(context.Background()))
	assert.Error(t, uow.Begin(context.Background()))
}

func TestUnitOfWork_CommitWithoutBeginFails(t *testing.T) {
	uow := NewUnitOfWork(NewStore())
	assert.Error(t, uow.Commit(context.Background()))
}

func TestUnitOfWork_DeleteCascadeIsAtomic(t *testing.T) {
	store := NewStore()
	boardID := valueobjects.NewBoardID()
	ctx := context.Background()

	block := newChatBlock(t, boardID)
	other := newChatBlock(t, boardID)
	require.NoError(t, NewNodeRepository(store).Save(ctx, block))
	require.NoError(t, NewNodeRepository(store).Save(ctx, other))
	link := newLink(t, boardID, other.ID(), block.ID())
	require.NoError(t, NewLinkRepository(store).Create(ctx, link))
	msg, err := entities.NewMessage(block.ID(), entities.RoleUser, "hi", "")
	require.NoError(t, err)
	require.NoError(t, NewMessageRepository(store).Save(ctx, msg))

	uow := NewUnitOfWork(store)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, uow.Links().Delete(ctx, link.ID()))
	require.NoError(t, uow.Messages().DeleteByBlockID(ctx, block.ID()))
	require.NoError(t, uow.Quotes().DeleteByTargetBlockID(ctx, block.ID()))
	require.NoError(t, uow.Nodes().Delete(ctx, block.ID()))
	require.NoError(t, uow.Commit(ctx))

	_, err = NewNodeRepository(store).GetByID(ctx, block.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = NewLinkRepository(store).GetByID(ctx, link.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = NewMessageRepository(store).GetByID(ctx, msg.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	// Deleting the pair entry frees it for a fresh link
	require.NoError(t, NewNodeRepository(store).Save(ctx, block))
	fresh := newLink(t, boardID, other.ID(), block.ID())
	assert.NoError(t, NewLinkRepository(store).Create(ctx, fresh))
}

func TestMessageRepository_HistoryIsChronological(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	blockID := valueobjects.NewNodeID()
	repo := NewMessageRepository(store)

	base := time.Now()
	later := entities.ReconstructMessage(valueobjects.NewMessageID(), blockID,
		entities.RoleAssistant, "second", "", base.Add(time.Minute))
	earlier := entities.ReconstructMessage(valueobjects.NewMessageID(), blockID,
		entities.RoleUser, "first", "", base)
	require.NoError(t, repo.Save(ctx, later))
	require.NoError(t, repo.Save(ctx, earlier))

	history, err := repo.GetByBlockID(ctx, blockID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].Content())
	assert.Equal(t, "second", history[1].Content())
}

func TestLinkRepository_PairUniqueness(t *testing.T) {
	store := NewStore()
	boardID := valueobjects.NewBoardID()
	ctx := context.Background()
	repo := NewLinkRepository(store)

	a := valueobjects.NewNodeID()
	b := valueobjects.NewNodeID()
	first := newLink(t, boardID, a, b)
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, newLink(t, boardID, a, b))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConflict(err))

	// The reverse direction is a different pair
	assert.NoError(t, repo.Create(ctx, newLink(t, boardID, b, a)))
}
