package services

import (
	"context"
	"testing"

	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/infrastructure/persistence/memory"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type linkFixture struct {
	store    *memory.Store
	nodeRepo *memory.NodeRepository
	linkRepo *memory.LinkRepository
	service  *LinkService
	boardID  valueobjects.BoardID
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()
	store := memory.NewStore()
	nodeRepo := memory.NewNodeRepository(store)
	linkRepo := memory.NewLinkRepository(store)
	return &linkFixture{
		store:    store,
		nodeRepo: nodeRepo,
		linkRepo: linkRepo,
		service:  NewLinkService(nodeRepo, linkRepo, nil, nil, zap.NewNop()),
		boardID:  valueobjects.NewBoardID(),
	}
}

func (f *linkFixture) chatBlock(t *testing.T) *entities.Node {
	t.Helper()
	node, err := entities.NewChatBlock(f.boardID, "user-1", "block", "test-model", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), node))
	return node
}

func (f *linkFixture) imageNode(t *testing.T) *entities.Node {
	t.Helper()
	node, err := entities.NewImageNode(f.boardID, "user-1", "https://example.com/a.png", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), node))
	return node
}

func (f *linkFixture) stickyNote(t *testing.T) *entities.Node {
	t.Helper()
	node, err := entities.NewStickyNote(f.boardID, "user-1", "remember this", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), node))
	return node
}

func (f *linkFixture) link(t *testing.T, src, dst *entities.Node) *entities.ContextLink {
	t.Helper()
	result, err := f.service.CreateLink(context.Background(), f.boardID, src.ID(), dst.ID(), "", "")
	require.NoError(t, err)
	require.True(t, result.Created)
	return result.Link
}

func TestLinkService_CreateLink_Success(t *testing.T) {
	f := newLinkFixture(t)
	src := f.chatBlock(t)
	dst := f.chatBlock(t)

	result, err := f.service.CreateLink(context.Background(), f.boardID, src.ID(), dst.ID(), "out", "in")

	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.True(t, result.Link.SourceID().Equals(src.ID()))
	assert.True(t, result.Link.TargetID().Equals(dst.ID()))
	assert.Equal(t, "out", result.Link.SourceHandle())
	assert.Equal(t, "in", result.Link.TargetHandle())
}

func TestLinkService_CreateLink_DuplicatePairIsIdempotent(t *testing.T) {
	f := newLinkFixture(t)
	src := f.chatBlock(t)
	dst := f.chatBlock(t)

	first := f.link(t, src, dst)

	second, err := f.service.CreateLink(context.Background(), f.boardID, src.ID(), dst.ID(), "", "")

	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.True(t, second.Link.ID().Equals(first.ID()), "duplicate create must return the stored link")
}

func TestLinkService_CreateLink_RejectsSelfLoop(t *testing.T) {
	f := newLinkFixture(t)
	block := f.chatBlock(t)

	_, err := f.service.CreateLink(context.Background(), f.boardID, block.ID(), block.ID(), "", "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCycleRejected(err))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeSelfLink))
}

func TestLinkService_CreateLink_RejectsCycle(t *testing.T) {
	f := newLinkFixture(t)
	a := f.chatBlock(t)
	b := f.chatBlock(t)
	c := f.chatBlock(t)
	f.link(t, a, b)
	f.link(t, b, c)

	_, err := f.service.CreateLink(context.Background(), f.boardID, c.ID(), a.ID(), "", "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCycleRejected(err))
}

func TestLinkService_CreateLink_RejectsCrossBoard(t *testing.T) {
	f := newLinkFixture(t)
	src := f.chatBlock(t)

	otherBoard := valueobjects.NewBoardID()
	foreign, err := entities.NewChatBlock(otherBoard, "user-1", "other", "test-model", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), foreign))

	_, err = f.service.CreateLink(context.Background(), f.boardID, src.ID(), foreign.ID(), "", "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCrossBoardLink(err))
}

func TestLinkService_CreateLink_RejectsNonChatBlockTarget(t *testing.T) {
	f := newLinkFixture(t)
	src := f.chatBlock(t)
	note := f.stickyNote(t)

	_, err := f.service.CreateLink(context.Background(), f.boardID, src.ID(), note.ID(), "", "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestLinkService_CreateLink_MissingEndpoint(t *testing.T) {
	f := newLinkFixture(t)
	src := f.chatBlock(t)

	_, err := f.service.CreateLink(context.Background(), f.boardID, src.ID(), valueobjects.NewNodeID(), "", "")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLinkService_CreateLink_StickySourceBypassesCycleGuard(t *testing.T) {
	f := newLinkFixture(t)
	note := f.stickyNote(t)
	a := f.chatBlock(t)
	b := f.chatBlock(t)
	f.link(t, a, b)

	// Sticky notes never receive edges, so note -> a cannot close a cycle
	result, err := f.service.CreateLink(context.Background(), f.boardID, note.ID(), a.ID(), "", "")

	require.NoError(t, err)
	assert.True(t, result.Created)
}

func TestLinkService_CreateLink_ImageSourceSetsAttachmentFlag(t *testing.T) {
	f := newLinkFixture(t)
	img := f.imageNode(t)
	block := f.chatBlock(t)

	f.link(t, img, block)

	updated, err := f.nodeRepo.GetByID(context.Background(), block.ID())
	require.NoError(t, err)
	assert.True(t, updated.HasAttachedImage())
}

func TestLinkService_DeleteLink_ClearsAttachmentFlagWithLastImageEdge(t *testing.T) {
	f := newLinkFixture(t)
	img := f.imageNode(t)
	block := f.chatBlock(t)
	link := f.link(t, img, block)

	require.NoError(t, f.service.DeleteLink(context.Background(), f.boardID, link.ID()))

	updated, err := f.nodeRepo.GetByID(context.Background(), block.ID())
	require.NoError(t, err)
	assert.False(t, updated.HasAttachedImage())
}

func TestLinkService_DeleteLink_KeepsFlagWhileAnotherImageFeedsTarget(t *testing.T) {
	f := newLinkFixture(t)
	img1 := f.imageNode(t)
	img2 := f.imageNode(t)
	block := f.chatBlock(t)
	first := f.link(t, img1, block)
	f.link(t, img2, block)

	require.NoError(t, f.service.DeleteLink(context.Background(), f.boardID, first.ID()))

	updated, err := f.nodeRepo.GetByID(context.Background(), block.ID())
	require.NoError(t, err)
	assert.True(t, updated.HasAttachedImage())
}

func TestLinkService_DeleteLink_UnknownLink(t *testing.T) {
	f := newLinkFixture(t)

	err := f.service.DeleteLink(context.Background(), f.boardID, valueobjects.NewLinkID())

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLinkService_DeleteLink_WrongBoardLooksMissing(t *testing.T) {
	f := newLinkFixture(t)
	src := f.chatBlock(t)
	dst := f.chatBlock(t)
	link := f.link(t, src, dst)

	err := f.service.DeleteLink(context.Background(), valueobjects.NewBoardID(), link.ID())

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestLinkService_Ancestors(t *testing.T) {
	f := newLinkFixture(t)
	a := f.chatBlock(t)
	b := f.chatBlock(t)
	c := f.chatBlock(t)
	note := f.stickyNote(t)
	f.link(t, a, b)
	f.link(t, b, c)
	f.link(t, note, c)

	ancestors, err := f.service.Ancestors(context.Background(), f.boardID, c.ID())

	require.NoError(t, err)
	require.Len(t, ancestors, 3)

	seen := make(map[string]bool)
	for _, id := range ancestors {
		seen[id.String()] = true
	}
	assert.True(t, seen[a.ID().String()])
	assert.True(t, seen[b.ID().String()])
	assert.True(t, seen[note.ID().String()])
}

func TestLinkService_Ancestors_UnknownNode(t *testing.T) {
	f := newLinkFixture(t)

	_, err := f.service.Ancestors(context.Background(), f.boardID, valueobjects.NewNodeID())

	assert.True(t, pkgerrors.IsNotFound(err))
}
