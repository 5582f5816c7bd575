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

type nodeFixture struct {
	store       *memory.Store
	nodeRepo    *memory.NodeRepository
	linkRepo    *memory.LinkRepository
	messageRepo *memory.MessageRepository
	quoteRepo   *memory.QuoteRepository
	nodes       *NodeService
	links       *LinkService
	boardID     valueobjects.BoardID
}

func newNodeFixture(t *testing.T) *nodeFixture {
	t.Helper()
	store := memory.NewStore()
	nodeRepo := memory.NewNodeRepository(store)
	linkRepo := memory.NewLinkRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	quoteRepo := memory.NewQuoteRepository(store)
	logger := zap.NewNop()
	return &nodeFixture{
		store:       store,
		nodeRepo:    nodeRepo,
		linkRepo:    linkRepo,
		messageRepo: messageRepo,
		quoteRepo:   quoteRepo,
		nodes: NewNodeService(nodeRepo, linkRepo, messageRepo, quoteRepo,
			memory.NewUnitOfWorkFactory(store), nil, nil, logger),
		links:   NewLinkService(nodeRepo, linkRepo, nil, nil, logger),
		boardID: valueobjects.NewBoardID(),
	}
}

func (f *nodeFixture) create(t *testing.T, req CreateNodeRequest) *entities.Node {
	t.Helper()
	req.BoardID = f.boardID
	req.UserID = "user-1"
	node, err := f.nodes.CreateNode(context.Background(), req)
	require.NoError(t, err)
	return node
}

func TestNodeService_CreateNode_Kinds(t *testing.T) {
	f := newNodeFixture(t)

	chat := f.create(t, CreateNodeRequest{Kind: entities.KindChatBlock, Title: "chat", Model: "m"})
	img := f.create(t, CreateNodeRequest{Kind: entities.KindImage, ImageURL: "https://example.com/a.png"})
	note := f.create(t, CreateNodeRequest{Kind: entities.KindStickyNote, NoteText: "note"})

	assert.True(t, chat.IsChatBlock())
	assert.Equal(t, entities.KindImage, img.Kind())
	assert.Equal(t, entities.KindStickyNote, note.Kind())

	all, err := f.nodes.ListBoardNodes(context.Background(), f.boardID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestNodeService_CreateNode_UnknownKind(t *testing.T) {
	f := newNodeFixture(t)

	_, err := f.nodes.CreateNode(context.Background(), CreateNodeRequest{
		BoardID: f.boardID,
		UserID:  "user-1",
		Kind:    entities.NodeKind("hologram"),
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNodeService_MoveNode(t *testing.T) {
	f := newNodeFixture(t)
	node := f.create(t, CreateNodeRequest{Kind: entities.KindStickyNote, NoteText: "note"})

	require.NoError(t, f.nodes.MoveNode(context.Background(), node.ID(), valueobjects.NewPosition(42, -7)))

	moved, err := f.nodes.GetNode(context.Background(), node.ID())
	require.NoError(t, err)
	assert.Equal(t, 42.0, moved.Position().X)
	assert.Equal(t, -7.0, moved.Position().Y)
}

func TestNodeService_DeleteNode_CascadesLinksMessagesAndQuote(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	upstream := f.create(t, CreateNodeRequest{Kind: entities.KindChatBlock, Title: "up", Model: "m"})
	victim := f.create(t, CreateNodeRequest{Kind: entities.KindChatBlock, Title: "victim", Model: "m"})
	downstream := f.create(t, CreateNodeRequest{Kind: entities.KindChatBlock, Title: "down", Model: "m"})

	in, err := f.links.CreateLink(ctx, f.boardID, upstream.ID(), victim.ID(), "", "")
	require.NoError(t, err)
	out, err := f.links.CreateLink(ctx, f.boardID, victim.ID(), downstream.ID(), "", "")
	require.NoError(t, err)

	msg, err := entities.NewMessage(victim.ID(), entities.RoleUser, "hello", "")
	require.NoError(t, err)
	require.NoError(t, f.messageRepo.Save(ctx, msg))

	srcMsg, err := entities.NewMessage(upstream.ID(), entities.RoleAssistant, "origin", "")
	require.NoError(t, err)
	require.NoError(t, f.messageRepo.Save(ctx, srcMsg))
	span, err := valueobjects.NewQuoteSpan(0, 6, "origin")
	require.NoError(t, err)
	quote, err := entities.NewQuoteLink(srcMsg.ID(), victim.ID(), span)
	require.NoError(t, err)
	require.NoError(t, f.quoteRepo.Save(ctx, quote))

	require.NoError(t, f.nodes.DeleteNode(ctx, f.boardID, victim.ID()))

	_, err = f.nodes.GetNode(ctx, victim.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = f.linkRepo.GetByID(ctx, in.Link.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = f.linkRepo.GetByID(ctx, out.Link.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	history, err := f.messageRepo.GetByBlockID(ctx, victim.ID())
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.quoteRepo.GetByTargetBlockID(ctx, victim.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	// Neighbors survive link removal
	_, err = f.nodes.GetNode(ctx, upstream.ID())
	assert.NoError(t, err)
	_, err = f.nodes.GetNode(ctx, downstream.ID())
	assert.NoError(t, err)
}

func TestNodeService_DeleteNode_ImageSourceClearsAttachmentFlag(t *testing.T) {
	f := newNodeFixture(t)
	ctx := context.Background()

	img := f.create(t, CreateNodeRequest{Kind: entities.KindImage, ImageURL: "https://example.com/a.png"})
	block := f.create(t, CreateNodeRequest{Kind: entities.KindChatBlock, Title: "b", Model: "m"})
	_, err := f.links.CreateLink(ctx, f.boardID, img.ID(), block.ID(), "", "")
	require.NoError(t, err)

	attached, err := f.nodes.GetNode(ctx, block.ID())
	require.NoError(t, err)
	require.True(t, attached.HasAttachedImage())

	require.NoError(t, f.nodes.DeleteNode(ctx, f.boardID, img.ID()))

	cleared, err := f.nodes.GetNode(ctx, block.ID())
	require.NoError(t, err)
	assert.False(t, cleared.HasAttachedImage())
}

func TestNodeService_DeleteNode_WrongBoardLooksMissing(t *testing.T) {
	f := newNodeFixture(t)
	node := f.create(t, CreateNodeRequest{Kind: entities.KindStickyNote, NoteText: "note"})

	err := f.nodes.DeleteNode(context.Background(), valueobjects.NewBoardID(), node.ID())

	assert.True(t, pkgerrors.IsNotFound(err))
}
