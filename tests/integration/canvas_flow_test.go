package integration

import (
	"context"
	"testing"

	"tangent-backend/application/services"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/infrastructure/persistence/memory"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// env wires the full service stack over the in-memory store, the same
// assembly the API server uses with USE_MEMORY_STORE=true.
type env struct {
	boards   *services.BoardService
	nodes    *services.NodeService
	links    *services.LinkService
	branches *services.BranchService
	chat     *services.ChatService
}

func newEnv() *env {
	store := memory.NewStore()
	boardRepo := memory.NewBoardRepository(store)
	nodeRepo := memory.NewNodeRepository(store)
	linkRepo := memory.NewLinkRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	quoteRepo := memory.NewQuoteRepository(store)
	uowFactory := memory.NewUnitOfWorkFactory(store)
	logger := zap.NewNop()

	nodeService := services.NewNodeService(nodeRepo, linkRepo, messageRepo, quoteRepo, uowFactory, nil, nil, logger)
	return &env{
		boards:   services.NewBoardService(boardRepo, nodeRepo, nodeService, nil, logger),
		nodes:    nodeService,
		links:    services.NewLinkService(nodeRepo, linkRepo, nil, nil, logger),
		branches: services.NewBranchService(nodeRepo, messageRepo, uowFactory, nil, nil, logger),
		chat:     services.NewChatService(nodeRepo, messageRepo, quoteRepo, nil, logger),
	}
}

func TestCanvasFlow_BranchInheritsContextThroughLinks(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	const userID = "user-1"

	board, err := e.boards.CreateBoard(ctx, userID, "research")
	require.NoError(t, err)

	// A sticky note and a chat block feeding the main conversation
	note, err := e.nodes.CreateNode(ctx, services.CreateNodeRequest{
		BoardID: board.ID(), UserID: userID,
		Kind: entities.KindStickyNote, NoteText: "remember the deadline",
	})
	require.NoError(t, err)
	main, err := e.nodes.CreateNode(ctx, services.CreateNodeRequest{
		BoardID: board.ID(), UserID: userID,
		Kind: entities.KindChatBlock, Title: "main", Model: "gpt-4o",
	})
	require.NoError(t, err)

	_, err = e.links.CreateLink(ctx, board.ID(), note.ID(), main.ID(), "", "")
	require.NoError(t, err)

	q, err := e.chat.AppendMessage(ctx, main.ID(), entities.RoleUser, "summarize the findings", "")
	require.NoError(t, err)
	a, err := e.chat.AppendMessage(ctx, main.ID(), entities.RoleAssistant, "the findings show a clear trend", "")
	require.NoError(t, err)
	_, err = e.chat.AppendMessage(ctx, main.ID(), entities.RoleUser, "anything else?", "")
	require.NoError(t, err)

	// Branch off the assistant reply, quoting part of it
	branch, err := e.branches.CreateBranch(ctx, services.BranchRequest{
		BoardID:         board.ID(),
		ParentBlockID:   main.ID(),
		SourceMessageID: a.ID(),
		QuoteStart:      0,
		QuoteEnd:        12,
		QuoteText:       "the findings",
		Title:           "dig deeper",
		Prompt:          "expand on that trend",
		UserID:          userID,
	})
	require.NoError(t, err)
	assert.Equal(t, main.ID(), branch.ParentID())
	assert.Equal(t, "gpt-4o", branch.Model())

	// The branch inherits history up to the fork, not the trailing question
	inherited := branch.InheritedContext().IDs()
	require.Len(t, inherited, 2)
	assert.Equal(t, q.ID(), inherited[0])
	assert.Equal(t, a.ID(), inherited[1])

	payload, err := e.chat.AssemblePrompt(ctx, branch.ID())
	require.NoError(t, err)
	assert.Contains(t, payload.System, "the findings")
	require.Len(t, payload.Turns, 3)
	assert.Equal(t, "summarize the findings", payload.Turns[0].Content)
	assert.Equal(t, "the findings show a clear trend", payload.Turns[1].Content)
	assert.Equal(t, "expand on that trend", payload.Turns[2].Content)
}

func TestCanvasFlow_CycleGuardSpansServices(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	const userID = "user-1"

	board, err := e.boards.CreateBoard(ctx, userID, "loops")
	require.NoError(t, err)

	mk := func(title string) valueobjects.NodeID {
		node, err := e.nodes.CreateNode(ctx, services.CreateNodeRequest{
			BoardID: board.ID(), UserID: userID,
			Kind: entities.KindChatBlock, Title: title, Model: "m",
		})
		require.NoError(t, err)
		return node.ID()
	}
	a, b, c := mk("a"), mk("b"), mk("c")

	_, err = e.links.CreateLink(ctx, board.ID(), a, b, "", "")
	require.NoError(t, err)
	_, err = e.links.CreateLink(ctx, board.ID(), b, c, "", "")
	require.NoError(t, err)

	_, err = e.links.CreateLink(ctx, board.ID(), c, a, "", "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCycleRejected(err))

	ancestors, err := e.links.Ancestors(ctx, board.ID(), c)
	require.NoError(t, err)
	assert.ElementsMatch(t, []valueobjects.NodeID{a, b}, ancestors)

	// Deleting the middle node breaks the chain, empties the
	// downstream ancestor set, and frees the edge
	require.NoError(t, e.nodes.DeleteNode(ctx, board.ID(), b))

	ancestors, err = e.links.Ancestors(ctx, board.ID(), c)
	require.NoError(t, err)
	assert.Empty(t, ancestors)

	_, err = e.links.CreateLink(ctx, board.ID(), c, a, "", "")
	assert.NoError(t, err)
}

func TestCanvasFlow_BoardDeleteCascades(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	const userID = "user-1"

	board, err := e.boards.CreateBoard(ctx, userID, "scratch")
	require.NoError(t, err)
	block, err := e.nodes.CreateNode(ctx, services.CreateNodeRequest{
		BoardID: board.ID(), UserID: userID,
		Kind: entities.KindChatBlock, Title: "t", Model: "m",
	})
	require.NoError(t, err)
	_, err = e.chat.AppendMessage(ctx, block.ID(), entities.RoleUser, "hello", "")
	require.NoError(t, err)

	// Another user cannot touch the board
	err = e.boards.DeleteBoard(ctx, "intruder", board.ID())
	require.Error(t, err)

	require.NoError(t, e.boards.DeleteBoard(ctx, userID, board.ID()))

	_, err = e.boards.GetBoard(ctx, userID, board.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
	_, err = e.nodes.GetNode(ctx, block.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}
