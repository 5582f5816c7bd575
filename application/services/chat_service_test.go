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

type chatFixture struct {
	store       *memory.Store
	nodeRepo    *memory.NodeRepository
	messageRepo *memory.MessageRepository
	quoteRepo   *memory.QuoteRepository
	service     *ChatService
	boardID     valueobjects.BoardID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	store := memory.NewStore()
	nodeRepo := memory.NewNodeRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	quoteRepo := memory.NewQuoteRepository(store)
	return &chatFixture{
		store:       store,
		nodeRepo:    nodeRepo,
		messageRepo: messageRepo,
		quoteRepo:   quoteRepo,
		service:     NewChatService(nodeRepo, messageRepo, quoteRepo, nil, zap.NewNop()),
		boardID:     valueobjects.NewBoardID(),
	}
}

func (f *chatFixture) chatBlock(t *testing.T, model string) *entities.Node {
	t.Helper()
	node, err := entities.NewChatBlock(f.boardID, "user-1", "block", model, valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), node))
	return node
}

func TestChatService_AppendMessage_AndHistoryOrder(t *testing.T) {
	f := newChatFixture(t)
	block := f.chatBlock(t, "test-model")

	first, err := f.service.AppendMessage(context.Background(), block.ID(), entities.RoleUser, "hello", "")
	require.NoError(t, err)
	_, err = f.service.AppendMessage(context.Background(), block.ID(), entities.RoleAssistant, "hi there", "")
	require.NoError(t, err)

	history, err := f.service.GetHistory(context.Background(), block.ID())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].ID().Equals(first.ID()))
	assert.Equal(t, entities.RoleAssistant, history[1].Role())
}

func TestChatService_AppendMessage_RejectsNonChatBlock(t *testing.T) {
	f := newChatFixture(t)
	note, err := entities.NewStickyNote(f.boardID, "user-1", "text", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), note))

	_, err = f.service.AppendMessage(context.Background(), note.ID(), entities.RoleUser, "hello", "")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestChatService_AppendMessage_UnknownBlock(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.AppendMessage(context.Background(), valueobjects.NewNodeID(), entities.RoleUser, "hello", "")

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestChatService_AssemblePrompt_OrdersInheritedBeforeVisible(t *testing.T) {
	f := newChatFixture(t)
	parent := f.chatBlock(t, "test-model")

	a1, err := f.service.AppendMessage(context.Background(), parent.ID(), entities.RoleUser, "inherited question", "")
	require.NoError(t, err)
	a2, err := f.service.AppendMessage(context.Background(), parent.ID(), entities.RoleAssistant, "inherited answer", "")
	require.NoError(t, err)

	inherited := valueobjects.NewContextListFromIDs([]valueobjects.MessageID{a1.ID(), a2.ID()})
	child, err := entities.NewBranchBlock(f.boardID, "user-1", "branch", "branch-model", valueobjects.NewPosition(1, 1), parent.ID(), inherited)
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), child))

	_, err = f.service.AppendMessage(context.Background(), child.ID(), entities.RoleUser, "own question", "")
	require.NoError(t, err)

	payload, err := f.service.AssemblePrompt(context.Background(), child.ID())

	require.NoError(t, err)
	assert.Equal(t, "branch-model", payload.Model)
	require.Len(t, payload.Turns, 3)
	assert.Equal(t, PromptTurn{Role: "user", Content: "inherited question"}, payload.Turns[0])
	assert.Equal(t, PromptTurn{Role: "assistant", Content: "inherited answer"}, payload.Turns[1])
	assert.Equal(t, PromptTurn{Role: "user", Content: "own question"}, payload.Turns[2])
}

func TestChatService_AssemblePrompt_QuoteBecomesSystemNote(t *testing.T) {
	f := newChatFixture(t)
	parent := f.chatBlock(t, "test-model")
	src, err := f.service.AppendMessage(context.Background(), parent.ID(), entities.RoleAssistant, "the highlighted passage lives here", "")
	require.NoError(t, err)

	child, err := entities.NewBranchBlock(f.boardID, "user-1", "branch", "test-model", valueobjects.NewPosition(1, 1), parent.ID(),
		valueobjects.NewContextListFromIDs([]valueobjects.MessageID{src.ID()}))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), child))

	span, err := valueobjects.NewQuoteSpan(4, 23, "highlighted passage")
	require.NoError(t, err)
	quote, err := entities.NewQuoteLink(src.ID(), child.ID(), span)
	require.NoError(t, err)
	require.NoError(t, f.quoteRepo.Save(context.Background(), quote))

	payload, err := f.service.AssemblePrompt(context.Background(), child.ID())

	require.NoError(t, err)
	assert.Contains(t, payload.System, "highlighted passage")
}

func TestChatService_AssemblePrompt_NoQuoteMeansNoSystemNote(t *testing.T) {
	f := newChatFixture(t)
	block := f.chatBlock(t, "test-model")

	payload, err := f.service.AssemblePrompt(context.Background(), block.ID())

	require.NoError(t, err)
	assert.Empty(t, payload.System)
	assert.Empty(t, payload.Turns)
}

func TestChatService_AssemblePrompt_SkipsDeletedInheritedMessages(t *testing.T) {
	f := newChatFixture(t)
	parent := f.chatBlock(t, "test-model")
	kept, err := f.service.AppendMessage(context.Background(), parent.ID(), entities.RoleUser, "still here", "")
	require.NoError(t, err)

	// The second identifier resolves to nothing
	inherited := valueobjects.NewContextListFromIDs([]valueobjects.MessageID{kept.ID(), valueobjects.NewMessageID()})
	child, err := entities.NewBranchBlock(f.boardID, "user-1", "branch", "test-model", valueobjects.NewPosition(1, 1), parent.ID(), inherited)
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), child))

	payload, err := f.service.AssemblePrompt(context.Background(), child.ID())

	require.NoError(t, err)
	require.Len(t, payload.Turns, 1)
	assert.Equal(t, "still here", payload.Turns[0].Content)
}

func TestChatService_AssemblePrompt_RejectsNonChatBlock(t *testing.T) {
	f := newChatFixture(t)
	img, err := entities.NewImageNode(f.boardID, "user-1", "https://example.com/a.png", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), img))

	_, err = f.service.AssemblePrompt(context.Background(), img.ID())

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}
