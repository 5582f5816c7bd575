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

type branchFixture struct {
	store       *memory.Store
	nodeRepo    *memory.NodeRepository
	messageRepo *memory.MessageRepository
	quoteRepo   *memory.QuoteRepository
	service     *BranchService
	boardID     valueobjects.BoardID
}

func newBranchFixture(t *testing.T) *branchFixture {
	t.Helper()
	store := memory.NewStore()
	nodeRepo := memory.NewNodeRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	return &branchFixture{
		store:       store,
		nodeRepo:    nodeRepo,
		messageRepo: messageRepo,
		quoteRepo:   memory.NewQuoteRepository(store),
		service: NewBranchService(
			nodeRepo,
			messageRepo,
			memory.NewUnitOfWorkFactory(store),
			nil,
			nil,
			zap.NewNop(),
		),
		boardID: valueobjects.NewBoardID(),
	}
}

func (f *branchFixture) parentBlock(t *testing.T) *entities.Node {
	t.Helper()
	node, err := entities.NewChatBlock(f.boardID, "user-1", "parent", "test-model", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), node))
	return node
}

func (f *branchFixture) say(t *testing.T, blockID valueobjects.NodeID, role entities.MessageRole, content string) *entities.Message {
	t.Helper()
	msg, err := entities.NewMessage(blockID, role, content, "")
	require.NoError(t, err)
	require.NoError(t, f.messageRepo.Save(context.Background(), msg))
	return msg
}

func (f *branchFixture) request(parent *entities.Node, source valueobjects.MessageID) BranchRequest {
	return BranchRequest{
		BoardID:         f.boardID,
		ParentBlockID:   parent.ID(),
		SourceMessageID: source,
		QuoteStart:      0,
		QuoteEnd:        5,
		QuoteText:       "hello",
		Title:           "branch",
		Position:        valueobjects.NewPosition(10, 10),
		UserID:          "user-1",
	}
}

func TestBranchService_CreateBranch_InheritsVisibleHistory(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleUser, "q1")
	m2 := f.say(t, parent.ID(), entities.RoleAssistant, "a1")
	f.say(t, parent.ID(), entities.RoleUser, "q2")

	child, err := f.service.CreateBranch(context.Background(), f.request(parent, m2.ID()))

	require.NoError(t, err)
	assert.True(t, child.ParentID().Equals(parent.ID()))
	assert.Equal(t, []string{m1.ID().String(), m2.ID().String()}, child.InheritedContext().Strings())
}

func TestBranchService_CreateBranch_UserTurnPullsItsAnswer(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleUser, "q1")
	m2 := f.say(t, parent.ID(), entities.RoleAssistant, "a1")
	f.say(t, parent.ID(), entities.RoleUser, "q2")

	// Forking from the question includes the assistant's reply too
	child, err := f.service.CreateBranch(context.Background(), f.request(parent, m1.ID()))

	require.NoError(t, err)
	assert.Equal(t, []string{m1.ID().String(), m2.ID().String()}, child.InheritedContext().Strings())
}

func TestBranchService_CreateBranch_TrailingUserTurnHasNoAnswerToPull(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleUser, "q1")

	child, err := f.service.CreateBranch(context.Background(), f.request(parent, m1.ID()))

	require.NoError(t, err)
	assert.Equal(t, []string{m1.ID().String()}, child.InheritedContext().Strings())
}

func TestBranchService_CreateBranch_UnresolvableSourceTakesFullHistory(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleUser, "q1")
	m2 := f.say(t, parent.ID(), entities.RoleAssistant, "a1")

	child, err := f.service.CreateBranch(context.Background(), f.request(parent, valueobjects.NewMessageID()))

	require.NoError(t, err)
	assert.Equal(t, []string{m1.ID().String(), m2.ID().String()}, child.InheritedContext().Strings())

	// No fork message resolved, so no provenance either
	_, err = f.quoteRepo.GetByTargetBlockID(context.Background(), child.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestBranchService_CreateBranch_GrandchildContextAppearsOnce(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleUser, "q1")
	m2 := f.say(t, parent.ID(), entities.RoleAssistant, "a1")

	child, err := f.service.CreateBranch(context.Background(), f.request(parent, m2.ID()))
	require.NoError(t, err)

	c1 := f.say(t, child.ID(), entities.RoleUser, "follow-up")
	c2 := f.say(t, child.ID(), entities.RoleAssistant, "reply")

	grandchild, err := f.service.CreateBranch(context.Background(), f.request(child, c2.ID()))
	require.NoError(t, err)

	assert.Equal(t,
		[]string{m1.ID().String(), m2.ID().String(), c1.ID().String(), c2.ID().String()},
		grandchild.InheritedContext().Strings(),
	)
}

func TestBranchService_CreateBranch_PersistsQuoteAndPrompt(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleAssistant, "a long answer about hello")

	req := f.request(parent, m1.ID())
	req.Prompt = "tell me more"

	child, err := f.service.CreateBranch(context.Background(), req)
	require.NoError(t, err)

	quote, err := f.quoteRepo.GetByTargetBlockID(context.Background(), child.ID())
	require.NoError(t, err)
	assert.True(t, quote.SourceMessageID().Equals(m1.ID()))
	assert.Equal(t, "hello", quote.Span().Text())

	history, err := f.messageRepo.GetByBlockID(context.Background(), child.ID())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entities.RoleUser, history[0].Role())
	assert.Equal(t, "tell me more", history[0].Content())
}

func TestBranchService_CreateBranch_InheritsParentModelWhenUnset(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)
	m1 := f.say(t, parent.ID(), entities.RoleAssistant, "a1")

	req := f.request(parent, m1.ID())
	req.Model = ""

	child, err := f.service.CreateBranch(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, parent.Model(), child.Model())
}

func TestBranchService_CreateBranch_RejectsNonChatParent(t *testing.T) {
	f := newBranchFixture(t)
	note, err := entities.NewStickyNote(f.boardID, "user-1", "text", valueobjects.NewPosition(0, 0))
	require.NoError(t, err)
	require.NoError(t, f.nodeRepo.Save(context.Background(), note))

	_, err = f.service.CreateBranch(context.Background(), f.request(note, valueobjects.MessageID{}))

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestBranchService_CreateBranch_ParentOnOtherBoardLooksMissing(t *testing.T) {
	f := newBranchFixture(t)
	parent := f.parentBlock(t)

	req := f.request(parent, valueobjects.MessageID{})
	req.BoardID = valueobjects.NewBoardID()

	_, err := f.service.CreateBranch(context.Background(), req)

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestVisibleUpToFork_AssistantTurnCutsAfterItself(t *testing.T) {
	blockID := valueobjects.NewNodeID()
	m1, _ := entities.NewMessage(blockID, entities.RoleUser, "q1", "")
	m2, _ := entities.NewMessage(blockID, entities.RoleAssistant, "a1", "")
	m3, _ := entities.NewMessage(blockID, entities.RoleUser, "q2", "")
	history := []*entities.Message{m1, m2, m3}

	visible, fork := visibleUpToFork(history, m2.ID())

	require.NotNil(t, fork)
	assert.True(t, fork.ID().Equals(m2.ID()))
	require.Len(t, visible, 2)
	assert.True(t, visible[0].Equals(m1.ID()))
	assert.True(t, visible[1].Equals(m2.ID()))
}

func TestVisibleUpToFork_ConsecutiveUserTurnsDoNotPair(t *testing.T) {
	blockID := valueobjects.NewNodeID()
	m1, _ := entities.NewMessage(blockID, entities.RoleUser, "q1", "")
	m2, _ := entities.NewMessage(blockID, entities.RoleUser, "q2", "")
	history := []*entities.Message{m1, m2}

	visible, fork := visibleUpToFork(history, m1.ID())

	require.NotNil(t, fork)
	require.Len(t, visible, 1)
	assert.True(t, visible[0].Equals(m1.ID()))
}
