package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"tangent-backend/application/services"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/infrastructure/persistence/memory"
	"tangent-backend/pkg/auth"
	pkgerrors "tangent-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type branchHandlerFixture struct {
	handler *BranchHandler
	nodes   *services.NodeService
	chat    *services.ChatService
	boardID valueobjects.BoardID
	userID  string
}

func newBranchHandlerFixture(t *testing.T) *branchHandlerFixture {
	t.Helper()
	store := memory.NewStore()
	boardRepo := memory.NewBoardRepository(store)
	nodeRepo := memory.NewNodeRepository(store)
	linkRepo := memory.NewLinkRepository(store)
	messageRepo := memory.NewMessageRepository(store)
	quoteRepo := memory.NewQuoteRepository(store)
	uowFactory := memory.NewUnitOfWorkFactory(store)
	logger := zap.NewNop()

	nodeService := services.NewNodeService(nodeRepo, linkRepo, messageRepo, quoteRepo, uowFactory, nil, nil, logger)
	boardService := services.NewBoardService(boardRepo, nodeRepo, nodeService, nil, logger)
	branchService := services.NewBranchService(nodeRepo, messageRepo, uowFactory, nil, nil, logger)
	chatService := services.NewChatService(nodeRepo, messageRepo, quoteRepo, nil, logger)

	const userID = "user-1"
	board, err := boardService.CreateBoard(context.Background(), userID, "canvas")
	require.NoError(t, err)

	return &branchHandlerFixture{
		handler: NewBranchHandler(branchService, boardService,
			pkgerrors.NewErrorHandler(logger, true), logger),
		nodes:   nodeService,
		chat:    chatService,
		boardID: board.ID(),
		userID:  userID,
	}
}

// post sends the body through the handler with the routing and auth
// context the middleware stack would normally install.
func (f *branchHandlerFixture) post(t *testing.T, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/boards/%s/branches", f.boardID), bytes.NewReader(raw))

	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("boardID", f.boardID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = auth.WithUser(ctx, &auth.UserContext{UserID: f.userID})

	rec := httptest.NewRecorder()
	f.handler.CreateBranch(rec, req.WithContext(ctx))
	return rec
}

func TestBranchHandler_NoSourceMessageSucceedsWithEmptyProvenance(t *testing.T) {
	f := newBranchHandlerFixture(t)
	ctx := context.Background()

	parent, err := f.nodes.CreateNode(ctx, services.CreateNodeRequest{
		BoardID: f.boardID, UserID: f.userID,
		Kind: entities.KindChatBlock, Title: "main", Model: "m",
	})
	require.NoError(t, err)
	_, err = f.chat.AppendMessage(ctx, parent.ID(), entities.RoleUser, "hello", "")
	require.NoError(t, err)

	rec := f.post(t, map[string]interface{}{
		"parent_block_id": parent.ID().String(),
		"title":           "tangent",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			ID               string   `json:"id"`
			ParentID         string   `json:"parent_id"`
			InheritedContext []string `json:"inherited_context"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Success)
	assert.Equal(t, parent.ID().String(), envelope.Data.ParentID)

	// No resolvable fork point: the full history is inherited and no
	// quote is recorded.
	branchID, err := valueobjects.NewNodeIDFromString(envelope.Data.ID)
	require.NoError(t, err)
	branch, err := f.nodes.GetNode(ctx, branchID)
	require.NoError(t, err)
	assert.Equal(t, 1, branch.InheritedContext().Len())

	payload, err := f.chat.AssemblePrompt(ctx, branchID)
	require.NoError(t, err)
	assert.Empty(t, payload.System)
}

func TestBranchHandler_MalformedSourceMessageIDRejected(t *testing.T) {
	f := newBranchHandlerFixture(t)

	parent, err := f.nodes.CreateNode(context.Background(), services.CreateNodeRequest{
		BoardID: f.boardID, UserID: f.userID,
		Kind: entities.KindChatBlock, Title: "main", Model: "m",
	})
	require.NoError(t, err)

	rec := f.post(t, map[string]interface{}{
		"parent_block_id":   parent.ID().String(),
		"source_message_id": "not-a-uuid",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
