package handlers

import (
	"encoding/json"
	"net/http"

	"tangent-backend/application/services"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/pkg/auth"
	"tangent-backend/pkg/common"
	pkgerrors "tangent-backend/pkg/errors"
	"tangent-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChatHandler handles conversation HTTP requests for chat blocks
type ChatHandler struct {
	chatService  *services.ChatService
	nodeService  *services.NodeService
	boardService *services.BoardService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService, nodeService *services.NodeService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService:  chatService,
		nodeService:  nodeService,
		boardService: boardService,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// AppendMessageRequest represents the request body for appending a turn
type AppendMessageRequest struct {
	Role          string `json:"role" validate:"required,oneof=user assistant"`
	Content       string `json:"content" validate:"required,max=100000"`
	HiddenContext string `json:"hidden_context,omitempty" validate:"omitempty,max=100000"`
}

// AppendMessage handles POST /boards/{boardID}/blocks/{blockID}/messages
func (h *ChatHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	var req AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	blockID, ok := h.authorizeBlock(w, r)
	if !ok {
		return
	}

	message, err := h.chatService.AppendMessage(r.Context(), blockID, entities.MessageRole(req.Role), req.Content, req.HiddenContext)
	if err != nil {
		h.logger.Error("failed to append message",
			zap.String("blockID", blockID.String()),
			zap.String("role", req.Role),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toMessageResponse(message))
}

// GetHistory handles GET /boards/{boardID}/blocks/{blockID}/messages
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	blockID, ok := h.authorizeBlock(w, r)
	if !ok {
		return
	}

	messages, err := h.chatService.GetHistory(r.Context(), blockID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := common.ExtractPageParams(r)
	start, end := params.Window(len(messages))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"messages":   toMessageResponses(messages[start:end]),
		"pagination": params.Meta(len(messages)),
	})
}

// AssemblePrompt handles GET /boards/{boardID}/blocks/{blockID}/prompt
func (h *ChatHandler) AssemblePrompt(w http.ResponseWriter, r *http.Request) {
	blockID, ok := h.authorizeBlock(w, r)
	if !ok {
		return
	}

	payload, err := h.chatService.AssemblePrompt(r.Context(), blockID)
	if err != nil {
		h.logger.Error("failed to assemble prompt",
			zap.String("blockID", blockID.String()),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, payload)
}

// authorizeBlock verifies board ownership and that the block belongs to
// the board named in the path. On failure it writes the response and
// returns ok=false.
func (h *ChatHandler) authorizeBlock(w http.ResponseWriter, r *http.Request) (valueobjects.NodeID, bool) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return valueobjects.NodeID{}, false
	}

	boardID, err := valueobjects.NewBoardIDFromString(chi.URLParam(r, "boardID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid board ID")
		return valueobjects.NodeID{}, false
	}
	if _, err := h.boardService.GetBoard(r.Context(), userCtx.UserID, boardID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return valueobjects.NodeID{}, false
	}

	blockID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "blockID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid block ID")
		return valueobjects.NodeID{}, false
	}

	block, err := h.nodeService.GetNode(r.Context(), blockID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return valueobjects.NodeID{}, false
	}
	if !block.BoardID().Equals(boardID) {
		h.errorHandler.Handle(w, r, pkgerrors.NewNotFoundError("node"))
		return valueobjects.NodeID{}, false
	}

	return blockID, true
}
