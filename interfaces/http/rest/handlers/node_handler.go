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

// NodeHandler handles canvas node HTTP requests
type NodeHandler struct {
	nodeService  *services.NodeService
	boardService *services.BoardService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(nodeService *services.NodeService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		nodeService:  nodeService,
		boardService: boardService,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateNodeRequest represents the request body for creating a node
type CreateNodeRequest struct {
	Kind     string  `json:"kind" validate:"required,oneof=chat_block image sticky_note"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Title    string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Model    string  `json:"model,omitempty" validate:"omitempty,max=100"`
	ImageURL string  `json:"image_url,omitempty" validate:"omitempty,url"`
	NoteText string  `json:"note_text,omitempty" validate:"omitempty,max=10000"`
}

// MoveNodeRequest represents the request body for repositioning a node
type MoveNodeRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CreateNode handles POST /boards/{boardID}/nodes
func (h *NodeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	var req CreateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	node, err := h.nodeService.CreateNode(r.Context(), services.CreateNodeRequest{
		BoardID:  boardID,
		UserID:   userCtx.UserID,
		Kind:     entities.NodeKind(req.Kind),
		Position: valueobjects.NewPosition(req.X, req.Y),
		Title:    req.Title,
		Model:    req.Model,
		ImageURL: req.ImageURL,
		NoteText: req.NoteText,
	})
	if err != nil {
		h.logger.Error("failed to create node",
			zap.String("boardID", boardID.String()),
			zap.String("kind", req.Kind),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toNodeResponse(node))
}

// GetNode handles GET /boards/{boardID}/nodes/{nodeID}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	nodeID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid node ID")
		return
	}

	node, err := h.nodeService.GetNode(r.Context(), nodeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if !node.BoardID().Equals(boardID) {
		h.errorHandler.Handle(w, r, pkgerrors.NewNotFoundError("node"))
		return
	}

	common.RespondJSON(w, http.StatusOK, toNodeResponse(node))
}

// ListNodes handles GET /boards/{boardID}/nodes
func (h *NodeHandler) ListNodes(w http.ResponseWriter, r *http.Request) {
	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	nodes, err := h.nodeService.ListBoardNodes(r.Context(), boardID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"nodes": toNodeResponses(nodes)})
}

// MoveNode handles PUT /boards/{boardID}/nodes/{nodeID}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}

	_, _, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	nodeID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid node ID")
		return
	}

	if err := h.nodeService.MoveNode(r.Context(), nodeID, valueobjects.NewPosition(req.X, req.Y)); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteNode handles DELETE /boards/{boardID}/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	nodeID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid node ID")
		return
	}

	if err := h.nodeService.DeleteNode(r.Context(), boardID, nodeID); err != nil {
		h.logger.Error("failed to delete node",
			zap.String("boardID", boardID.String()),
			zap.String("nodeID", nodeID.String()),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// authorizeBoard resolves the authenticated user and verifies board ownership.
// On failure it writes the response and returns ok=false.
func (h *NodeHandler) authorizeBoard(w http.ResponseWriter, r *http.Request) (*auth.UserContext, valueobjects.BoardID, bool) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return nil, valueobjects.BoardID{}, false
	}

	boardID, err := valueobjects.NewBoardIDFromString(chi.URLParam(r, "boardID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid board ID")
		return nil, valueobjects.BoardID{}, false
	}

	if _, err := h.boardService.GetBoard(r.Context(), userCtx.UserID, boardID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return nil, valueobjects.BoardID{}, false
	}

	return userCtx, boardID, true
}
