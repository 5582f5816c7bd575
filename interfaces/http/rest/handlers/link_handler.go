package handlers

import (
	"encoding/json"
	"net/http"

	"tangent-backend/application/services"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/pkg/auth"
	"tangent-backend/pkg/common"
	pkgerrors "tangent-backend/pkg/errors"
	"tangent-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LinkHandler handles context-link HTTP requests
type LinkHandler struct {
	linkService  *services.LinkService
	boardService *services.BoardService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkService *services.LinkService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		linkService:  linkService,
		boardService: boardService,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateLinkRequest represents the request body for creating a context link
type CreateLinkRequest struct {
	SourceID     string `json:"source_id" validate:"required,uuid"`
	TargetID     string `json:"target_id" validate:"required,uuid"`
	SourceHandle string `json:"source_handle,omitempty" validate:"omitempty,max=50"`
	TargetHandle string `json:"target_handle,omitempty" validate:"omitempty,max=50"`
}

// CreateLink handles POST /boards/{boardID}/links. Repeating a request
// for an existing pair returns the stored link with 200 instead of 201.
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	sourceID, err := valueobjects.NewNodeIDFromString(req.SourceID)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid source ID")
		return
	}
	targetID, err := valueobjects.NewNodeIDFromString(req.TargetID)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid target ID")
		return
	}

	result, err := h.linkService.CreateLink(r.Context(), boardID, sourceID, targetID, req.SourceHandle, req.TargetHandle)
	if err != nil {
		h.logger.Warn("link creation rejected",
			zap.String("boardID", boardID.String()),
			zap.String("sourceID", req.SourceID),
			zap.String("targetID", req.TargetID),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	common.RespondJSON(w, status, toLinkResponse(result.Link))
}

// ListLinks handles GET /boards/{boardID}/links
func (h *LinkHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	links, err := h.linkService.ListLinksForBoard(r.Context(), boardID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"links": toLinkResponses(links)})
}

// DeleteLink handles DELETE /boards/{boardID}/links/{linkID}
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	linkID, err := valueobjects.NewLinkIDFromString(chi.URLParam(r, "linkID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid link ID")
		return
	}

	if err := h.linkService.DeleteLink(r.Context(), boardID, linkID); err != nil {
		h.logger.Error("failed to delete link",
			zap.String("boardID", boardID.String()),
			zap.String("linkID", linkID.String()),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetAncestors handles GET /boards/{boardID}/nodes/{nodeID}/ancestors
func (h *LinkHandler) GetAncestors(w http.ResponseWriter, r *http.Request) {
	_, boardID, ok := h.authorizeBoard(w, r)
	if !ok {
		return
	}

	nodeID, err := valueobjects.NewNodeIDFromString(chi.URLParam(r, "nodeID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid node ID")
		return
	}

	ancestors, err := h.linkService.Ancestors(r.Context(), boardID, nodeID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	out := make([]string, 0, len(ancestors))
	for _, id := range ancestors {
		out = append(out, id.String())
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"ancestors": out})
}

func (h *LinkHandler) authorizeBoard(w http.ResponseWriter, r *http.Request) (*auth.UserContext, valueobjects.BoardID, bool) {
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
