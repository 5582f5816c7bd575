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

// BranchHandler handles branch-creation HTTP requests
type BranchHandler struct {
	branchService *services.BranchService
	boardService  *services.BoardService
	errorHandler  *pkgerrors.ErrorHandler
	logger        *zap.Logger
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(branchService *services.BranchService, boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *BranchHandler {
	return &BranchHandler{
		branchService: branchService,
		boardService:  boardService,
		errorHandler:  errorHandler,
		logger:        logger,
	}
}

// CreateBranchRequest represents the request body for forking a chat block
type CreateBranchRequest struct {
	ParentBlockID   string  `json:"parent_block_id" validate:"required,uuid"`
	SourceMessageID string  `json:"source_message_id,omitempty" validate:"omitempty,uuid"`
	QuoteStart      int     `json:"quote_start" validate:"min=0"`
	QuoteEnd        int     `json:"quote_end" validate:"min=0,gtefield=QuoteStart"`
	QuoteText       string  `json:"quote_text,omitempty" validate:"omitempty,max=10000"`
	Title           string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Model           string  `json:"model,omitempty" validate:"omitempty,max=100"`
	Prompt          string  `json:"prompt,omitempty" validate:"omitempty,max=100000"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
}

// CreateBranch handles POST /boards/{boardID}/branches
func (h *BranchHandler) CreateBranch(w http.ResponseWriter, r *http.Request) {
	var req CreateBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	boardID, err := valueobjects.NewBoardIDFromString(chi.URLParam(r, "boardID"))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid board ID")
		return
	}
	if _, err := h.boardService.GetBoard(r.Context(), userCtx.UserID, boardID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	parentID, err := valueobjects.NewNodeIDFromString(req.ParentBlockID)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid parent block ID")
		return
	}
	// A branch without a source message succeeds with empty provenance,
	// so the field may be absent entirely.
	var sourceMessageID valueobjects.MessageID
	if req.SourceMessageID != "" {
		sourceMessageID, err = valueobjects.NewMessageIDFromString(req.SourceMessageID)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, "INVALID_ID", "Invalid source message ID")
			return
		}
	}

	branch, err := h.branchService.CreateBranch(r.Context(), services.BranchRequest{
		BoardID:         boardID,
		ParentBlockID:   parentID,
		SourceMessageID: sourceMessageID,
		QuoteStart:      req.QuoteStart,
		QuoteEnd:        req.QuoteEnd,
		QuoteText:       req.QuoteText,
		Title:           req.Title,
		Model:           req.Model,
		Prompt:          req.Prompt,
		Position:        valueobjects.NewPosition(req.X, req.Y),
		UserID:          userCtx.UserID,
	})
	if err != nil {
		h.logger.Error("failed to create branch",
			zap.String("boardID", boardID.String()),
			zap.String("parentBlockID", req.ParentBlockID),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toNodeResponse(branch))
}
