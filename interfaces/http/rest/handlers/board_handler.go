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

// BoardHandler handles board-related HTTP requests
type BoardHandler struct {
	boardService *services.BoardService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService *services.BoardService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateBoardRequest represents the request body for creating a board
type CreateBoardRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// CreateBoard handles POST /boards
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
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

	board, err := h.boardService.CreateBoard(r.Context(), userCtx.UserID, req.Name)
	if err != nil {
		h.logger.Error("failed to create board",
			zap.String("userID", userCtx.UserID),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, toBoardResponse(board))
}

// GetBoard handles GET /boards/{boardID}
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
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

	board, err := h.boardService.GetBoard(r.Context(), userCtx.UserID, boardID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, toBoardResponse(board))
}

// ListBoards handles GET /boards
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	userCtx, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return
	}

	boards, err := h.boardService.ListBoards(r.Context(), userCtx.UserID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	params := common.ExtractPageParams(r)
	start, end := params.Window(len(boards))
	out := make([]boardResponse, 0, end-start)
	for _, board := range boards[start:end] {
		out = append(out, toBoardResponse(board))
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"boards":     out,
		"pagination": params.Meta(len(boards)),
	})
}

// DeleteBoard handles DELETE /boards/{boardID}
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
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

	if err := h.boardService.DeleteBoard(r.Context(), userCtx.UserID, boardID); err != nil {
		h.logger.Error("failed to delete board",
			zap.String("userID", userCtx.UserID),
			zap.String("boardID", boardID.String()),
			zap.Error(err),
		)
		h.errorHandler.Handle(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
