package services

import (
	"context"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"

	"go.uber.org/zap"
)

// BoardService manages workspaces. Board deletion removes every node on
// the board through the node cascade so links and messages go with them.
type BoardService struct {
	boardRepo   ports.BoardRepository
	nodeRepo    ports.NodeRepository
	nodeService *NodeService
	publisher   ports.EventPublisher
	logger      *zap.Logger
}

// NewBoardService creates a new board service
func NewBoardService(
	boardRepo ports.BoardRepository,
	nodeRepo ports.NodeRepository,
	nodeService *NodeService,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *BoardService {
	return &BoardService{
		boardRepo:   boardRepo,
		nodeRepo:    nodeRepo,
		nodeService: nodeService,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateBoard creates a workspace for a user
func (s *BoardService) CreateBoard(ctx context.Context, userID, name string) (*aggregates.Board, error) {
	board, err := aggregates.NewBoard(userID, name)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	if err := s.boardRepo.Save(ctx, board); err != nil {
		return nil, err
	}

	for _, event := range board.GetUncommittedEvents() {
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Warn("Failed to publish event", zap.Error(err))
			}
		}
	}
	board.MarkEventsAsCommitted()

	s.logger.Info("Board created",
		zap.String("boardID", board.ID().String()),
		zap.String("userID", userID),
	)
	return board, nil
}

// GetBoard retrieves a board, enforcing ownership
func (s *BoardService) GetBoard(ctx context.Context, userID string, id valueobjects.BoardID) (*aggregates.Board, error) {
	board, err := s.boardRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !board.IsOwnedBy(userID) {
		return nil, pkgerrors.NewForbiddenError("board belongs to another user")
	}
	return board, nil
}

// ListBoards returns a user's boards
func (s *BoardService) ListBoards(ctx context.Context, userID string) ([]*aggregates.Board, error) {
	return s.boardRepo.GetByUserID(ctx, userID)
}

// DeleteBoard removes a board and everything on it
func (s *BoardService) DeleteBoard(ctx context.Context, userID string, id valueobjects.BoardID) error {
	board, err := s.GetBoard(ctx, userID, id)
	if err != nil {
		return err
	}

	nodes, err := s.nodeRepo.GetByBoardID(ctx, id)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if err := s.nodeService.DeleteNode(ctx, id, node.ID()); err != nil && !pkgerrors.IsNotFound(err) {
			return err
		}
	}

	if err := s.boardRepo.Delete(ctx, board.ID()); err != nil {
		return err
	}

	s.logger.Info("Board deleted",
		zap.String("boardID", id.String()),
		zap.String("userID", userID),
		zap.Int("nodesRemoved", len(nodes)),
	)
	return nil
}
