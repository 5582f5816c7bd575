package services

import (
	"context"
	"fmt"
	"time"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/domain/events"
	pkgerrors "tangent-backend/pkg/errors"
	"tangent-backend/pkg/observability"

	"go.uber.org/zap"
)

// LinkService manages the lifecycle of context links: creation with cycle
// validation and idempotency, deletion with derived-flag cleanup, and the
// board-scoped graph queries the canvas needs. Callers are expected to
// have verified board ownership before invoking it.
type LinkService struct {
	nodeRepo  ports.NodeRepository
	linkRepo  ports.LinkRepository
	publisher ports.EventPublisher
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewLinkService creates a new link service
func NewLinkService(
	nodeRepo ports.NodeRepository,
	linkRepo ports.LinkRepository,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		nodeRepo:  nodeRepo,
		linkRepo:  linkRepo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreateLinkResult reports the committed link and whether this call
// created it. An existing pair is returned as-is: rapid duplicate UI
// gestures are not errors.
type CreateLinkResult struct {
	Link    *entities.ContextLink
	Created bool
}

// CreateLink validates and commits a context link.
//
// Order of checks: endpoints must exist and share the given board (a
// cross-board link is rejected before any cycle reasoning, which would be
// meaningless across boards); the target must be a chat block; a self-loop
// is a trivial cycle; an existing (source, target) pair short-circuits to
// the stored record; and for chat-block sources the cycle guard runs
// against the board's current edge set. The storage uniqueness constraint
// remains the final race-safety net: a concurrent creation losing the race
// is translated into returning the winner's record.
func (s *LinkService) CreateLink(
	ctx context.Context,
	boardID valueobjects.BoardID,
	sourceID, targetID valueobjects.NodeID,
	sourceHandle, targetHandle string,
) (*CreateLinkResult, error) {
	source, err := s.nodeRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	target, err := s.nodeRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !source.BoardID().Equals(target.BoardID()) || !source.BoardID().Equals(boardID) {
		return nil, pkgerrors.NewCrossBoardLinkError(sourceID.String(), targetID.String())
	}

	if !target.IsChatBlock() {
		return nil, pkgerrors.NewValidationError("only chat blocks can receive context links")
	}

	if sourceID.Equals(targetID) {
		s.metrics.CountCycleRejected(ctx)
		return nil, pkgerrors.NewCycleRejectedError(sourceID.String(), targetID.String()).
			WithCode(pkgerrors.CodeSelfLink)
	}

	// Idempotency: an existing pair is success, not conflict
	if existing, err := s.linkRepo.GetByPair(ctx, sourceID, targetID); err == nil && existing != nil {
		return &CreateLinkResult{Link: existing, Created: false}, nil
	} else if err != nil && !pkgerrors.IsNotFound(err) {
		return nil, err
	}

	// Only chat-block sources can close a cycle; image and sticky-note
	// nodes never receive incoming edges
	if source.IsChatBlock() {
		links, err := s.linkRepo.GetByBoardID(ctx, boardID)
		if err != nil {
			return nil, fmt.Errorf("failed to load board links: %w", err)
		}
		graph := aggregates.NewContextGraph(chatBlockEdges(links, s.isChatBlock(ctx, links)))
		if graph.WouldCreateCycle(sourceID, targetID) {
			s.metrics.CountCycleRejected(ctx)
			s.logger.Debug("Link rejected: would create cycle",
				zap.String("boardID", boardID.String()),
				zap.String("sourceID", sourceID.String()),
				zap.String("targetID", targetID.String()),
			)
			return nil, pkgerrors.NewCycleRejectedError(sourceID.String(), targetID.String())
		}
	}

	link, err := entities.NewContextLink(boardID, sourceID, targetID, sourceHandle, targetHandle)
	if err != nil {
		return nil, err
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		// Lost a race against a concurrent identical creation: the pair
		// now exists, return it
		if pkgerrors.IsConflict(err) {
			existing, getErr := s.linkRepo.GetByPair(ctx, sourceID, targetID)
			if getErr != nil {
				return nil, err
			}
			return &CreateLinkResult{Link: existing, Created: false}, nil
		}
		return nil, err
	}

	// An image feeding a chat block sets the block's attachment flag
	if source.Kind() == entities.KindImage && !target.HasAttachedImage() {
		if err := target.SetAttachedImage(true); err == nil {
			if err := s.nodeRepo.Save(ctx, target); err != nil {
				s.logger.Warn("Failed to update image attachment flag",
					zap.String("targetID", targetID.String()),
					zap.Error(err),
				)
			}
		}
	}

	s.metrics.CountLinkCreated(ctx)
	s.publish(ctx, events.NewLinkCreated(link.ID(), boardID, sourceID, targetID, time.Now()))

	s.logger.Info("Context link created",
		zap.String("linkID", link.ID().String()),
		zap.String("boardID", boardID.String()),
		zap.String("sourceID", sourceID.String()),
		zap.String("targetID", targetID.String()),
	)

	return &CreateLinkResult{Link: link, Created: true}, nil
}

// DeleteLink removes a context link. If the removed edge was the last
// image-sourced edge into its target, the target's attachment flag is
// cleared in the same operation; the flag is a materialized convenience,
// never a substitute for the link store.
func (s *LinkService) DeleteLink(ctx context.Context, boardID valueobjects.BoardID, linkID valueobjects.LinkID) error {
	link, err := s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	if !link.BoardID().Equals(boardID) {
		return pkgerrors.NewNotFoundError("link")
	}

	source, err := s.nodeRepo.GetByID(ctx, link.SourceID())
	if err != nil && !pkgerrors.IsNotFound(err) {
		return err
	}

	if err := s.linkRepo.Delete(ctx, linkID); err != nil {
		return err
	}

	if source != nil && source.Kind() == entities.KindImage {
		if err := s.refreshImageFlag(ctx, link.TargetID()); err != nil {
			s.logger.Warn("Failed to refresh image attachment flag",
				zap.String("targetID", link.TargetID().String()),
				zap.Error(err),
			)
		}
	}

	s.metrics.CountLinkDeleted(ctx)
	s.publish(ctx, events.NewLinkDeleted(linkID, boardID, link.SourceID(), link.TargetID(), time.Now()))

	s.logger.Info("Context link deleted",
		zap.String("linkID", linkID.String()),
		zap.String("boardID", boardID.String()),
	)

	return nil
}

// ListLinksForBoard returns every link on a board
func (s *LinkService) ListLinksForBoard(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.ContextLink, error) {
	return s.linkRepo.GetByBoardID(ctx, boardID)
}

// Ancestors returns every node transitively supplying context to the
// given node. Read fresh from the store on every call: the result is used
// to grey out invalid drop targets mid-drag, and staleness is tolerable
// only within a single gesture.
func (s *LinkService) Ancestors(ctx context.Context, boardID valueobjects.BoardID, nodeID valueobjects.NodeID) ([]valueobjects.NodeID, error) {
	if _, err := s.nodeRepo.GetByID(ctx, nodeID); err != nil {
		return nil, err
	}

	links, err := s.linkRepo.GetByBoardID(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board links: %w", err)
	}

	return aggregates.NewContextGraph(links).Ancestors(nodeID), nil
}

// refreshImageFlag recomputes a chat block's attachment flag from the
// authoritative link store
func (s *LinkService) refreshImageFlag(ctx context.Context, blockID valueobjects.NodeID) error {
	block, err := s.nodeRepo.GetByID(ctx, blockID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil // target already deleted, nothing to sync
		}
		return err
	}

	incoming, err := s.linkRepo.GetByNodeID(ctx, blockID)
	if err != nil {
		return err
	}

	attached := false
	for _, l := range incoming {
		if !l.TargetID().Equals(blockID) {
			continue
		}
		src, err := s.nodeRepo.GetByID(ctx, l.SourceID())
		if err != nil {
			continue
		}
		if src.Kind() == entities.KindImage {
			attached = true
			break
		}
	}

	if block.HasAttachedImage() != attached {
		if err := block.SetAttachedImage(attached); err != nil {
			return err
		}
		return s.nodeRepo.Save(ctx, block)
	}
	return nil
}

// isChatBlock resolves node kinds for the edges of a board in one pass so
// the cycle guard only walks the chat-block subgraph
func (s *LinkService) isChatBlock(ctx context.Context, links []*entities.ContextLink) map[string]bool {
	kinds := make(map[string]bool)
	for _, link := range links {
		for _, id := range []valueobjects.NodeID{link.SourceID(), link.TargetID()} {
			key := id.String()
			if _, seen := kinds[key]; seen {
				continue
			}
			node, err := s.nodeRepo.GetByID(ctx, id)
			kinds[key] = err == nil && node.IsChatBlock()
		}
	}
	return kinds
}

// chatBlockEdges filters a board's links down to the chat-block subgraph
func chatBlockEdges(links []*entities.ContextLink, isChatBlock map[string]bool) []*entities.ContextLink {
	out := make([]*entities.ContextLink, 0, len(links))
	for _, link := range links {
		if isChatBlock[link.SourceID().String()] && isChatBlock[link.TargetID().String()] {
			out = append(out, link)
		}
	}
	return out
}

func (s *LinkService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err),
		)
	}
}
