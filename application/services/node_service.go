package services

import (
	"context"
	"time"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/domain/events"
	pkgerrors "tangent-backend/pkg/errors"
	"tangent-backend/pkg/observability"

	"go.uber.org/zap"
)

// NodeService manages canvas node lifecycle. Deleting a node cascades to
// its owned messages, its provenance record, and every context link where
// it is source or target, all inside one transaction, so no dangling
// references survive.
type NodeService struct {
	nodeRepo    ports.NodeRepository
	linkRepo    ports.LinkRepository
	messageRepo ports.MessageRepository
	quoteRepo   ports.QuoteRepository
	uowFactory  ports.UnitOfWorkFactory
	publisher   ports.EventPublisher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	nodeRepo ports.NodeRepository,
	linkRepo ports.LinkRepository,
	messageRepo ports.MessageRepository,
	quoteRepo ports.QuoteRepository,
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *NodeService {
	return &NodeService{
		nodeRepo:    nodeRepo,
		linkRepo:    linkRepo,
		messageRepo: messageRepo,
		quoteRepo:   quoteRepo,
		uowFactory:  uowFactory,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateNodeRequest carries the variant-specific creation fields
type CreateNodeRequest struct {
	BoardID  valueobjects.BoardID
	UserID   string
	Kind     entities.NodeKind
	Position valueobjects.Position
	Title    string
	Model    string
	ImageURL string
	NoteText string
}

// CreateNode creates a canvas node of the requested kind
func (s *NodeService) CreateNode(ctx context.Context, req CreateNodeRequest) (*entities.Node, error) {
	var node *entities.Node
	var err error

	switch req.Kind {
	case entities.KindChatBlock:
		node, err = entities.NewChatBlock(req.BoardID, req.UserID, req.Title, req.Model, req.Position)
	case entities.KindImage:
		node, err = entities.NewImageNode(req.BoardID, req.UserID, req.ImageURL, req.Position)
	case entities.KindStickyNote:
		node, err = entities.NewStickyNote(req.BoardID, req.UserID, req.NoteText, req.Position)
	default:
		return nil, pkgerrors.NewValidationError("unknown node kind")
	}
	if err != nil {
		return nil, err
	}

	if err := s.nodeRepo.Save(ctx, node); err != nil {
		return nil, err
	}

	s.publishAll(ctx, node.GetUncommittedEvents())
	node.MarkEventsAsCommitted()

	s.logger.Info("Node created",
		zap.String("nodeID", node.ID().String()),
		zap.String("boardID", req.BoardID.String()),
		zap.String("kind", string(req.Kind)),
	)

	return node, nil
}

// GetNode retrieves a node by ID
func (s *NodeService) GetNode(ctx context.Context, id valueobjects.NodeID) (*entities.Node, error) {
	return s.nodeRepo.GetByID(ctx, id)
}

// ListBoardNodes returns every node on a board
func (s *NodeService) ListBoardNodes(ctx context.Context, boardID valueobjects.BoardID) ([]*entities.Node, error) {
	return s.nodeRepo.GetByBoardID(ctx, boardID)
}

// MoveNode updates a node's canvas position
func (s *NodeService) MoveNode(ctx context.Context, id valueobjects.NodeID, position valueobjects.Position) error {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	node.MoveTo(position)
	return s.nodeRepo.Save(ctx, node)
}

// DeleteNode removes a node and everything that depends on it: owned
// messages, the branch provenance record, and every context link touching
// the node. Targets that were fed by a deleted image node get their
// attachment flag recomputed afterwards. Link removal never removes the
// nodes at the other end.
func (s *NodeService) DeleteNode(ctx context.Context, boardID valueobjects.BoardID, id valueobjects.NodeID) error {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !node.BoardID().Equals(boardID) {
		return pkgerrors.NewNotFoundError("node")
	}

	links, err := s.linkRepo.GetByNodeID(ctx, id)
	if err != nil {
		return err
	}

	uow := s.uowFactory.New()
	if err := uow.Begin(ctx); err != nil {
		return pkgerrors.NewTransactionFailureError("delete_node", err)
	}
	for _, link := range links {
		if err := uow.Links().Delete(ctx, link.ID()); err != nil {
			uow.Rollback()
			return pkgerrors.NewTransactionFailureError("delete_node", err)
		}
	}
	if node.IsChatBlock() {
		if err := uow.Messages().DeleteByBlockID(ctx, id); err != nil {
			uow.Rollback()
			return pkgerrors.NewTransactionFailureError("delete_node", err)
		}
		if err := uow.Quotes().DeleteByTargetBlockID(ctx, id); err != nil {
			uow.Rollback()
			return pkgerrors.NewTransactionFailureError("delete_node", err)
		}
	}
	if err := uow.Nodes().Delete(ctx, id); err != nil {
		uow.Rollback()
		return pkgerrors.NewTransactionFailureError("delete_node", err)
	}
	if err := uow.Commit(ctx); err != nil {
		return pkgerrors.NewTransactionFailureError("delete_node", err)
	}

	// Recompute attachment flags for blocks the deleted image was feeding
	if node.Kind() == entities.KindImage {
		for _, link := range links {
			if !link.SourceID().Equals(id) {
				continue
			}
			if err := s.recomputeImageFlag(ctx, link.TargetID()); err != nil {
				s.logger.Warn("Failed to recompute image attachment flag",
					zap.String("blockID", link.TargetID().String()),
					zap.Error(err),
				)
			}
		}
	}

	s.metrics.CountNodeDeleted(ctx)
	s.publish(ctx, events.NewNodeDeleted(id, boardID, len(links), time.Now()))

	s.logger.Info("Node deleted",
		zap.String("nodeID", id.String()),
		zap.String("boardID", boardID.String()),
		zap.Int("linksRemoved", len(links)),
	)

	return nil
}

func (s *NodeService) recomputeImageFlag(ctx context.Context, blockID valueobjects.NodeID) error {
	block, err := s.nodeRepo.GetByID(ctx, blockID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil
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
		if err == nil && src.Kind() == entities.KindImage {
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

func (s *NodeService) publish(ctx context.Context, event events.DomainEvent) {
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

func (s *NodeService) publishAll(ctx context.Context, evts []events.DomainEvent) {
	for _, e := range evts {
		s.publish(ctx, e)
	}
}
