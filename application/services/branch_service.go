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

// BranchService creates chat blocks forked from a quoted span of an
// existing message. The new block inherits a composed context: the
// parent's own inherited context followed by the parent's visible history
// up to the fork point, deduplicated in first-occurrence order.
type BranchService struct {
	nodeRepo    ports.NodeRepository
	messageRepo ports.MessageRepository
	uowFactory  ports.UnitOfWorkFactory
	publisher   ports.EventPublisher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewBranchService creates a new branch service
func NewBranchService(
	nodeRepo ports.NodeRepository,
	messageRepo ports.MessageRepository,
	uowFactory ports.UnitOfWorkFactory,
	publisher ports.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BranchService {
	return &BranchService{
		nodeRepo:    nodeRepo,
		messageRepo: messageRepo,
		uowFactory:  uowFactory,
		publisher:   publisher,
		metrics:     metrics,
		logger:      logger,
	}
}

// BranchRequest carries everything a fork needs. SourceMessageID may be
// zero: provenance is best-effort and a branch without a resolvable source
// still succeeds, it just carries no quote link.
type BranchRequest struct {
	BoardID         valueobjects.BoardID
	ParentBlockID   valueobjects.NodeID
	SourceMessageID valueobjects.MessageID
	QuoteStart      int
	QuoteEnd        int
	QuoteText       string
	Title           string
	Model           string
	Prompt          string
	Position        valueobjects.Position
	UserID          string
}

// CreateBranch forks a new chat block from the parent. Node creation, the
// initial prompt message, and the provenance quote link commit in one
// transaction; a branch never becomes visible half-written.
func (s *BranchService) CreateBranch(ctx context.Context, req BranchRequest) (*entities.Node, error) {
	parent, err := s.nodeRepo.GetByID(ctx, req.ParentBlockID)
	if err != nil {
		return nil, err
	}
	if !parent.IsChatBlock() {
		return nil, pkgerrors.NewValidationError("can only branch from a chat block")
	}
	if !parent.BoardID().Equals(req.BoardID) {
		return nil, pkgerrors.NewNotFoundError("parent block")
	}

	history, err := s.messageRepo.GetByBlockID(ctx, req.ParentBlockID)
	if err != nil {
		return nil, err
	}

	visible, forkMessage := visibleUpToFork(history, req.SourceMessageID)
	inherited := valueobjects.ComposeBranchContext(parent.InheritedContext(), visible)

	model := req.Model
	if model == "" {
		model = parent.Model()
	}

	child, err := entities.NewBranchBlock(
		req.BoardID,
		req.UserID,
		req.Title,
		model,
		req.Position,
		parent.ID(),
		inherited,
	)
	if err != nil {
		return nil, err
	}

	var quote *entities.QuoteLink
	if forkMessage != nil {
		span, spanErr := valueobjects.NewQuoteSpan(req.QuoteStart, req.QuoteEnd, req.QuoteText)
		if spanErr == nil {
			quote, err = entities.NewQuoteLink(forkMessage.ID(), child.ID(), span)
			if err != nil {
				// Provenance is best-effort; the branch proceeds without it
				s.logger.Warn("Skipping quote link", zap.Error(err))
				quote = nil
			}
		}
	}

	var prompt *entities.Message
	if req.Prompt != "" {
		prompt, err = entities.NewMessage(child.ID(), entities.RoleUser, req.Prompt, "")
		if err != nil {
			return nil, err
		}
	}

	uow := s.uowFactory.New()
	if err := uow.Begin(ctx); err != nil {
		return nil, pkgerrors.NewTransactionFailureError("create_branch", err)
	}
	if err := uow.Nodes().Save(ctx, child); err != nil {
		uow.Rollback()
		return nil, pkgerrors.NewTransactionFailureError("create_branch", err)
	}
	if prompt != nil {
		if err := uow.Messages().Save(ctx, prompt); err != nil {
			uow.Rollback()
			return nil, pkgerrors.NewTransactionFailureError("create_branch", err)
		}
	}
	if quote != nil {
		if err := uow.Quotes().Save(ctx, quote); err != nil {
			uow.Rollback()
			return nil, pkgerrors.NewTransactionFailureError("create_branch", err)
		}
	}
	if err := uow.Commit(ctx); err != nil {
		// A parent deleted mid-flight surfaces as a missing reference;
		// recoverable by the caller, never blindly retried
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.NewTransactionFailureError("create_branch", err)
	}

	s.metrics.CountBranchCreated(ctx)
	s.publish(ctx, events.NewBranchCreated(child.ID(), parent.ID(), req.BoardID, inherited.Len(), time.Now()))

	s.logger.Info("Branch created",
		zap.String("blockID", child.ID().String()),
		zap.String("parentID", parent.ID().String()),
		zap.String("boardID", req.BoardID.String()),
		zap.Int("inheritedContext", inherited.Len()),
		zap.Bool("hasProvenance", quote != nil),
	)

	return child, nil
}

// visibleUpToFork slices the parent's ordered history up to and including
// the forked-from message. When the forked message is a user turn whose
// immediate successor is the assistant's reply, the reply is included too:
// the question is contextually incomplete without its answer. A source
// that cannot be resolved yields the full history and no fork message.
func visibleUpToFork(history []*entities.Message, sourceID valueobjects.MessageID) ([]valueobjects.MessageID, *entities.Message) {
	ids := make([]valueobjects.MessageID, 0, len(history))

	if sourceID.IsZero() {
		for _, m := range history {
			ids = append(ids, m.ID())
		}
		return ids, nil
	}

	forkIdx := -1
	for i, m := range history {
		if m.ID().Equals(sourceID) {
			forkIdx = i
			break
		}
	}
	if forkIdx < 0 {
		for _, m := range history {
			ids = append(ids, m.ID())
		}
		return ids, nil
	}

	end := forkIdx
	if history[forkIdx].Role() == entities.RoleUser &&
		forkIdx+1 < len(history) &&
		history[forkIdx+1].Role() == entities.RoleAssistant {
		end = forkIdx + 1
	}

	for _, m := range history[:end+1] {
		ids = append(ids, m.ID())
	}
	return ids, history[forkIdx]
}

func (s *BranchService) publish(ctx context.Context, event events.DomainEvent) {
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
