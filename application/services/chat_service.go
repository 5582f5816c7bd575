package services

import (
	"context"
	"fmt"
	"time"

	"tangent-backend/application/ports"
	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/domain/events"
	pkgerrors "tangent-backend/pkg/errors"

	"go.uber.org/zap"
)

// ChatService owns a chat block's conversation: appending turns, reading
// history, and assembling the ordered prompt payload an AI request needs.
// The LLM invocation itself happens elsewhere; this service only produces
// the payload.
type ChatService struct {
	nodeRepo    ports.NodeRepository
	messageRepo ports.MessageRepository
	quoteRepo   ports.QuoteRepository
	publisher   ports.EventPublisher
	logger      *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	nodeRepo ports.NodeRepository,
	messageRepo ports.MessageRepository,
	quoteRepo ports.QuoteRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		nodeRepo:    nodeRepo,
		messageRepo: messageRepo,
		quoteRepo:   quoteRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// AppendMessage writes a conversation turn to a chat block
func (s *ChatService) AppendMessage(
	ctx context.Context,
	blockID valueobjects.NodeID,
	role entities.MessageRole,
	content, hiddenContext string,
) (*entities.Message, error) {
	block, err := s.nodeRepo.GetByID(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if !block.IsChatBlock() {
		return nil, pkgerrors.NewValidationError("messages belong to chat blocks")
	}

	message, err := entities.NewMessage(blockID, role, content, hiddenContext)
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.Save(ctx, message); err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewMessageAppended(message.ID(), blockID, string(role), time.Now()))
	return message, nil
}

// GetHistory returns a block's messages in creation order
func (s *ChatService) GetHistory(ctx context.Context, blockID valueobjects.NodeID) ([]*entities.Message, error) {
	if _, err := s.nodeRepo.GetByID(ctx, blockID); err != nil {
		return nil, err
	}
	return s.messageRepo.GetByBlockID(ctx, blockID)
}

// PromptTurn is one turn of an assembled AI request
type PromptTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptPayload is the ordered request body for the AI provider: an
// optional system note describing the fork's provenance, the resolved
// inherited context, then the block's own visible history.
type PromptPayload struct {
	Model  string       `json:"model"`
	System string       `json:"system,omitempty"`
	Turns  []PromptTurn `json:"turns"`
}

// AssemblePrompt resolves a block's inherited context identifiers to full
// message bodies, in order, and builds the outgoing payload. Identifiers
// whose messages have since been deleted are skipped; the inherited list
// is already deduplicated and ordered, so resolution is a straight pass.
func (s *ChatService) AssemblePrompt(ctx context.Context, blockID valueobjects.NodeID) (*PromptPayload, error) {
	block, err := s.nodeRepo.GetByID(ctx, blockID)
	if err != nil {
		return nil, err
	}
	if !block.IsChatBlock() {
		return nil, pkgerrors.NewValidationError("prompts are assembled for chat blocks")
	}

	payload := &PromptPayload{Model: block.Model()}

	// The fork's quoted text becomes a short synthetic system note
	if quote, err := s.quoteRepo.GetByTargetBlockID(ctx, blockID); err == nil && quote != nil {
		if text := quote.Span().Text(); text != "" {
			payload.System = fmt.Sprintf("This conversation branched from the highlighted passage: %q", text)
		}
	}

	inherited, err := s.messageRepo.GetByIDs(ctx, block.InheritedContext().IDs())
	if err != nil {
		return nil, err
	}
	for _, m := range inherited {
		payload.Turns = append(payload.Turns, PromptTurn{Role: string(m.Role()), Content: m.Content()})
	}

	visible, err := s.messageRepo.GetByBlockID(ctx, blockID)
	if err != nil {
		return nil, err
	}
	for _, m := range visible {
		payload.Turns = append(payload.Turns, PromptTurn{Role: string(m.Role()), Content: m.Content()})
	}

	s.logger.Debug("Prompt assembled",
		zap.String("blockID", blockID.String()),
		zap.Int("inheritedTurns", len(inherited)),
		zap.Int("visibleTurns", len(visible)),
	)

	return payload, nil
}

func (s *ChatService) publish(ctx context.Context, event events.DomainEvent) {
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
