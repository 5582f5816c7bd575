package entities

import (
	"time"

	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"
)

// MessageRole is the speaker of a conversation turn
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of a chat block's conversation. Messages are
// immutable once written and are destroyed with their owning block.
type Message struct {
	id            valueobjects.MessageID
	blockID       valueobjects.NodeID
	role          MessageRole
	content       string
	hiddenContext string
	createdAt     time.Time
}

// NewMessage creates a message owned by the given chat block
func NewMessage(blockID valueobjects.NodeID, role MessageRole, content, hiddenContext string) (*Message, error) {
	if blockID.IsZero() {
		return nil, pkgerrors.NewValidationError("message requires an owning block")
	}
	if role != RoleUser && role != RoleAssistant {
		return nil, pkgerrors.NewValidationError("message role must be user or assistant")
	}
	if content == "" {
		return nil, pkgerrors.NewValidationError("message content cannot be empty")
	}

	return &Message{
		id:            valueobjects.NewMessageID(),
		blockID:       blockID,
		role:          role,
		content:       content,
		hiddenContext: hiddenContext,
		createdAt:     time.Now(),
	}, nil
}

// ReconstructMessage rebuilds a message from repository data
func ReconstructMessage(
	id valueobjects.MessageID,
	blockID valueobjects.NodeID,
	role MessageRole,
	content, hiddenContext string,
	createdAt time.Time,
) *Message {
	return &Message{
		id:            id,
		blockID:       blockID,
		role:          role,
		content:       content,
		hiddenContext: hiddenContext,
		createdAt:     createdAt,
	}
}

// ID returns the message identifier
func (m *Message) ID() valueobjects.MessageID { return m.id }

// BlockID returns the owning chat block
func (m *Message) BlockID() valueobjects.NodeID { return m.blockID }

// Role returns the speaker
func (m *Message) Role() MessageRole { return m.role }

// Content returns the message text
func (m *Message) Content() string { return m.content }

// HiddenContext returns context attached to the turn but not rendered
func (m *Message) HiddenContext() string { return m.hiddenContext }

// CreatedAt returns when the message was written
func (m *Message) CreatedAt() time.Time { return m.createdAt }
