package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// NodeID is a value object identifying a canvas node (chat block, image,
// or sticky note). Value objects are immutable and have no identity beyond
// their value.
type NodeID struct {
	value string
}

// NewNodeID creates a new random NodeID
func NewNodeID() NodeID {
	return NodeID{value: uuid.New().String()}
}

// NewNodeIDFromString creates a NodeID from an existing string
func NewNodeIDFromString(id string) (NodeID, error) {
	if err := validateUUID(id, "node ID"); err != nil {
		return NodeID{}, err
	}
	return NodeID{value: id}, nil
}

// String returns the string representation of the NodeID
func (id NodeID) String() string { return id.value }

// Equals checks if two NodeIDs are equal
func (id NodeID) Equals(other NodeID) bool { return id.value == other.value }

// IsZero checks if the NodeID is the zero value
func (id NodeID) IsZero() bool { return id.value == "" }

// MarshalJSON implements json.Marshaler
func (id NodeID) MarshalJSON() ([]byte, error) { return marshalID(id.value) }

// UnmarshalJSON implements json.Unmarshaler
func (id *NodeID) UnmarshalJSON(data []byte) error { return unmarshalID(data, &id.value) }

// BoardID identifies a user-owned workspace. All graph operations are
// scoped to a single board; edges never cross boards.
type BoardID struct {
	value string
}

// NewBoardID creates a new random BoardID
func NewBoardID() BoardID {
	return BoardID{value: uuid.New().String()}
}

// NewBoardIDFromString creates a BoardID from an existing string
func NewBoardIDFromString(id string) (BoardID, error) {
	if err := validateUUID(id, "board ID"); err != nil {
		return BoardID{}, err
	}
	return BoardID{value: id}, nil
}

// String returns the string representation of the BoardID
func (id BoardID) String() string { return id.value }

// Equals checks if two BoardIDs are equal
func (id BoardID) Equals(other BoardID) bool { return id.value == other.value }

// IsZero checks if the BoardID is the zero value
func (id BoardID) IsZero() bool { return id.value == "" }

// MarshalJSON implements json.Marshaler
func (id BoardID) MarshalJSON() ([]byte, error) { return marshalID(id.value) }

// UnmarshalJSON implements json.Unmarshaler
func (id *BoardID) UnmarshalJSON(data []byte) error { return unmarshalID(data, &id.value) }

// MessageID identifies a single conversation turn inside a chat block.
type MessageID struct {
	value string
}

// NewMessageID creates a new random MessageID
func NewMessageID() MessageID {
	return MessageID{value: uuid.New().String()}
}

// NewMessageIDFromString creates a MessageID from an existing string
func NewMessageIDFromString(id string) (MessageID, error) {
	if err := validateUUID(id, "message ID"); err != nil {
		return MessageID{}, err
	}
	return MessageID{value: id}, nil
}

// String returns the string representation of the MessageID
func (id MessageID) String() string { return id.value }

// Equals checks if two MessageIDs are equal
func (id MessageID) Equals(other MessageID) bool { return id.value == other.value }

// IsZero checks if the MessageID is the zero value
func (id MessageID) IsZero() bool { return id.value == "" }

// MarshalJSON implements json.Marshaler
func (id MessageID) MarshalJSON() ([]byte, error) { return marshalID(id.value) }

// UnmarshalJSON implements json.Unmarshaler
func (id *MessageID) UnmarshalJSON(data []byte) error { return unmarshalID(data, &id.value) }

// LinkID identifies a context link record.
type LinkID struct {
	value string
}

// NewLinkID creates a new random LinkID
func NewLinkID() LinkID {
	return LinkID{value: uuid.New().String()}
}

// NewLinkIDFromString creates a LinkID from an existing string
func NewLinkIDFromString(id string) (LinkID, error) {
	if err := validateUUID(id, "link ID"); err != nil {
		return LinkID{}, err
	}
	return LinkID{value: id}, nil
}

// String returns the string representation of the LinkID
func (id LinkID) String() string { return id.value }

// Equals checks if two LinkIDs are equal
func (id LinkID) Equals(other LinkID) bool { return id.value == other.value }

// IsZero checks if the LinkID is the zero value
func (id LinkID) IsZero() bool { return id.value == "" }

// MarshalJSON implements json.Marshaler
func (id LinkID) MarshalJSON() ([]byte, error) { return marshalID(id.value) }

// UnmarshalJSON implements json.Unmarshaler
func (id *LinkID) UnmarshalJSON(data []byte) error { return unmarshalID(data, &id.value) }

// Shared helpers

func validateUUID(id, what string) error {
	if id == "" {
		return errors.New(what + " cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return errors.New(what + " must be a valid UUID")
	}
	return nil
}

func marshalID(value string) ([]byte, error) {
	return []byte(`"` + value + `"`), nil
}

func unmarshalID(data []byte, value *string) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("identifier must be a JSON string")
	}
	*value = string(data[1 : len(data)-1])
	return nil
}
