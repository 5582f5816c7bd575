package aggregates

import (
	"errors"
	"time"

	"tangent-backend/domain/core/valueobjects"
	"tangent-backend/domain/events"
)

// Board is a user-owned workspace. Nodes and links belong to exactly one
// board; every graph operation is scoped to one. The board aggregate holds
// workspace metadata and ownership; node and link membership is enforced
// by the services that load them by board.
type Board struct {
	id        valueobjects.BoardID
	userID    string
	name      string
	createdAt time.Time
	updatedAt time.Time

	events []events.DomainEvent
}

// NewBoard creates a new board
func NewBoard(userID, name string) (*Board, error) {
	if userID == "" {
		return nil, errors.New("userID required")
	}
	if name == "" {
		return nil, errors.New("board name required")
	}

	now := time.Now()
	board := &Board{
		id:        valueobjects.NewBoardID(),
		userID:    userID,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}

	board.events = append(board.events, events.NewBoardCreated(board.id, userID, name, now))
	return board, nil
}

// ReconstructBoard recreates a board from stored data
func ReconstructBoard(id valueobjects.BoardID, userID, name string, createdAt, updatedAt time.Time) (*Board, error) {
	if id.IsZero() || userID == "" {
		return nil, errors.New("required fields missing for board reconstruction")
	}
	return &Board{
		id:        id,
		userID:    userID,
		name:      name,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// ID returns the board's unique identifier
func (b *Board) ID() valueobjects.BoardID { return b.id }

// UserID returns the owner's ID
func (b *Board) UserID() string { return b.userID }

// Name returns the board's name
func (b *Board) Name() string { return b.name }

// CreatedAt returns when the board was created
func (b *Board) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns when the board was last updated
func (b *Board) UpdatedAt() time.Time { return b.updatedAt }

// IsOwnedBy checks workspace ownership
func (b *Board) IsOwnedBy(userID string) bool { return b.userID == userID }

// Rename updates the board's name
func (b *Board) Rename(name string) error {
	if name == "" {
		return errors.New("board name required")
	}
	b.name = name
	b.updatedAt = time.Now()
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (b *Board) GetUncommittedEvents() []events.DomainEvent { return b.events }

// MarkEventsAsCommitted clears the uncommitted events
func (b *Board) MarkEventsAsCommitted() { b.events = nil }
