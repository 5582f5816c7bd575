package entities

import (
	"time"

	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"
)

// ContextLink is a directed edge declaring that the source node supplies
// context to the target chat block's AI prompt. One record shape serves
// all three logical edge kinds (chat-block, image, and sticky-note
// sources); the source node's kind decides whether the edge participates
// in cycle checking. At most one link may exist per ordered
// (source, target) pair, and self-loops are rejected outright.
type ContextLink struct {
	id           valueobjects.LinkID
	boardID      valueobjects.BoardID
	sourceID     valueobjects.NodeID
	targetID     valueobjects.NodeID
	sourceHandle string
	targetHandle string
	createdAt    time.Time
}

// NewContextLink creates a context link edge
func NewContextLink(
	boardID valueobjects.BoardID,
	sourceID, targetID valueobjects.NodeID,
	sourceHandle, targetHandle string,
) (*ContextLink, error) {
	if sourceID.IsZero() || targetID.IsZero() {
		return nil, pkgerrors.NewValidationError("link requires both endpoints")
	}
	if sourceID.Equals(targetID) {
		return nil, pkgerrors.NewCycleRejectedError(sourceID.String(), targetID.String()).
			WithCode(pkgerrors.CodeSelfLink)
	}

	return &ContextLink{
		id:           valueobjects.NewLinkID(),
		boardID:      boardID,
		sourceID:     sourceID,
		targetID:     targetID,
		sourceHandle: sourceHandle,
		targetHandle: targetHandle,
		createdAt:    time.Now(),
	}, nil
}

// ReconstructContextLink rebuilds a link from repository data
func ReconstructContextLink(
	id valueobjects.LinkID,
	boardID valueobjects.BoardID,
	sourceID, targetID valueobjects.NodeID,
	sourceHandle, targetHandle string,
	createdAt time.Time,
) *ContextLink {
	return &ContextLink{
		id:           id,
		boardID:      boardID,
		sourceID:     sourceID,
		targetID:     targetID,
		sourceHandle: sourceHandle,
		targetHandle: targetHandle,
		createdAt:    createdAt,
	}
}

// ID returns the link identifier
func (l *ContextLink) ID() valueobjects.LinkID { return l.id }

// BoardID returns the board the edge belongs to
func (l *ContextLink) BoardID() valueobjects.BoardID { return l.boardID }

// SourceID returns the context-supplying node
func (l *ContextLink) SourceID() valueobjects.NodeID { return l.sourceID }

// TargetID returns the chat block receiving context
func (l *ContextLink) TargetID() valueobjects.NodeID { return l.targetID }

// SourceHandle returns the visual handle on the source node
func (l *ContextLink) SourceHandle() string { return l.sourceHandle }

// TargetHandle returns the visual handle on the target node
func (l *ContextLink) TargetHandle() string { return l.targetHandle }

// CreatedAt returns when the edge was drawn
func (l *ContextLink) CreatedAt() time.Time { return l.createdAt }
