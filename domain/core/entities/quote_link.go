package entities

import (
	"time"

	"tangent-backend/domain/core/valueobjects"
	pkgerrors "tangent-backend/pkg/errors"
)

// QuoteLink records that a character span of a specific message is the
// provenance of a branched block. It feeds the highlight and footnote
// rendering; context composition never reads it.
type QuoteLink struct {
	id              valueobjects.LinkID
	sourceMessageID valueobjects.MessageID
	targetBlockID   valueobjects.NodeID
	span            valueobjects.QuoteSpan
	createdAt       time.Time
}

// NewQuoteLink creates a provenance record for a branch
func NewQuoteLink(
	sourceMessageID valueobjects.MessageID,
	targetBlockID valueobjects.NodeID,
	span valueobjects.QuoteSpan,
) (*QuoteLink, error) {
	if sourceMessageID.IsZero() {
		return nil, pkgerrors.NewValidationError("quote link requires a source message")
	}
	if targetBlockID.IsZero() {
		return nil, pkgerrors.NewValidationError("quote link requires a target block")
	}

	return &QuoteLink{
		id:              valueobjects.NewLinkID(),
		sourceMessageID: sourceMessageID,
		targetBlockID:   targetBlockID,
		span:            span,
		createdAt:       time.Now(),
	}, nil
}

// ReconstructQuoteLink rebuilds a quote link from repository data
func ReconstructQuoteLink(
	id valueobjects.LinkID,
	sourceMessageID valueobjects.MessageID,
	targetBlockID valueobjects.NodeID,
	span valueobjects.QuoteSpan,
	createdAt time.Time,
) *QuoteLink {
	return &QuoteLink{
		id:              id,
		sourceMessageID: sourceMessageID,
		targetBlockID:   targetBlockID,
		span:            span,
		createdAt:       createdAt,
	}
}

// ID returns the quote link identifier
func (q *QuoteLink) ID() valueobjects.LinkID { return q.id }

// SourceMessageID returns the quoted message
func (q *QuoteLink) SourceMessageID() valueobjects.MessageID { return q.sourceMessageID }

// TargetBlockID returns the branched block
func (q *QuoteLink) TargetBlockID() valueobjects.NodeID { return q.targetBlockID }

// Span returns the quoted character range
func (q *QuoteLink) Span() valueobjects.QuoteSpan { return q.span }

// CreatedAt returns when the branch was created
func (q *QuoteLink) CreatedAt() time.Time { return q.createdAt }
