package valueobjects

import "errors"

// QuoteSpan is the character range of a message that a branch was forked
// from. It drives the visual footnote on the child block; it plays no part
// in context composition.
type QuoteSpan struct {
	start int
	end   int
	text  string
}

// NewQuoteSpan creates a validated quote span
func NewQuoteSpan(start, end int, text string) (QuoteSpan, error) {
	if start < 0 || end < start {
		return QuoteSpan{}, errors.New("quote span range is invalid")
	}
	return QuoteSpan{start: start, end: end, text: text}, nil
}

// Start returns the span's starting character offset
func (q QuoteSpan) Start() int { return q.start }

// End returns the span's ending character offset
func (q QuoteSpan) End() int { return q.end }

// Text returns the quoted text
func (q QuoteSpan) Text() string { return q.text }

// IsZero reports whether the span is empty
func (q QuoteSpan) IsZero() bool { return q.start == 0 && q.end == 0 && q.text == "" }
