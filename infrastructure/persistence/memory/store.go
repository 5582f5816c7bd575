package memory

import (
	"sort"
	"sync"

	"tangent-backend/domain/core/aggregates"
	"tangent-backend/domain/core/entities"
)

// Store is a mutex-guarded in-memory backing store shared by the memory
// repositories. It serves unit tests and local development; the DynamoDB
// adapters are the production path.
type Store struct {
	mu sync.RWMutex

	boards   map[string]*aggregates.Board
	nodes    map[string]*entities.Node
	links    map[string]*entities.ContextLink // by link ID
	pairs    map[string]string                // "source->target" -> link ID
	messages map[string][]*entities.Message   // by owning block ID
	byMsgID  map[string]*entities.Message
	quotes   map[string]*entities.QuoteLink // by target block ID
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		boards:   make(map[string]*aggregates.Board),
		nodes:    make(map[string]*entities.Node),
		links:    make(map[string]*entities.ContextLink),
		pairs:    make(map[string]string),
		messages: make(map[string][]*entities.Message),
		byMsgID:  make(map[string]*entities.Message),
		quotes:   make(map[string]*entities.QuoteLink),
	}
}

func pairKey(sourceID, targetID string) string {
	return sourceID + "->" + targetID
}

// sortedMessages returns a block's messages ordered by creation time
func (s *Store) sortedMessages(blockID string) []*entities.Message {
	msgs := make([]*entities.Message, len(s.messages[blockID]))
	copy(msgs, s.messages[blockID])
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt().Before(msgs[j].CreatedAt())
	})
	return msgs
}
