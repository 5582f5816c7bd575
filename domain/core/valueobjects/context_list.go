package valueobjects

import "encoding/json"

// ContextList is an ordered, deduplicated sequence of message identifiers.
// It is the type behind a chat block's inherited context: the ancestor
// messages carried forward when a block is branched from a quoted span.
//
// Ordering is insertion order and duplicates are dropped on append (a stable
// set-union, never a sort). AI providers are sensitive to message ordering
// and duplicated turns degrade response quality, so both properties are
// enforced here rather than left to callers.
type ContextList struct {
	ids  []MessageID
	seen map[string]struct{}
}

// NewContextList creates an empty ContextList
func NewContextList() ContextList {
	return ContextList{seen: make(map[string]struct{})}
}

// NewContextListFromIDs creates a ContextList from a slice of identifiers,
// dropping duplicates while preserving first-occurrence order.
func NewContextListFromIDs(ids []MessageID) ContextList {
	list := NewContextList()
	for _, id := range ids {
		list.append(id)
	}
	return list
}

// NewContextListFromStrings creates a ContextList from raw identifier
// strings, validating each. Used when loading a persisted list.
func NewContextListFromStrings(raw []string) (ContextList, error) {
	list := NewContextList()
	for _, s := range raw {
		id, err := NewMessageIDFromString(s)
		if err != nil {
			return ContextList{}, err
		}
		list.append(id)
	}
	return list, nil
}

// ComposeBranchContext merges a parent block's inherited context with the
// message identifiers visible in the parent up to the fork point. The
// parent's inherited context comes first so ancestor turns precede newer
// ones; identifiers already present are not repeated, so a grandparent's
// context never appears twice however deep the branch chain stacks.
func ComposeBranchContext(parentInherited ContextList, visibleUpToFork []MessageID) ContextList {
	composed := NewContextList()
	for _, id := range parentInherited.ids {
		composed.append(id)
	}
	for _, id := range visibleUpToFork {
		composed.append(id)
	}
	return composed
}

// Append returns a new ContextList with the identifier added, unless it is
// already present. The receiver is not modified.
func (c ContextList) Append(id MessageID) ContextList {
	next := c.clone()
	next.append(id)
	return next
}

// Contains reports whether the identifier is present
func (c ContextList) Contains(id MessageID) bool {
	if c.seen == nil {
		return false
	}
	_, ok := c.seen[id.String()]
	return ok
}

// IDs returns the identifiers in order. The returned slice is a copy.
func (c ContextList) IDs() []MessageID {
	out := make([]MessageID, len(c.ids))
	copy(out, c.ids)
	return out
}

// Strings returns the identifiers in order as raw strings
func (c ContextList) Strings() []string {
	out := make([]string, len(c.ids))
	for i, id := range c.ids {
		out[i] = id.String()
	}
	return out
}

// Len returns the number of identifiers
func (c ContextList) Len() int { return len(c.ids) }

// IsEmpty reports whether the list holds no identifiers
func (c ContextList) IsEmpty() bool { return len(c.ids) == 0 }

// Equals checks element-wise equality in order
func (c ContextList) Equals(other ContextList) bool {
	if len(c.ids) != len(other.ids) {
		return false
	}
	for i := range c.ids {
		if !c.ids[i].Equals(other.ids[i]) {
			return false
		}
	}
	return true
}

// MarshalJSON implements json.Marshaler as a plain ordered array
func (c ContextList) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Strings())
}

// UnmarshalJSON implements json.Unmarshaler
func (c *ContextList) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list, err := NewContextListFromStrings(raw)
	if err != nil {
		return err
	}
	*c = list
	return nil
}

// internal mutating append; only reachable from constructors and clones
func (c *ContextList) append(id MessageID) {
	if id.IsZero() {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	key := id.String()
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.ids = append(c.ids, id)
}

func (c ContextList) clone() ContextList {
	next := NewContextList()
	for _, id := range c.ids {
		next.append(id)
	}
	return next
}
