package valueobjects

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessageIDs(n int) []MessageID {
	ids := make([]MessageID, n)
	for i := range ids {
		ids[i] = NewMessageID()
	}
	return ids
}

func TestContextList_PreservesInsertionOrder(t *testing.T) {
	ids := newMessageIDs(4)

	list := NewContextListFromIDs(ids)

	require.Equal(t, 4, list.Len())
	for i, id := range list.IDs() {
		assert.True(t, id.Equals(ids[i]), "position %d out of order", i)
	}
}

func TestContextList_DropsDuplicatesKeepingFirstOccurrence(t *testing.T) {
	ids := newMessageIDs(3)
	input := []MessageID{ids[0], ids[1], ids[0], ids[2], ids[1]}

	list := NewContextListFromIDs(input)

	require.Equal(t, 3, list.Len())
	got := list.IDs()
	assert.True(t, got[0].Equals(ids[0]))
	assert.True(t, got[1].Equals(ids[1]))
	assert.True(t, got[2].Equals(ids[2]))
}

func TestContextList_AppendDoesNotMutateReceiver(t *testing.T) {
	ids := newMessageIDs(2)
	original := NewContextListFromIDs(ids[:1])

	extended := original.Append(ids[1])

	assert.Equal(t, 1, original.Len())
	assert.Equal(t, 2, extended.Len())
	assert.False(t, original.Contains(ids[1]))
	assert.True(t, extended.Contains(ids[1]))
}

func TestContextList_AppendIgnoresZeroID(t *testing.T) {
	list := NewContextList().Append(MessageID{})

	assert.True(t, list.IsEmpty())
}

func TestComposeBranchContext_ParentContextComesFirst(t *testing.T) {
	inherited := newMessageIDs(2)
	visible := newMessageIDs(3)

	composed := ComposeBranchContext(NewContextListFromIDs(inherited), visible)

	require.Equal(t, 5, composed.Len())
	got := composed.IDs()
	assert.True(t, got[0].Equals(inherited[0]))
	assert.True(t, got[1].Equals(inherited[1]))
	assert.True(t, got[2].Equals(visible[0]))
	assert.True(t, got[3].Equals(visible[1]))
	assert.True(t, got[4].Equals(visible[2]))
}

func TestComposeBranchContext_SharedAncestorsAppearOnce(t *testing.T) {
	// m1,m2 inherited by the parent; the parent's visible history starts
	// with m2 again then adds m3. The grandchild must see m1,m2,m3.
	ids := newMessageIDs(3)
	parentInherited := NewContextListFromIDs(ids[:2])
	visible := []MessageID{ids[1], ids[2]}

	composed := ComposeBranchContext(parentInherited, visible)

	require.Equal(t, 3, composed.Len())
	got := composed.IDs()
	for i := range ids {
		assert.True(t, got[i].Equals(ids[i]))
	}
}

func TestComposeBranchContext_EmptyParent(t *testing.T) {
	visible := newMessageIDs(2)

	composed := ComposeBranchContext(NewContextList(), visible)

	require.Equal(t, 2, composed.Len())
	assert.True(t, composed.IDs()[0].Equals(visible[0]))
}

func TestContextList_JSONRoundTrip(t *testing.T) {
	list := NewContextListFromIDs(newMessageIDs(3))

	data, err := json.Marshal(list)
	require.NoError(t, err)

	var decoded ContextList
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, list.Equals(decoded))
}

func TestContextList_UnmarshalRejectsInvalidID(t *testing.T) {
	var decoded ContextList
	err := json.Unmarshal([]byte(`["not-a-uuid"]`), &decoded)

	assert.Error(t, err)
}
