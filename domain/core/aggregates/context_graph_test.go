package aggregates

import (
	"math/rand"
	"testing"

	"tangent-backend/domain/core/entities"
	"tangent-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLink(t *testing.T, boardID valueobjects.BoardID, src, dst valueobjects.NodeID) *entities.ContextLink {
	t.Helper()
	link, err := entities.NewContextLink(boardID, src, dst, "", "")
	require.NoError(t, err)
	return link
}

func containsNode(ids []valueobjects.NodeID, want valueobjects.NodeID) bool {
	for _, id := range ids {
		if id.Equals(want) {
			return true
		}
	}
	return false
}

func TestWouldCreateCycle_SelfLoop(t *testing.T) {
	g := NewContextGraph(nil)
	n := valueobjects.NewNodeID()

	assert.True(t, g.WouldCreateCycle(n, n))
}

func TestWouldCreateCycle_EmptyGraph(t *testing.T) {
	g := NewContextGraph(nil)

	assert.False(t, g.WouldCreateCycle(valueobjects.NewNodeID(), valueobjects.NewNodeID()))
}

func TestWouldCreateCycle_ClosingEdgeOnChain(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b, c := valueobjects.NewNodeID(), valueobjects.NewNodeID(), valueobjects.NewNodeID()

	// a -> b -> c
	g := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, b, c),
	})

	// c -> a closes the loop; c -> b does too
	assert.True(t, g.WouldCreateCycle(c, a))
	assert.True(t, g.WouldCreateCycle(c, b))

	// a -> c is a shortcut along existing flow, not a cycle
	assert.False(t, g.WouldCreateCycle(a, c))
}

func TestWouldCreateCycle_IgnoresDisconnectedComponent(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b := valueobjects.NewNodeID(), valueobjects.NewNodeID()
	x, y := valueobjects.NewNodeID(), valueobjects.NewNodeID()

	g := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, x, y),
	})

	assert.False(t, g.WouldCreateCycle(b, x))
	assert.False(t, g.WouldCreateCycle(y, a))
}

func TestAncestors_Chain(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b, c := valueobjects.NewNodeID(), valueobjects.NewNodeID(), valueobjects.NewNodeID()

	g := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, b, c),
	})

	ancestors := g.Ancestors(c)

	require.Len(t, ancestors, 2)
	assert.True(t, containsNode(ancestors, a))
	assert.True(t, containsNode(ancestors, b))

	assert.Empty(t, g.Ancestors(a))
}

func TestAncestors_DiamondDeduplicates(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	top := valueobjects.NewNodeID()
	left, right := valueobjects.NewNodeID(), valueobjects.NewNodeID()
	bottom := valueobjects.NewNodeID()

	// top feeds both sides, both sides feed bottom
	g := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, top, left),
		mustLink(t, boardID, top, right),
		mustLink(t, boardID, left, bottom),
		mustLink(t, boardID, right, bottom),
	})

	ancestors := g.Ancestors(bottom)

	require.Len(t, ancestors, 3)
	assert.True(t, containsNode(ancestors, top))
	assert.True(t, containsNode(ancestors, left))
	assert.True(t, containsNode(ancestors, right))
}

func TestAncestors_ExcludesSelf(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b := valueobjects.NewNodeID(), valueobjects.NewNodeID()

	g := NewContextGraph([]*entities.ContextLink{mustLink(t, boardID, a, b)})

	assert.False(t, containsNode(g.Ancestors(b), b))
}

func TestDescendants_MirrorsAncestors(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b, c := valueobjects.NewNodeID(), valueobjects.NewNodeID(), valueobjects.NewNodeID()

	g := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, b, c),
	})

	descendants := g.Descendants(a)

	require.Len(t, descendants, 2)
	assert.True(t, containsNode(descendants, b))
	assert.True(t, containsNode(descendants, c))
	assert.Empty(t, g.Descendants(c))
}

func TestHasCycle_DetectsLoop(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b, c := valueobjects.NewNodeID(), valueobjects.NewNodeID(), valueobjects.NewNodeID()

	acyclic := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, b, c),
	})
	assert.False(t, acyclic.HasCycle())

	cyclic := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, b, c),
		mustLink(t, boardID, c, a),
	})
	assert.True(t, cyclic.HasCycle())
}

// Random edge sequences: every edge admitted by the incremental guard
// must keep the graph acyclic, and every edge the guard rejects must
// close a cycle when force-added. Cross-checks the two traversals
// against each other.
func TestWouldCreateCycle_AgreesWithHasCycle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	boardID := valueobjects.NewBoardID()

	for trial := 0; trial < 50; trial++ {
		nodes := make([]valueobjects.NodeID, 8)
		for i := range nodes {
			nodes[i] = valueobjects.NewNodeID()
		}

		var accepted []*entities.ContextLink
		for attempt := 0; attempt < 40; attempt++ {
			src := nodes[rng.Intn(len(nodes))]
			dst := nodes[rng.Intn(len(nodes))]

			g := NewContextGraph(accepted)
			if src.Equals(dst) {
				assert.True(t, g.WouldCreateCycle(src, dst))
				continue
			}
			if g.WouldCreateCycle(src, dst) {
				forced := append(append([]*entities.ContextLink{}, accepted...),
					mustLink(t, boardID, src, dst))
				assert.True(t, NewContextGraph(forced).HasCycle(),
					"guard rejected an edge that does not close a cycle")
				continue
			}

			accepted = append(accepted, mustLink(t, boardID, src, dst))
			assert.False(t, NewContextGraph(accepted).HasCycle(),
				"guard admitted an edge that closed a cycle")
		}
	}
}

func TestEdgeCount(t *testing.T) {
	boardID := valueobjects.NewBoardID()
	a, b, c := valueobjects.NewNodeID(), valueobjects.NewNodeID(), valueobjects.NewNodeID()

	g := NewContextGraph([]*entities.ContextLink{
		mustLink(t, boardID, a, b),
		mustLink(t, boardID, a, c),
	})

	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 0, NewContextGraph(nil).EdgeCount())
}
