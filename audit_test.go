package bptree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func intCmp(a, b int) int { return a - b }

// auditTree walks the whole tree once, checking every invariant spec.md
// §8 lists: uniform leaf depth, min/max fill (root exempt), strictly
// increasing keys within a node, inner-node keys correctly bounding
// their children, correct size augmentation, and that an in-order
// traversal yields the same strictly increasing sequence Ascend does.
func auditTree[K any](t *testing.T, tree *Tree[K], cmp Cmp[K]) {
	t.Helper()
	if tree.root == nil {
		require.Zero(t, tree.size, "empty tree should report size 0")
		return
	}

	leafDepth := -1
	var walk func(n *Node[K], depth int, lower, upper *K)
	walk = func(n *Node[K], depth int, lower, upper *K) {
		if n.leaf {
			if leafDepth == -1 {
				leafDepth = depth
			} else {
				require.Equal(t, leafDepth, depth, "leaf depth must be uniform across the tree")
			}
		}

		isRoot := n == tree.root
		maxKeys := tree.layout.MaxForKind(n.leaf)
		minKeys := tree.layout.MinForKind(n.leaf)
		require.LessOrEqual(t, len(n.keys), maxKeys, "node exceeds max fill")
		if !isRoot {
			require.GreaterOrEqual(t, len(n.keys), minKeys, "non-root node below min fill")
		}
		if isRoot && !n.leaf {
			require.NotZero(t, len(n.keys), "inner root with 0 keys should have been collapsed")
		}

		for i := 1; i < len(n.keys); i++ {
			require.Less(t, cmp(n.keys[i-1], n.keys[i]), 0, "keys must be strictly increasing within a node")
		}
		if lower != nil && len(n.keys) > 0 {
			require.Less(t, cmp(*lower, n.keys[0]), 0, "node's first key must exceed its lower bound")
		}
		if upper != nil && len(n.keys) > 0 {
			require.Less(t, cmp(n.keys[len(n.keys)-1], *upper), 0, "node's last key must precede its upper bound")
		}

		if !n.leaf {
			require.Equal(t, len(n.keys)+1, len(n.children), "inner node child count must be key count + 1")
			for i, c := range n.children {
				var lo, hi *K
				if i > 0 {
					lo = &n.keys[i-1]
				} else {
					lo = lower
				}
				if i < len(n.keys) {
					hi = &n.keys[i]
				} else {
					hi = upper
				}
				walk(c, depth+1, lo, hi)
			}
		}

		wantSize := len(n.keys)
		if !n.leaf {
			for _, c := range n.children {
				wantSize += c.size
			}
		}
		require.Equal(t, wantSize, n.size, "node's size augmentation must match a fresh recomputation")
	}
	walk(tree.root, 0, nil, nil)

	require.Equal(t, tree.root.size, tree.size, "tree size must match root subtree size")

	var prev K
	havePrev := false
	count := 0
	tree.Ascend(func(k K) bool {
		if havePrev {
			require.Less(t, cmp(prev, k), 0, "Ascend must yield strictly increasing keys")
		}
		prev, havePrev = k, true
		count++
		return true
	})
	require.Equal(t, tree.size, count, "Ascend must visit exactly Size() keys")

	for i := 0; i < tree.size; i++ {
		k, ok := tree.AtRank(i)
		require.True(t, ok, "AtRank(%d) should be present in a tree of size %d", i, tree.size)
		rank, ok := tree.Rank(k)
		require.True(t, ok)
		require.Equal(t, i, rank, "Rank(AtRank(i)) must round-trip to i")
	}
}
