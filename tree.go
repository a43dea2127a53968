package bptree

import "fmt"

// defaultFreelistCapacity bounds how many retired nodes a Tree's default
// Freelist holds onto when the caller does not supply their own
// Allocator.
const defaultFreelistCapacity = 32

// Tree is an in-memory, rank-augmented B+tree over keys of type K,
// ordered by a caller-supplied three-way comparator. It is not safe for
// concurrent use by multiple goroutines; callers that need concurrent
// access are expected to shard across multiple Tree instances sharing
// one Allocator, the way a Redis-style keyspace shards its indexes.
type Tree[K any] struct {
	root   *Node[K]
	size   int
	cmp    Cmp[K]
	alloc  Allocator[K]
	layout Layout[K]
}

// New creates an empty Tree using cmp to order keys. If alloc is nil, a
// private Freelist is created for this tree alone.
func New[K any](cmp Cmp[K], alloc Allocator[K]) *Tree[K] {
	if cmp == nil {
		panic("bptree: nil comparator")
	}
	layout := NewLayout[K]()
	if alloc == nil {
		alloc = NewFreelist[K](layout, defaultFreelistCapacity)
	}
	return &Tree[K]{cmp: cmp, alloc: alloc, layout: layout}
}

// Size returns the number of keys currently stored.
func (t *Tree[K]) Size() int { return t.size }

// Contains reports whether key is present.
func (t *Tree[K]) Contains(key K) bool {
	n := t.root
	for n != nil {
		idx, found := n.search(key, t.cmp)
		if found {
			return true
		}
		if n.leaf {
			return false
		}
		n = n.children[idx]
	}
	return false
}

// Find descends to key and returns the Path that reaches it, or ok=false
// if key is absent (in which case the returned Path is nil). The
// returned Path is invalidated by the next mutation of t.
func (t *Tree[K]) Find(key K) (*Path[K], bool) {
	if t.root == nil {
		return nil, false
	}
	path := &Path[K]{}
	if !t.descend(path, key) {
		return nil, false
	}
	return path, true
}

// descend walks from the root toward key, pushing every node visited
// (including the leaf, or the inner node the key was found in) onto
// path, and reports whether key was found.
func (t *Tree[K]) descend(path *Path[K], key K) bool {
	n := t.root
	for {
		idx, found := n.search(key, t.cmp)
		path.push(n, idx)
		if found || n.leaf {
			return found
		}
		n = n.children[idx]
	}
}

// Min returns the smallest key, or ok=false on an empty tree.
func (t *Tree[K]) Min() (K, bool) {
	var zero K
	if t.root == nil {
		return zero, false
	}
	n := t.root
	for !n.leaf {
		n = n.children[0]
	}
	if len(n.keys) == 0 {
		return zero, false
	}
	return n.keys[0], true
}

// Max returns the largest key, or ok=false on an empty tree.
func (t *Tree[K]) Max() (K, bool) {
	var zero K
	if t.root == nil {
		return zero, false
	}
	n := t.root
	for !n.leaf {
		n = n.children[len(n.children)-1]
	}
	if len(n.keys) == 0 {
		return zero, false
	}
	return n.keys[len(n.keys)-1], true
}

// Ascend visits every key in increasing order, stopping early if visit
// returns false.
func (t *Tree[K]) Ascend(visit func(K) bool) {
	if t.root != nil {
		t.root.ascend(t.cmp, nil, nil, visit)
	}
}

// AscendRange visits every key in [lo, hi) in increasing order, stopping
// early if visit returns false.
func (t *Tree[K]) AscendRange(lo, hi K, visit func(K) bool) {
	if t.root != nil {
		t.root.ascend(t.cmp, &lo, &hi, visit)
	}
}

// Descend visits every key in decreasing order, stopping early if visit
// returns false.
func (t *Tree[K]) Descend(visit func(K) bool) {
	if t.root != nil {
		t.root.descend(visit)
	}
}

// Rank returns the number of keys strictly less than key, i.e. key's
// zero-based position in sorted order, and ok=false if key is absent.
func (t *Tree[K]) Rank(key K) (rank int, ok bool) {
	n := t.root
	for n != nil {
		idx, found := n.search(key, t.cmp)
		for i := 0; i < idx; i++ {
			if !n.leaf {
				rank += n.children[i].size
			}
			rank++
		}
		if found {
			if !n.leaf {
				rank += n.children[idx].size
			}
			return rank, true
		}
		if n.leaf {
			return 0, false
		}
		n = n.children[idx]
	}
	return 0, false
}

// AtRank returns the key at zero-based sorted position i, and ok=false
// if i is outside [0, Size()).
func (t *Tree[K]) AtRank(i int) (K, bool) {
	var zero K
	if t.root == nil || i < 0 || i >= t.size {
		return zero, false
	}
	n := t.root
	remaining := i
outer:
	for {
		if n.leaf {
			return n.keys[remaining], true
		}
		for idx := 0; idx <= len(n.keys); idx++ {
			childSize := n.children[idx].size
			if remaining < childSize {
				n = n.children[idx]
				continue outer
			}
			remaining -= childSize
			if idx < len(n.keys) {
				if remaining == 0 {
					return n.keys[idx], true
				}
				remaining--
			}
		}
		panic("bptree: at_rank descent exhausted a node without a match")
	}
}

// Clear empties the tree, returning every node to the allocator.
func (t *Tree[K]) Clear() {
	if t.root != nil {
		t.freeSubtree(t.root)
	}
	t.root = nil
	t.size = 0
}

func (t *Tree[K]) freeSubtree(n *Node[K]) {
	if !n.leaf {
		for _, c := range n.children {
			t.freeSubtree(c)
		}
	}
	t.alloc.FreeNode(n)
}

// Insert adds key if absent, reporting whether it was actually inserted.
// It returns an error only if the allocator cannot supply enough nodes
// for the worst-case cascade of splits; in that case the tree is left
// exactly as it was, since every node the operation might need is
// reserved before any existing node is touched.
func (t *Tree[K]) Insert(key K) (bool, error) {
	if t.root == nil {
		n, err := t.alloc.AllocateNode(true)
		if err != nil {
			return false, fmt.Errorf("bptree: allocate root: %w", err)
		}
		n.leafInsert(0, key)
		t.root = n
		t.size = 1
		return true, nil
	}

	path := &Path[K]{}
	if t.descend(path, key) {
		return false, nil
	}

	leaf, pos := path.last()
	if len(leaf.keys) < t.layout.MaxForKind(true) {
		leaf.leafInsert(pos, key)
		t.recomputeSizes(path)
		t.size++
		return true, nil
	}

	pool, err := t.reserveForInsert(path.Depth())
	if err != nil {
		return false, err
	}
	defer pool.freeUnused(t.alloc)

	t.insertWithRepair(path, key, pool)
	t.size++
	t.recomputeSizes(path)
	return true, nil
}

// insertWithRepair walks path bottom-up, splitting or rebalancing full
// nodes as needed until key (or a median promoted from a split below)
// finds a home, per spec.md §4.2 steps 4-6.
func (t *Tree[K]) insertWithRepair(path *Path[K], key K, pool *nodePool[K]) {
	level := path.Depth() - 1
	pendingKey := key
	var pendingChild *Node[K]

	for {
		node := path.node(level)
		pos := path.position(level)
		maxKeys := t.layout.MaxForKind(node.leaf)

		if len(node.keys) < maxKeys {
			if pendingChild == nil {
				node.leafInsert(pos, pendingKey)
			} else {
				node.innerInsert(pos, pendingKey, pendingChild)
			}
			return
		}

		if level > 0 {
			parent := path.node(level - 1)
			parentChildIdx := path.position(level - 1)
			if target, newPos, ok := parent.rebalanceChildForInsert(parentChildIdx, pos); ok {
				if pendingChild == nil {
					target.leafInsert(newPos, pendingKey)
				} else {
					target.innerInsert(newPos, pendingKey, pendingChild)
				}
				return
			}
		}

		right := pool.take(node.leaf)
		median := node.split(right)
		leftLen := len(node.keys)

		var target *Node[K]
		var newPos int
		if pos <= leftLen {
			target, newPos = node, pos
		} else {
			target, newPos = right, pos-leftLen-1
		}
		if pendingChild == nil {
			target.leafInsert(newPos, pendingKey)
		} else {
			target.innerInsert(newPos, pendingKey, pendingChild)
		}

		if level == 0 {
			newRoot := pool.take(false)
			newRoot.keys = newRoot.keys[:1]
			newRoot.keys[0] = median
			newRoot.children = newRoot.children[:2]
			newRoot.children[0] = node
			newRoot.children[1] = right
			newRoot.recomputeSize()
			t.root = newRoot
			return
		}

		pendingKey = median
		pendingChild = right
		level--
	}
}

func (t *Tree[K]) recomputeSizes(path *Path[K]) {
	for level := path.Depth() - 1; level >= 0; level-- {
		path.node(level).recomputeSize()
	}
}

// nodePool is a small stack of pre-allocated nodes reserved up front so
// that insertWithRepair never needs to allocate mid-operation: if
// reservation fails, nothing about the tree has changed yet.
type nodePool[K any] struct {
	nodes []*Node[K]
	used  int
}

func (p *nodePool[K]) take(leaf bool) *Node[K] {
	n := p.nodes[p.used]
	p.used++
	n.leaf = leaf
	n.keys = n.keys[:0]
	if leaf {
		n.children = nil
	} else if n.children == nil {
		n.children = make([]*Node[K], 0, cap(n.keys)+1)
	} else {
		n.children = n.children[:0]
	}
	n.size = 0
	return n
}

func (p *nodePool[K]) freeUnused(alloc Allocator[K]) {
	for _, n := range p.nodes[p.used:] {
		alloc.FreeNode(n)
	}
}

// reserveForInsert allocates the worst-case number of nodes an insertion
// starting at a leaf pathDepth levels deep could need: one leaf-kind
// sibling for a possible leaf split, one inner-kind sibling per ancestor
// for a possible cascading split, and one inner-kind node for a possible
// new root.
func (t *Tree[K]) reserveForInsert(pathDepth int) (*nodePool[K], error) {
	count := pathDepth + 1
	nodes := make([]*Node[K], 0, count)
	for i := 0; i < count; i++ {
		leaf := i == 0
		n, err := t.alloc.AllocateNode(leaf)
		if err != nil {
			for _, held := range nodes {
				t.alloc.FreeNode(held)
			}
			return nil, fmt.Errorf("bptree: reserve nodes for insert: %w", err)
		}
		nodes = append(nodes, n)
	}
	return &nodePool[K]{nodes: nodes}, nil
}

// Remove deletes key, reporting whether it was present.
func (t *Tree[K]) Remove(key K) bool {
	if t.root == nil {
		return false
	}
	path := &Path[K]{}
	if !t.descend(path, key) {
		return false
	}

	node, pos := path.last()
	if node.leaf {
		node.shiftLeft(pos, false)
		node.size--
	} else {
		path.digRight(node.children[pos])
		predLeaf, predPos := path.last()
		node.setKey(pos, predLeaf.key(predPos))
		predLeaf.shiftLeft(predPos, false)
		predLeaf.size--
	}

	t.repairAfterDelete(path)
	t.recomputeSizes(path)
	t.collapseRoot()
	t.size--
	return true
}

// repairAfterDelete walks path bottom-up, merging or rebalancing any
// node that fell below its minimum fill after the delete, per spec.md
// §4.2's deletion algorithm.
func (t *Tree[K]) repairAfterDelete(path *Path[K]) {
	for level := path.Depth() - 1; level > 0; level-- {
		child := path.node(level)
		if len(child.keys) >= t.layout.MinForKind(child.leaf) {
			break
		}
		parent := path.node(level - 1)
		if retired := parent.mergeOrRebalanceChild(path.position(level - 1)); retired != nil {
			t.alloc.FreeNode(retired)
		}
	}
}

// collapseRoot drops a level when the root becomes an empty inner node
// (its last key was merged away, leaving exactly one child), and clears
// the root entirely once the last key in the tree is removed.
func (t *Tree[K]) collapseRoot() {
	if t.root == nil {
		return
	}
	if !t.root.leaf && len(t.root.keys) == 0 {
		old := t.root
		t.root = t.root.children[0]
		t.alloc.FreeNode(old)
		return
	}
	if t.root.leaf && len(t.root.keys) == 0 {
		t.alloc.FreeNode(t.root)
		t.root = nil
	}
}
