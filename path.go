package bptree

// maxDepth bounds how deep a tree can grow; spec.md places trees deeper
// than 16 levels out of scope, so Path can be a fixed array instead of a
// growable stack, with no allocation on the traversal hot path.
const maxDepth = 16

type pathStep[K any] struct {
	node *Node[K]
	pos  int
}

// Path is a non-owning, fixed-depth stack of (node, index) pairs
// describing a root-to-leaf traversal, used in place of parent pointers
// to walk back up the tree after an insert or delete. A Path is only
// valid until the next mutation of the tree it came from.
type Path[K any] struct {
	steps [maxDepth]pathStep[K]
	depth int
}

func (p *Path[K]) push(n *Node[K], pos int) {
	if p.depth >= maxDepth {
		panic("bptree: path exceeds maximum tree depth")
	}
	p.steps[p.depth] = pathStep[K]{node: n, pos: pos}
	p.depth++
}

func (p *Path[K]) pop() {
	if p.depth == 0 {
		panic("bptree: pop of an empty path")
	}
	p.depth--
}

// Depth reports how many (node, index) records are currently on the
// path.
func (p *Path[K]) Depth() int { return p.depth }

func (p *Path[K]) last() (*Node[K], int) {
	if p.depth == 0 {
		panic("bptree: last of an empty path")
	}
	return p.steps[p.depth-1].node, p.steps[p.depth-1].pos
}

func (p *Path[K]) node(i int) *Node[K] { return p.steps[i].node }
func (p *Path[K]) position(i int) int  { return p.steps[i].pos }

// digRight pushes start and then every rightmost descendant of start
// until a leaf is reached, pushing the leaf itself with the index of its
// last key. It is used to locate the in-order predecessor of a key that
// was found inside an inner node: the predecessor is always the maximum
// key of the left child's subtree, reached by always taking the
// rightmost child.
func (p *Path[K]) digRight(start *Node[K]) {
	n := start
	for {
		if n.leaf {
			p.push(n, len(n.keys)-1)
			return
		}
		pos := len(n.keys)
		p.push(n, pos)
		n = n.children[pos]
	}
}
