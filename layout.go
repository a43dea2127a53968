package bptree

import "unsafe"

// nodeSize is the byte budget a node's key (and, for inner nodes, child
// pointer) region is sized against. The original C++ node this budget is
// inherited from packs everything into a raw 256-byte block; Go cannot safely store
// live pointers inside a byte buffer (the garbage collector cannot see
// them there), so this package keeps the same arithmetic but lays keys and
// children out as typed, fixed-capacity slices instead. See DESIGN.md.
const nodeSize = 256

// headerSize models the packed count/leaf-flag header. The original C++
// node reserves a full 8-byte word for it (7-bit count, 1-bit leaf flag,
// 56 bits of struct padding); Go has no equivalent padding to account for,
// so only the single byte that actually carries information is budgeted.
const headerSize = 1

// Layout holds the per-node capacity constants for a given key type K,
// derived once from a 256-byte node budget the same way the original
// BPNodeLayout<T> does. It is exported so a custom Allocator can size the
// nodes it hands back without reaching into package internals.
type Layout[K any] struct {
	MaxLeafKeys  int
	MinLeafKeys  int
	MaxInnerKeys int
	MinInnerKeys int
}

// NewLayout computes the node layout for key type K. It panics if K has
// zero size, if K is so large that fewer than three keys would fit a node
// (the tree could not maintain a fill factor), or if the leaf capacity
// would not fit the 7-bit count field the header format assumes — the
// closest Go analogue of the header's static_assert(kMaxLeafKeys < 128).
func NewLayout[K any]() Layout[K] {
	var zero K
	keySize := int(unsafe.Sizeof(zero))
	if keySize == 0 {
		panic("bptree: key type must have non-zero size")
	}
	ptrSize := int(unsafe.Sizeof(uintptr(0)))

	maxLeaf := (nodeSize - headerSize) / keySize
	maxInner := (nodeSize - headerSize - ptrSize) / (keySize + ptrSize)

	if maxLeaf < 3 || maxInner < 3 {
		panic("bptree: key type too large to fit a useful 256-byte node")
	}
	if maxLeaf >= 128 {
		panic("bptree: maxLeafKeys must fit in a 7-bit count field")
	}

	return Layout[K]{
		MaxLeafKeys:  maxLeaf,
		MinLeafKeys:  maxLeaf / 2,
		MaxInnerKeys: maxInner,
		MinInnerKeys: maxInner / 2,
	}
}

// MaxForKind returns the maximum key count for a leaf or inner node.
func (l Layout[K]) MaxForKind(leaf bool) int {
	if leaf {
		return l.MaxLeafKeys
	}
	return l.MaxInnerKeys
}

// MinForKind returns the minimum key count a non-root leaf or inner node
// must maintain.
func (l Layout[K]) MinForKind(leaf bool) int {
	if leaf {
		return l.MinLeafKeys
	}
	return l.MinInnerKeys
}
