package bptree

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	leafColor  = color.New(color.FgGreen)
	innerColor = color.New(color.FgCyan)
)

// Dump writes a human-readable, indented rendering of the tree to w,
// colorizing leaf nodes green and inner nodes cyan. It is a debug aid
// only, not part of the tree's data-carrying interface, in the same
// spirit as the teacher's node.Print.
func (t *Tree[K]) Dump(w io.Writer) {
	if t.root == nil {
		fmt.Fprintln(w, "(empty)")
		return
	}
	dumpNode(w, t.root, 0)
}

func dumpNode[K any](w io.Writer, n *Node[K], level int) {
	indent := strings.Repeat("  ", level)
	label := innerColor.Sprintf("inner")
	if n.leaf {
		label = leafColor.Sprintf("leaf")
	}
	fmt.Fprintf(w, "%s%s(%d) %v\n", indent, label, len(n.keys), n.keys)
	if !n.leaf {
		for _, c := range n.children {
			dumpNode(w, c, level+1)
		}
	}
}
