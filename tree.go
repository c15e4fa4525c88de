package ftpaudit

import (
	"fmt"
	"io"
	"path"
	"sort"
)

// NodeKind discriminates the three shapes a scanned entry can take.
type NodeKind int

const (
	// Subtree is a directory the scanner entered. Its Children map is
	// never nil; an empty map means "explored, found nothing".
	Subtree NodeKind = iota

	// Leaf is a file, or an entry the scanner could not or chose not to
	// enter (denied directories and heuristic file classifications land
	// here).
	Leaf

	// Truncated marks a branch cut off by a depth or file-count limit
	// before it could be explored. Not the same thing as an empty Subtree.
	Truncated
)

// TreeNode is one node of a scanned directory tree. The node name lives in
// the parent's Children map; the root has no name.
type TreeNode struct {
	Kind NodeKind

	// Children maps entry names to their nodes. Nil unless Kind is Subtree.
	Children map[string]*TreeNode
}

func newSubtree() *TreeNode {
	return &TreeNode{Kind: Subtree, Children: make(map[string]*TreeNode)}
}

// childNames returns the node's child names in lexical order, for
// deterministic rendering and walking.
func (n *TreeNode) childNames() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk calls fn for every node below n in lexical depth-first order. The
// path argument is slash-joined from the entry names; the root itself is
// not visited.
func (n *TreeNode) Walk(fn func(path string, node *TreeNode)) {
	n.walk("", fn)
}

func (n *TreeNode) walk(prefix string, fn func(path string, node *TreeNode)) {
	for _, name := range n.childNames() {
		child := n.Children[name]
		p := path.Join(prefix, name)
		fn(p, child)
		if child.Kind == Subtree {
			child.walk(p, fn)
		}
	}
}

// Render writes an indented listing of the tree. Directories get a
// trailing slash, truncated branches a trailing "+" (the branch exists
// but was not explored).
func (n *TreeNode) Render(w io.Writer) error {
	return n.render(w, "")
}

func (n *TreeNode) render(w io.Writer, indent string) error {
	for _, name := range n.childNames() {
		child := n.Children[name]
		var err error
		switch child.Kind {
		case Subtree:
			_, err = fmt.Fprintf(w, "%s%s/\n", indent, name)
			if err == nil {
				err = child.render(w, indent+"  ")
			}
		case Truncated:
			_, err = fmt.Fprintf(w, "%s%s +\n", indent, name)
		default:
			_, err = fmt.Fprintf(w, "%s%s\n", indent, name)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
