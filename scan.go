package ftpaudit

import (
	"path"
	"strings"
)

// ScanLimits bounds one tree scan. The zero value scans nothing useful;
// use Unlimited() or set the fields explicitly. Limits are immutable for
// the duration of a scan.
type ScanLimits struct {
	// MaxDepth is the deepest directory level to enter below the starting
	// directory. 0 keeps the scan in the starting directory; negative
	// means unlimited.
	MaxDepth int

	// MaxFiles caps the total number of entries examined across the whole
	// scan. Negative means unlimited.
	MaxFiles int

	// Optimized enables the dot heuristic: a name with a dot past the
	// first character is assumed to be a file and recorded without a
	// server round-trip. Faster and quieter, at the cost of mis-filing
	// the occasional directory named like a file, such as "backup.old".
	Optimized bool
}

// Unlimited returns limits that explore everything with the heuristic on.
func Unlimited() ScanLimits {
	return ScanLimits{MaxDepth: -1, MaxFiles: -1, Optimized: true}
}

// scanState carries the mutable counters of one traversal. It is owned by
// exactly one Scan call and threaded explicitly through the recursion.
type scanState struct {
	// seen counts every entry examined so far, expanded or not
	seen int

	// capped flips once MaxFiles is reached; every entry after that, at
	// any depth, is recorded as Truncated with no further server traffic
	capped bool
}

// Scan walks the remote tree depth-first from the session's current
// directory and returns it as a TreeNode (root Subtree).
//
// Per entry: when the file-count cap has been reached the entry becomes
// Truncated. Otherwise the dot heuristic classifies it; likely files
// become leaves with zero round-trips. Directory candidates at the depth
// limit become Truncated, again with no round-trip; the rest are entered
// with CWD, scanned recursively, and left with CDUP so the traversal's
// working directory is restored before the next sibling. A CWD refused by
// the server (any error kind) demotes the entry to a Leaf and the scan
// moves on.
//
// A listing refused inside an entered directory (execute-only: CWD passes,
// NLST answers 5xx) demotes that directory to a Leaf and the scan moves
// on. Every other listing failure, a refused listing of the starting
// directory itself, and a failed CDUP abort the scan: those mean the
// session is unreliable, so a partial result would not be trustworthy.
func Scan(r Remote, limits ScanLimits) (*TreeNode, error) {
	root := newSubtree()
	state := &scanState{}
	if err := scanDir(r, limits, state, 0, root); err != nil {
		return nil, err
	}
	return root, nil
}

func scanDir(r Remote, limits ScanLimits, state *scanState, depth int, node *TreeNode) error {
	entries, err := r.NameList()
	if err != nil {
		// Execute-only directory: the CWD into it succeeded but the
		// listing is refused. Below the root that refusal is a finding,
		// so the entry is demoted to a leaf and the scan moves on. At
		// the root there is nothing to report at all, so the denial
		// surfaces like any other fault.
		if depth > 0 && IsPermissionDenied(err) {
			node.Kind = Leaf
			node.Children = nil
			return nil
		}
		return err
	}

	for _, entry := range entries {
		// Servers may return full paths; the tree keys on the last segment.
		name := path.Base(entry)
		if name == "." || name == ".." || name == "/" || name == "" {
			continue
		}

		if state.capped || (limits.MaxFiles >= 0 && state.seen >= limits.MaxFiles) {
			state.capped = true
			node.Children[name] = &TreeNode{Kind: Truncated}
			continue
		}
		state.seen++

		if likelyFile(name, limits.Optimized) {
			node.Children[name] = &TreeNode{Kind: Leaf}
			continue
		}

		// Descending would exceed the depth limit: cut the branch here,
		// before spending a round-trip on it.
		if limits.MaxDepth >= 0 && depth >= limits.MaxDepth {
			node.Children[name] = &TreeNode{Kind: Truncated}
			continue
		}

		if err := r.ChangeDir(entry); err != nil {
			// Inaccessible or not a directory after all. Either way the
			// entry stays in the report as a leaf and the siblings are
			// still worth scanning.
			node.Children[name] = &TreeNode{Kind: Leaf}
			continue
		}

		child := newSubtree()
		node.Children[name] = child
		if err := scanDir(r, limits, state, depth+1, child); err != nil {
			return err
		}

		// Restoring the working directory is mandatory: every following
		// sibling is resolved relative to it.
		if err := r.ChangeDirUp(); err != nil {
			return err
		}
	}

	return nil
}

// Scan walks the tree reachable from the session's current directory.
func (s *Session) Scan(limits ScanLimits) (*TreeNode, error) {
	return Scan(s, limits)
}

// likelyFile applies the dot heuristic: names with a dot past position
// zero look like "name.ext" and are assumed to be files. Dotfiles and
// extension-less names remain directory candidates. With the optimization
// off, nothing is assumed.
func likelyFile(name string, optimized bool) bool {
	return optimized && strings.Index(name, ".") >= 1
}
