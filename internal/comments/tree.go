// Package comments turns the flat comment rows of a thread into a display
// forest and the navigation lookups used by the thread page.
package comments

import (
	"slices"
	"time"
)

// MaxNestingDepth caps visual indentation. Deeper replies still nest in the
// forest; they are only drawn at this depth.
const MaxNestingDepth = 6

// Comment is one comment row as loaded for a thread.
type Comment struct {
	ID                int64
	ThreadID          int64
	Body              string
	CreatedAt         time.Time
	AuthorID          *string // nil once the author deleted their account
	ParentID          *int64  // nil for top-level comments
	AuthorDisplayName *string
	IsDeleted         bool
}

// Node is a comment together with its replies in display order.
type Node struct {
	Comment
	Children []*Node
}

// IndentDepth clamps a nesting depth to the range drawn on screen.
func IndentDepth(depth int) int {
	if depth < 0 {
		return 0
	}
	if depth > MaxNestingDepth {
		return MaxNestingDepth
	}
	return depth
}

// BuildTree arranges comments into a forest.
//
// A comment hangs under its parent when the parent is part of the same batch;
// otherwise it becomes a root. Roots are ordered newest first and replies
// oldest first. Parent cycles are cut so every comment appears exactly once.
func BuildTree(list []Comment) []*Node {
	roots := make([]*Node, 0)
	if len(list) == 0 {
		return roots
	}

	ordered := byCreation(list)
	parents := resolveParents(ordered)

	nodes := make(map[int64]*Node, len(ordered))
	all := make([]*Node, len(ordered))
	for i := range ordered {
		n := &Node{Comment: ordered[i]}
		all[i] = n
		nodes[n.ID] = n
	}

	for _, n := range all {
		if pid, ok := parents[n.ID]; ok {
			parent := nodes[pid]
			parent.Children = append(parent.Children, n)
			continue
		}
		roots = append(roots, n)
	}

	sortNewestFirst(roots)
	return roots
}

// byCreation returns a copy of list ordered by CreatedAt ascending. Equal
// timestamps keep their input order.
func byCreation(list []Comment) []Comment {
	ordered := slices.Clone(list)
	slices.SortStableFunc(ordered, func(a, b Comment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return ordered
}

func sortNewestFirst(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

const (
	unvisited uint8 = iota
	onPath
	settled
)

// resolveParents maps each comment id to the parent it attaches to. Parents
// outside the batch are dropped, and each parent cycle loses the link of the
// comment at which the upward walk first comes back on itself.
func resolveParents(ordered []Comment) map[int64]int64 {
	known := make(map[int64]struct{}, len(ordered))
	for _, c := range ordered {
		known[c.ID] = struct{}{}
	}

	parents := make(map[int64]int64, len(ordered))
	for _, c := range ordered {
		if c.ParentID == nil {
			continue
		}
		if _, ok := known[*c.ParentID]; ok {
			parents[c.ID] = *c.ParentID
		}
	}

	state := make(map[int64]uint8, len(ordered))
	path := make([]int64, 0, 8)
	for _, c := range ordered {
		path = path[:0]
		cur := c.ID
		for {
			if state[cur] == settled {
				break
			}
			if state[cur] == onPath {
				delete(parents, cur)
				break
			}
			state[cur] = onPath
			path = append(path, cur)
			next, ok := parents[cur]
			if !ok {
				break
			}
			cur = next
		}
		for _, id := range path {
			state[id] = settled
		}
	}
	return parents
}
