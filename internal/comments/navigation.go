package comments

// NavigationIndex answers the jump queries of the thread page: previous and
// next comment at the same level, parent, and root of a reply chain.
// It is read-only once built.
type NavigationIndex struct {
	parentOf map[int64]int64 // raw parent_id, including parents outside the batch
	attached map[int64]int64 // parent each comment hangs under in the forest
	rootOf   map[int64]int64
	cyclic   map[int64]struct{}

	topLevel    []int64
	topLevelPos map[int64]int
	siblings    map[int64][]int64
	siblingPos  map[int64]int
}

// BuildNavigationIndex indexes a batch of comments.
func BuildNavigationIndex(list []Comment) *NavigationIndex {
	ordered := byCreation(list)

	idx := &NavigationIndex{
		parentOf:    make(map[int64]int64, len(ordered)),
		rootOf:      make(map[int64]int64, len(ordered)),
		cyclic:      make(map[int64]struct{}),
		topLevelPos: make(map[int64]int),
		siblings:    make(map[int64][]int64),
		siblingPos:  make(map[int64]int),
	}
	for _, c := range ordered {
		if c.ParentID != nil {
			idx.parentOf[c.ID] = *c.ParentID
		}
	}
	idx.attached = resolveParents(ordered)

	roots := make([]*Node, 0)
	for i := range ordered {
		c := ordered[i]
		pid, ok := idx.attached[c.ID]
		if !ok {
			roots = append(roots, &Node{Comment: c})
			continue
		}
		idx.siblingPos[c.ID] = len(idx.siblings[pid])
		idx.siblings[pid] = append(idx.siblings[pid], c.ID)
	}
	sortNewestFirst(roots)
	idx.topLevel = make([]int64, len(roots))
	for i, n := range roots {
		idx.topLevel[i] = n.ID
		idx.topLevelPos[n.ID] = i
	}

	for _, c := range ordered {
		idx.resolveRoot(c.ID)
	}
	return idx
}

// ParentOf returns the parent_id recorded on the comment, whether or not that
// parent is part of the batch.
func (idx *NavigationIndex) ParentOf(id int64) (int64, bool) {
	pid, ok := idx.parentOf[id]
	return pid, ok
}

// Parent returns the loaded comment the given one replies to.
func (idx *NavigationIndex) Parent(id int64) (int64, bool) {
	pid, ok := idx.attached[id]
	return pid, ok
}

// RootOf returns the top of the reply chain containing id. A comment whose
// chain never terminates is its own root. Unknown ids map to themselves.
func (idx *NavigationIndex) RootOf(id int64) int64 {
	if root, ok := idx.rootOf[id]; ok {
		return root
	}
	return id
}

// TopLevelOrder lists root comments newest first.
func (idx *NavigationIndex) TopLevelOrder() []int64 {
	return idx.topLevel
}

// TopLevelPosition returns the index of id within TopLevelOrder.
func (idx *NavigationIndex) TopLevelPosition(id int64) (int, bool) {
	pos, ok := idx.topLevelPos[id]
	return pos, ok
}

// Siblings lists the replies to parentID oldest first.
func (idx *NavigationIndex) Siblings(parentID int64) []int64 {
	return idx.siblings[parentID]
}

// SiblingPosition returns the index of a reply among its siblings.
func (idx *NavigationIndex) SiblingPosition(id int64) (int, bool) {
	pos, ok := idx.siblingPos[id]
	return pos, ok
}

// Prev returns the comment shown before id at the same level.
func (idx *NavigationIndex) Prev(id int64) (int64, bool) {
	return idx.step(id, -1)
}

// Next returns the comment shown after id at the same level.
func (idx *NavigationIndex) Next(id int64) (int64, bool) {
	return idx.step(id, 1)
}

func (idx *NavigationIndex) step(id int64, delta int) (int64, bool) {
	if pos, ok := idx.topLevelPos[id]; ok {
		return at(idx.topLevel, pos+delta)
	}
	pid, ok := idx.attached[id]
	if !ok {
		return 0, false
	}
	return at(idx.siblings[pid], idx.siblingPos[id]+delta)
}

func at(ids []int64, i int) (int64, bool) {
	if i < 0 || i >= len(ids) {
		return 0, false
	}
	return ids[i], true
}

// ShowRootShortcut reports whether a "jump to root" control adds anything
// beyond the parent link: the root must be neither the comment nor its parent.
func (idx *NavigationIndex) ShowRootShortcut(id int64) bool {
	root := idx.RootOf(id)
	if root == id {
		return false
	}
	pid, ok := idx.parentOf[id]
	return !ok || root != pid
}

// resolveRoot walks parent links from start and memoizes the root of every
// comment on the way. Walks that run into a cycle, or into a comment already
// known to sit on one, mark each comment walked as its own root.
func (idx *NavigationIndex) resolveRoot(start int64) {
	if _, ok := idx.rootOf[start]; ok {
		return
	}
	chain := make([]int64, 0, 4)
	seen := make(map[int64]struct{})
	cur := start
	for {
		if root, ok := idx.rootOf[cur]; ok {
			if _, bad := idx.cyclic[cur]; bad {
				idx.failClosed(chain)
				return
			}
			for _, id := range chain {
				idx.rootOf[id] = root
			}
			return
		}
		if _, dup := seen[cur]; dup {
			idx.failClosed(chain)
			return
		}
		seen[cur] = struct{}{}
		chain = append(chain, cur)

		pid, ok := idx.parentOf[cur]
		if !ok || !idx.known(pid) {
			for _, id := range chain {
				idx.rootOf[id] = cur
			}
			return
		}
		cur = pid
	}
}

func (idx *NavigationIndex) failClosed(chain []int64) {
	for _, id := range chain {
		idx.rootOf[id] = id
		idx.cyclic[id] = struct{}{}
	}
}

func (idx *NavigationIndex) known(id int64) bool {
	if _, ok := idx.topLevelPos[id]; ok {
		return true
	}
	_, ok := idx.siblingPos[id]
	return ok
}
