package prop

// --------------------------------------------------------------------------
// Property tree
// --------------------------------------------------------------------------

// Tree is the "/" directory of one object. The zero Tree is an empty,
// ready to use directory.
//
// Thread-safety: Tree is not safe for concurrent use. Callers serialize
// every access, including reads (reads may page in values).
type Tree struct {
	root *Node
}

// NewTree returns an empty tree
func NewTree() *Tree {
	return &Tree{}
}

// Get resolves path to its node. It returns nil if any segment is missing
// or the path is degenerate.
func (t *Tree) Get(path string) *Node {
	segs := Split(path)
	if len(segs) == 0 {
		return nil
	}
	level := t.root
	for i, s := range segs {
		n := find(level, s)
		if n == nil {
			return nil
		}
		if i == len(segs)-1 {
			return n
		}
		level = n.dir
	}
	return nil
}

// Create resolves path to its node, creating every missing intermediate
// directory and the target itself. Calling Create twice with the same path
// returns the same node. It returns nil only for a degenerate path.
func (t *Tree) Create(path string) *Node {
	segs := Split(path)
	if len(segs) == 0 {
		return nil
	}
	var n *Node
	t.root, n = createPath(t.root, segs)
	return n
}

func createPath(level *Node, segs []string) (*Node, *Node) {
	level, n := insert(level, segs[0])
	if len(segs) == 1 {
		return level, n
	}
	var target *Node
	n.dir, target = createPath(n.dir, segs[1:])
	return level, target
}

// Delete removes the node at path together with its whole subdirectory.
// Intermediate directories left with no children and no value are pruned.
// Deleting a path that does not resolve is a no-op; "/" itself is never
// deleted. It reports whether a node was removed.
func (t *Tree) Delete(path string) bool {
	segs := Split(path)
	if len(segs) == 0 {
		return false
	}
	var ok bool
	t.root, ok = deletePath(t.root, segs)
	return ok
}

func deletePath(level *Node, segs []string) (*Node, bool) {
	if len(segs) == 1 {
		newLevel, n := remove(level, segs[0])
		if n == nil {
			return level, false
		}
		release(n)
		return newLevel, true
	}
	n := find(level, segs[0])
	if n == nil || n.dir == nil {
		return level, false
	}
	var ok bool
	n.dir, ok = deletePath(n.dir, segs[1:])
	if ok && n.dir == nil && n.value.typ == TypeNone && !n.flags.Has(FlagDirUnloaded) {
		level, _ = remove(level, n.name)
		release(n)
	}
	return level, ok
}

// level returns the sibling tree of the directory at path ("/" for the top)
func (t *Tree) level(path string) (*Node, bool) {
	segs := Split(path)
	if len(segs) == 0 {
		return t.root, true
	}
	n := t.Get(path)
	if n == nil {
		return nil, false
	}
	return n.dir, true
}

// FirstChild returns the child of dir with the smallest name
func (t *Tree) FirstChild(dir string) *Node {
	level, ok := t.level(dir)
	if !ok {
		return nil
	}
	return first(level)
}

// NextChild returns the sibling that follows the last segment of path. The
// node at path does not need to exist anymore.
func (t *Tree) NextChild(path string) *Node {
	name := Basename(path)
	if name == "" {
		return nil
	}
	level, ok := t.level(Dirname(path))
	if !ok {
		return nil
	}
	return next(level, name)
}

// IsDir reports whether path resolves to a node with a non-empty
// subdirectory
func (t *Tree) IsDir(path string) bool {
	if len(Split(path)) == 0 {
		return t.root != nil
	}
	n := t.Get(path)
	return n != nil && n.HasDir()
}

// Copy returns an independent deep copy of the tree
func (t *Tree) Copy() *Tree {
	return &Tree{root: copyTree(t.root)}
}

// CopyFrom replaces the content of t by a deep copy of src
func (t *Tree) CopyFrom(src *Tree) {
	root := copyTree(src.root)
	release(t.root)
	t.root = root
}

// Size returns the approximate memory footprint of the tree in bytes
func (t *Tree) Size() int {
	return sizeTree(t.root)
}

// Clear releases every node of the tree
func (t *Tree) Clear() {
	release(t.root)
	t.root = nil
}

// Len returns the number of top-level properties
func (t *Tree) Len() int {
	return countTree(t.root)
}

// Empty reports whether the tree holds no property
func (t *Tree) Empty() bool {
	return t.root == nil
}

// Root returns the top-level sibling tree (used by invariant checks)
func (t *Tree) Root() *Node {
	return t.root
}

// --------------------------------------------------------------------------
// Traversal
// --------------------------------------------------------------------------

// WalkFunc is called for every node with its full path. Returning an error
// stops the walk.
type WalkFunc func(path string, n *Node) error

// Walk visits every resident node below dir in name order. A node is
// visited before the nodes of its subdirectory, so the nodes of every
// subtree are visited consecutively. Subdirectories that are not paged in
// are not entered.
func (t *Tree) Walk(dir string, fn WalkFunc) error {
	level, ok := t.level(dir)
	if !ok {
		return nil
	}
	prefix := Clean(dir)
	if prefix == "/" {
		prefix = ""
	}
	return walk(level, prefix, fn)
}

func walk(n *Node, prefix string, fn WalkFunc) error {
	if n == nil {
		return nil
	}
	if err := walk(n.left, prefix, fn); err != nil {
		return err
	}
	path := prefix + "/" + n.name
	if err := fn(path, n); err != nil {
		return err
	}
	if err := walk(n.dir, path, fn); err != nil {
		return err
	}
	return walk(n.right, prefix, fn)
}

// FirstDirUnloaded scans the segments of path from the top and returns the
// first node whose subdirectory is not paged in, with its full path. The
// node named by the last segment is included.
func (t *Tree) FirstDirUnloaded(path string) (string, *Node) {
	level := t.root
	cur := ""
	for _, s := range Split(path) {
		n := find(level, s)
		if n == nil {
			return "", nil
		}
		cur += "/" + n.name
		if n.flags.Has(FlagDirUnloaded) {
			return cur, n
		}
		level = n.dir
	}
	return "", nil
}
