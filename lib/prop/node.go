package prop

// --------------------------------------------------------------------------
// Property node
// --------------------------------------------------------------------------

// Node is one property of a directory level. Siblings form an AVL tree
// ordered by name (ASCII case-insensitive); dir is the root of the nested
// directory level that holds the node's child properties.
type Node struct {
	name   string
	flags  Flags
	value  Value
	left   *Node
	right  *Node
	height int
	dir    *Node

	valuePos int64 // file offset of the value, only meaningful while FlagUnloaded is set
	dirPos   int64 // file offset of the subtree, only meaningful while FlagDirUnloaded is set
}

// nodeOverhead approximates the memory footprint of a Node without payload
const nodeOverhead = 96

// Name returns the name of the node (the last path segment)
func (n *Node) Name() string { return n.name }

// Flags returns the state bits of the node
func (n *Node) Flags() Flags { return n.flags }

// SetFlags replaces the blessed and touched bits. The paging bits are
// preserved.
func (n *Node) SetFlags(f Flags) {
	paging := n.flags & (FlagUnloaded | FlagDirUnloaded)
	n.flags = f.Public() | paging
}

// Value returns the value of the node. The value of an unloaded node is
// the zero Value until it is resolved with SetLoadedValue.
func (n *Node) Value() Value { return n.value }

// Type returns the type tag of the node. Unloaded nodes report the tag
// recorded in the file.
func (n *Node) Type() Type { return n.value.typ }

// HasDir reports whether the node owns a non-empty subdirectory, or one
// that is not paged in yet.
func (n *Node) HasDir() bool {
	return n.dir != nil || n.flags.Has(FlagDirUnloaded)
}

// SetValue stores v in the node, releasing a previously owned lock.
// Ownership of a lock payload moves into the node.
func (n *Node) SetValue(v Value) {
	if n.value.typ == TypeLock && n.value.lok != nil && n.value.lok != v.lok {
		releaseLock(n.value.lok)
	}
	n.value = v
	n.flags = n.flags.Clear(FlagUnloaded)
	n.valuePos = 0
}

// clearValue drops the payload and leaves the node as a pure directory
func (n *Node) clearValue() {
	n.SetValue(Value{})
}

// MarkUnloaded records that the value of type t lives at pos in the backing
// file.
func (n *Node) MarkUnloaded(t Type, pos int64) {
	n.clearValue()
	n.value.typ = t
	n.flags = n.flags.Set(FlagUnloaded)
	n.valuePos = pos
}

// ValuePos returns the file offset of an unloaded value
func (n *Node) ValuePos() (int64, bool) {
	return n.valuePos, n.flags.Has(FlagUnloaded)
}

// SetLoadedValue replaces the offset of an unloaded node by its value
func (n *Node) SetLoadedValue(v Value) {
	n.value = v
	n.flags = n.flags.Clear(FlagUnloaded)
	n.valuePos = 0
}

// MarkDirUnloaded records that the subdirectory of the node lives at pos in
// the backing file. Any resident children are released.
func (n *Node) MarkDirUnloaded(pos int64) {
	release(n.dir)
	n.dir = nil
	n.flags = n.flags.Set(FlagDirUnloaded)
	n.dirPos = pos
}

// DirPos returns the file offset of an unloaded subdirectory
func (n *Node) DirPos() (int64, bool) {
	return n.dirPos, n.flags.Has(FlagDirUnloaded)
}

// ClearDirUnloaded marks the subdirectory as resident
func (n *Node) ClearDirUnloaded() {
	n.flags = n.flags.Clear(FlagDirUnloaded)
	n.dirPos = 0
}

// --------------------------------------------------------------------------
// Name comparison
// --------------------------------------------------------------------------

// compareNames compares two names ASCII case-insensitively
func compareNames(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := lower(a[i]), lower(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// SameName reports whether a and b name the same node. Only ASCII letters
// fold, as in the tree ordering.
func SameName(a, b string) bool {
	return compareNames(a, b) == 0
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// --------------------------------------------------------------------------
// AVL primitives
// --------------------------------------------------------------------------

func height(n *Node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func fixHeight(n *Node) {
	hl, hr := height(n.left), height(n.right)
	if hl > hr {
		n.height = hl + 1
	} else {
		n.height = hr + 1
	}
}

func balanceFactor(n *Node) int {
	return height(n.left) - height(n.right)
}

func rotateRight(n *Node) *Node {
	l := n.left
	n.left = l.right
	l.right = n
	fixHeight(n)
	fixHeight(l)
	return l
}

func rotateLeft(n *Node) *Node {
	r := n.right
	n.right = r.left
	r.left = n
	fixHeight(n)
	fixHeight(r)
	return r
}

// rebalance restores the AVL invariant at n after one insert or remove
// below it and returns the new subtree root.
func rebalance(n *Node) *Node {
	fixHeight(n)
	switch bf := balanceFactor(n); {
	case bf > 1:
		if balanceFactor(n.left) < 0 {
			n.left = rotateLeft(n.left) // double right
		}
		return rotateRight(n)
	case bf < -1:
		if balanceFactor(n.right) > 0 {
			n.right = rotateRight(n.right) // double left
		}
		return rotateLeft(n)
	default:
		return n
	}
}

// --------------------------------------------------------------------------
// Sibling tree operations
// --------------------------------------------------------------------------

// find returns the sibling called name, or nil
func find(root *Node, name string) *Node {
	for root != nil {
		c := compareNames(name, root.name)
		switch {
		case c < 0:
			root = root.left
		case c > 0:
			root = root.right
		default:
			return root
		}
	}
	return nil
}

// insert returns the new root and the node called name, creating an empty
// node if no such sibling exists.
func insert(root *Node, name string) (*Node, *Node) {
	if root == nil {
		n := &Node{name: name, height: 1}
		return n, n
	}
	var n *Node
	switch c := compareNames(name, root.name); {
	case c < 0:
		root.left, n = insert(root.left, name)
	case c > 0:
		root.right, n = insert(root.right, name)
	default:
		return root, root
	}
	return rebalance(root), n
}

// remove unlinks the sibling called name and returns the new root together
// with the detached node. The detached node still owns its payload and
// subdirectory.
func remove(root *Node, name string) (*Node, *Node) {
	if root == nil {
		return nil, nil
	}
	var removed *Node
	switch c := compareNames(name, root.name); {
	case c < 0:
		root.left, removed = remove(root.left, name)
	case c > 0:
		root.right, removed = remove(root.right, name)
	default:
		removed = root
		switch {
		case root.left == nil:
			root = root.right
		case root.right == nil:
			root = root.left
		default:
			// replace with the in-order predecessor
			var pred *Node
			left := root.left
			left, pred = removeMax(left)
			pred.left = left
			pred.right = root.right
			root = pred
		}
		removed.left, removed.right = nil, nil
		if root == nil {
			return nil, removed
		}
	}
	if removed == nil {
		return root, nil
	}
	return rebalance(root), removed
}

// removeMax unlinks the rightmost node of root
func removeMax(root *Node) (*Node, *Node) {
	if root.right == nil {
		return root.left, root
	}
	var max *Node
	root.right, max = removeMax(root.right)
	return rebalance(root), max
}

// first returns the sibling with the smallest name
func first(root *Node) *Node {
	if root == nil {
		return nil
	}
	for root.left != nil {
		root = root.left
	}
	return root
}

// next returns the sibling with the smallest name strictly greater than
// name. name does not need to exist.
func next(root *Node, name string) *Node {
	var best *Node
	for root != nil {
		if compareNames(root.name, name) > 0 {
			best = root
			root = root.left
		} else {
			root = root.right
		}
	}
	return best
}

// copyTree deep copies root, including every subdirectory. String payloads
// are immutable and lock payloads are copied.
func copyTree(root *Node) *Node {
	if root == nil {
		return nil
	}
	n := *root
	n.value = root.value.clone()
	n.left = copyTree(root.left)
	n.right = copyTree(root.right)
	n.dir = copyTree(root.dir)
	return &n
}

// sizeTree sums node overhead and payload sizes, including subdirectories
func sizeTree(root *Node) int {
	if root == nil {
		return 0
	}
	return nodeOverhead + len(root.name) + root.value.size() +
		sizeTree(root.left) + sizeTree(root.right) + sizeTree(root.dir)
}

// release tears root down and releases every owned lock
func release(root *Node) {
	if root == nil {
		return
	}
	release(root.left)
	release(root.right)
	release(root.dir)
	if root.value.typ == TypeLock && root.value.lok != nil {
		releaseLock(root.value.lok)
	}
	*root = Node{}
}

// countTree returns the number of siblings in root
func countTree(root *Node) int {
	if root == nil {
		return 0
	}
	return 1 + countTree(root.left) + countTree(root.right)
}

// --------------------------------------------------------------------------
// Invariant checks
// --------------------------------------------------------------------------

// Height returns the cached height of a sibling tree
func Height(n *Node) int {
	return height(n)
}

// Balanced reports whether every level reachable from root satisfies the
// AVL and search tree invariants, including subdirectories.
func Balanced(root *Node) bool {
	_, ok := checkAVL(root, "", "")
	return ok
}

func checkAVL(n *Node, lo, hi string) (int, bool) {
	if n == nil {
		return 0, true
	}
	if lo != "" && compareNames(n.name, lo) <= 0 {
		return 0, false
	}
	if hi != "" && compareNames(n.name, hi) >= 0 {
		return 0, false
	}
	hl, okl := checkAVL(n.left, lo, n.name)
	hr, okr := checkAVL(n.right, n.name, hi)
	if !okl || !okr {
		return 0, false
	}
	if d := hl - hr; d > 1 || d < -1 {
		return 0, false
	}
	h := hl + 1
	if hr > hl {
		h = hr + 1
	}
	if h != n.height {
		return 0, false
	}
	if _, ok := checkAVL(n.dir, "", ""); !ok {
		return 0, false
	}
	return h, true
}
