package prop

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
)

// testLock is a minimal Lock that records releases
type testLock struct {
	text     string
	released *int
}

func (l *testLock) Copy() Lock      { return &testLock{text: l.text, released: l.released} }
func (l *testLock) Size() int       { return len(l.text) + 16 }
func (l *testLock) Unparse() string { return l.text }
func (l *testLock) IsTrue() bool    { return l.text == "" }
func (l *testLock) Release()        { *l.released++ }

// TestSplitJoin tests path decomposition
func TestSplitJoin(t *testing.T) {
	segs := Split("//a///b/c/")
	if len(segs) != 3 || segs[0] != "a" || segs[1] != "b" || segs[2] != "c" {
		t.Errorf("Expected [a b c], got %v", segs)
	}

	if len(Split("///")) != 0 {
		t.Errorf("Expected no segments for a degenerate path")
	}

	if got := Join("a", "/b/", "c"); got != "/a/b/c" {
		t.Errorf("Expected /a/b/c, got %s", got)
	}

	if got := Dirname("/a/b/c"); got != "/a/b" {
		t.Errorf("Expected /a/b, got %s", got)
	}

	if got := Dirname("a"); got != "/" {
		t.Errorf("Expected /, got %s", got)
	}

	if got := Basename("a/b/"); got != "b" {
		t.Errorf("Expected b, got %s", got)
	}
}

// TestCreateIdempotent tests that creating the same path twice returns the same node
func TestCreateIdempotent(t *testing.T) {
	tree := NewTree()

	n1 := tree.Create("/a/b/c")
	n2 := tree.Create("a/B/c")

	if n1 == nil || n1 != n2 {
		t.Fatalf("Expected the same node for both creates")
	}

	if tree.Len() != 1 {
		t.Errorf("Expected 1 top-level node, got %d", tree.Len())
	}

	if countTree(tree.Get("a").dir) != 1 {
		t.Errorf("Intermediate directory was duplicated")
	}

	if tree.Create("///") != nil {
		t.Errorf("Expected nil for a degenerate path")
	}
}

// TestGetMissing tests resolution of paths that do not exist
func TestGetMissing(t *testing.T) {
	tree := NewTree()
	tree.Create("a").SetValue(String("x"))

	if tree.Get("a/b") != nil {
		t.Errorf("Expected nil for a path below a leaf")
	}

	if tree.Get("z") != nil {
		t.Errorf("Expected nil for a missing path")
	}

	if tree.Get("/") != nil {
		t.Errorf("Expected nil for the root path")
	}
}

// TestAVLBalance tests the balance invariant after random inserts and deletes
func TestAVLBalance(t *testing.T) {
	tree := NewTree()
	rng := rand.New(rand.NewSource(42))
	live := map[string]bool{}

	for i := 0; i < 2000; i++ {
		name := fmt.Sprintf("p%04d", rng.Intn(500))
		if rng.Intn(3) == 0 {
			tree.Delete(name)
			delete(live, name)
		} else {
			tree.Create(name).SetValue(Int(i + 1))
			live[name] = true
		}

		if i%100 == 0 && !Balanced(tree.Root()) {
			t.Fatalf("Tree is not balanced after %d operations", i)
		}
	}

	if !Balanced(tree.Root()) {
		t.Fatalf("Tree is not balanced")
	}

	if tree.Len() != len(live) {
		t.Errorf("Expected %d nodes, got %d", len(live), tree.Len())
	}

	// height must stay logarithmic: 1.45*log2(n+2)
	if h := Height(tree.Root()); h > 14 {
		t.Errorf("Tree height %d is too large for %d nodes", h, len(live))
	}
}

// TestIteration tests ordered, complete iteration with first/next
func TestIteration(t *testing.T) {
	tree := NewTree()
	names := []string{"delta", "Alpha", "charlie", "bravo", "Echo"}
	for _, n := range names {
		tree.Create("dir/" + n).SetValue(String(n))
	}

	var got []string
	for n := tree.FirstChild("dir"); n != nil; n = tree.NextChild("dir/" + n.Name()) {
		got = append(got, n.Name())
	}

	want := "Alpha,bravo,charlie,delta,Echo"
	if strings.Join(got, ",") != want {
		t.Errorf("Expected %s, got %s", want, strings.Join(got, ","))
	}

	// iteration continues from a name that was deleted in the meantime
	tree.Delete("dir/charlie")
	if n := tree.NextChild("dir/charlie"); n == nil || n.Name() != "delta" {
		t.Errorf("Expected delta after a deleted name")
	}

	if n := tree.NextChild("dir/echo"); n != nil {
		t.Errorf("Expected the iteration to end, got %s", n.Name())
	}

	if tree.FirstChild("missing") != nil {
		t.Errorf("Expected nil for a missing directory")
	}
}

// TestDeletePrunesEmptyDirectories tests that value-less directories vanish with their last child
func TestDeletePrunesEmptyDirectories(t *testing.T) {
	tree := NewTree()
	tree.Create("a/b/c").SetValue(Ref(42))
	tree.Create("a").SetValue(String("keep"))

	if !tree.IsDir("a") || !tree.IsDir("a/b") {
		t.Fatalf("Expected a and a/b to be directories")
	}

	if !tree.Delete("a/b/c") {
		t.Fatalf("Expected a/b/c to be deleted")
	}

	if tree.Get("a/b") != nil {
		t.Errorf("Empty directory a/b should have been pruned")
	}

	if n := tree.Get("a"); n == nil || n.Value().Str() != "keep" {
		t.Errorf("Directory a with a value should survive")
	}

	if tree.IsDir("a") {
		t.Errorf("a should no longer be a directory")
	}

	if tree.Delete("x/y") {
		t.Errorf("Deleting through a missing path should be a no-op")
	}

	if tree.Delete("/") {
		t.Errorf("The root should never be deleted")
	}
}

// TestDeleteSubtree tests that deleting a directory deletes everything below it
func TestDeleteSubtree(t *testing.T) {
	tree := NewTree()
	tree.Create("a/b/c").SetValue(Ref(42))
	tree.Create("a/b/d").SetValue(Int(1))

	tree.Delete("a")

	if tree.Get("a/b/c") != nil || tree.Len() != 0 {
		t.Errorf("Expected the whole subtree to be removed")
	}
}

// TestCopyIndependence tests that copies share no payloads
func TestCopyIndependence(t *testing.T) {
	released := 0
	tree := NewTree()
	tree.Create("s").SetValue(String("original"))
	tree.Create("d/l").SetValue(LockValue(&testLock{text: "#1", released: &released}))

	cp := tree.Copy()
	cp.Get("s").SetValue(String("changed"))

	if tree.Get("s").Value().Str() != "original" {
		t.Errorf("Mutating the copy changed the original")
	}

	if cp.Get("d/l").Value().Lock() == tree.Get("d/l").Value().Lock() {
		t.Errorf("Lock payload was aliased by the copy")
	}

	tree.Clear()
	if released != 1 {
		t.Errorf("Expected 1 released lock, got %d", released)
	}

	if cp.Get("d/l").Value().Lock().Unparse() != "#1" {
		t.Errorf("Freeing the original invalidated the copy")
	}

	if !Balanced(cp.Root()) {
		t.Errorf("Copy is not balanced")
	}
}

// TestLockRelease tests that overwriting and deleting locks releases them
func TestLockRelease(t *testing.T) {
	released := 0
	tree := NewTree()
	n := tree.Create("lock")
	n.SetValue(LockValue(&testLock{text: "#1", released: &released}))
	n.SetValue(LockValue(&testLock{text: "#2", released: &released}))

	if released != 1 {
		t.Errorf("Expected the overwritten lock to be released")
	}

	tree.Delete("lock")
	if released != 2 {
		t.Errorf("Expected the deleted lock to be released")
	}
}

// TestSize tests the diagnostic size estimate
func TestSize(t *testing.T) {
	tree := NewTree()
	if tree.Size() != 0 {
		t.Errorf("Expected an empty tree to have size 0")
	}

	tree.Create("a").SetValue(String("12345"))
	small := tree.Size()
	tree.Create("a/b/c").SetValue(String("1234567890"))

	if tree.Size() <= small {
		t.Errorf("Expected subdirectories to count towards the size")
	}
}

// TestFirstDirUnloaded tests the scan for subdirectories that are not paged in
func TestFirstDirUnloaded(t *testing.T) {
	tree := NewTree()
	tree.Create("a/b").SetValue(Int(1))
	tree.Create("x").MarkDirUnloaded(123)

	if p, n := tree.FirstDirUnloaded("/a/b"); n != nil {
		t.Errorf("Expected no unloaded directory, got %s", p)
	}

	p, n := tree.FirstDirUnloaded("/x/y")
	if n == nil || p != "/x" {
		t.Fatalf("Expected /x to be reported")
	}

	if pos, ok := n.DirPos(); !ok || pos != 123 {
		t.Errorf("Expected offset 123, got %d", pos)
	}

	if !tree.IsDir("x") {
		t.Errorf("A directory that is not paged in is still a directory")
	}

	n.ClearDirUnloaded()
	if _, n := tree.FirstDirUnloaded("/x"); n != nil {
		t.Errorf("Expected the flag to be cleared")
	}
}

// TestWalkOrder tests that a node is visited before its subdirectory
func TestWalkOrder(t *testing.T) {
	tree := NewTree()
	tree.Create("b").SetValue(Int(1))
	tree.Create("a/y").SetValue(Int(2))
	tree.Create("a").SetValue(Int(3))
	tree.Create("a/x").SetValue(Int(4))

	var got []string
	_ = tree.Walk("/", func(path string, n *Node) error {
		got = append(got, path)
		return nil
	})

	want := "/a,/a/x,/a/y,/b"
	if strings.Join(got, ",") != want {
		t.Errorf("Expected %s, got %s", want, strings.Join(got, ","))
	}
}

// TestSameName tests that only ASCII letters fold
func TestSameName(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Color", "cOLOR", true},
		{"a_b", "A_B", true},
		{"k", "\u212A", false}, // Kelvin sign
		{"ä", "Ä", false},
		{"abc", "abcd", false},
	}
	for _, c := range cases {
		if got := SameName(c.a, c.b); got != c.want {
			t.Errorf("Expected SameName(%q, %q) = %v, got %v", c.a, c.b, c.want, got)
		}
	}

	tree := NewTree()
	tree.Create("k").SetValue(Int(1))
	if tree.Get("\u212A") != nil {
		t.Errorf("Expected the Kelvin sign not to find k")
	}
}
