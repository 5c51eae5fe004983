package testing

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/boolexp"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/store"
	"reflect"
	"testing"
)

// Fixture is one store under test together with the hooks the suite needs
// to create objects on the database behind it
type Fixture struct {
	Store store.IPropStore
	// NewObject creates an empty object and returns its reference
	NewObject func(player bool, location prop.DBRef) prop.DBRef
	// Evict writes the properties of ref back to its backing file and drops
	// them from memory. Nil if the store keeps every object resident.
	Evict func(ref prop.DBRef)
}

// evict calls the Evict hook if there is one
func (f *Fixture) evict(ref prop.DBRef) {
	if f.Evict != nil {
		f.Evict(ref)
	}
}

// Factory creates a new, empty fixture. Cleanup is registered on t.
type Factory func(t *testing.T) *Fixture

// RunPropStoreTests runs a comprehensive test suite for an IPropStore
// implementation.
func RunPropStoreTests(t *testing.T, name string, factory Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("SetGet", func(t *testing.T) {
			testSetGet(t, factory(t))
		})

		t.Run("EmptyValueDeletes", func(t *testing.T) {
			testEmptyValueDeletes(t, factory(t))
		})

		t.Run("TypedAccess", func(t *testing.T) {
			testTypedAccess(t, factory(t))
		})

		t.Run("Directories", func(t *testing.T) {
			testDirectories(t, factory(t))
		})

		t.Run("PathValidation", func(t *testing.T) {
			testPathValidation(t, factory(t))
		})

		t.Run("CaseInsensitiveNames", func(t *testing.T) {
			testCaseInsensitiveNames(t, factory(t))
		})

		t.Run("Iteration", func(t *testing.T) {
			testIteration(t, factory(t))
		})

		t.Run("PermissionFilter", func(t *testing.T) {
			testPermissionFilter(t, factory(t))
		})

		t.Run("Flags", func(t *testing.T) {
			testFlags(t, factory(t))
		})

		t.Run("Locks", func(t *testing.T) {
			testLocks(t, factory(t))
		})

		t.Run("GenderSync", func(t *testing.T) {
			testGenderSync(t, factory(t))
		})

		t.Run("RemoveAll", func(t *testing.T) {
			testRemoveAll(t, factory(t))
		})

		t.Run("FindInEnvironment", func(t *testing.T) {
			testFindInEnvironment(t, factory(t))
		})

		t.Run("CopyAll", func(t *testing.T) {
			testCopyAll(t, factory(t))
		})

		t.Run("UnknownObject", func(t *testing.T) {
			testUnknownObject(t, factory(t))
		})

		t.Run("SurvivesEviction", func(t *testing.T) {
			testSurvivesEviction(t, factory(t))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustSet(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error on write, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(o, "color", "red"))
	if v, ok := s.GetString(o, "color"); !ok || v != "red" {
		t.Errorf("Expected color to be red, got %q (ok=%v)", v, ok)
	}

	mustSet(t, s.SetString(o, "color", "blue"))
	if v, _ := s.GetString(o, "/color"); v != "blue" {
		t.Errorf("Expected overwrite to blue, got %q", v)
	}

	if _, ok := s.GetString(o, "nonexistent"); ok {
		t.Errorf("Expected nonexistent property to be absent")
	}

	v, ok := s.GetValue(o, "color")
	if !ok || v.Type() != prop.TypeString {
		t.Errorf("Expected a string value, got %s (ok=%v)", v.Type(), ok)
	}
}

func testEmptyValueDeletes(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(o, "color", "red"))
	mustSet(t, s.SetString(o, "color", ""))
	if _, ok := s.GetString(o, "color"); ok {
		t.Errorf("Expected the empty string to delete the property")
	}
	if s.Exists(o, "color") {
		t.Errorf("Expected color to be gone")
	}

	mustSet(t, s.SetInt(o, "n", 3))
	mustSet(t, s.SetInt(o, "n", 0))
	if s.Exists(o, "n") {
		t.Errorf("Expected 0 to delete an integer property")
	}

	mustSet(t, s.SetRef(o, "r", 5))
	mustSet(t, s.SetRef(o, "r", prop.Nothing))
	if s.Exists(o, "r") {
		t.Errorf("Expected Nothing to delete a reference property")
	}

	mustSet(t, s.SetFloat(o, "f", 1.5))
	mustSet(t, s.SetFloat(o, "f", 0))
	if s.Exists(o, "f") {
		t.Errorf("Expected 0.0 to delete a float property")
	}

	mustSet(t, s.SetLock(o, "l", boolexp.True()))
	if s.Exists(o, "l") {
		t.Errorf("Expected the true lock not to be stored")
	}
}

func testTypedAccess(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetInt(o, "i", 42))
	mustSet(t, s.SetFloat(o, "f", 2.5))
	mustSet(t, s.SetRef(o, "r", 7))
	mustSet(t, s.SetString(o, "s", "text"))

	if got := s.GetInt(o, "i"); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := s.GetFloat(o, "f"); got != 2.5 {
		t.Errorf("Expected 2.5, got %v", got)
	}
	if got := s.GetRef(o, "r"); got != 7 {
		t.Errorf("Expected #7, got %s", got)
	}

	// reads of another type fall back to the zero value
	if got := s.GetInt(o, "s"); got != 0 {
		t.Errorf("Expected 0 for a string read as integer, got %d", got)
	}
	if got := s.GetRef(o, "i"); got != prop.Nothing {
		t.Errorf("Expected Nothing for an integer read as reference, got %s", got)
	}
	if _, ok := s.GetString(o, "i"); ok {
		t.Errorf("Expected an integer not to read as string")
	}
	if got := s.GetLock(o, "s"); got != nil {
		t.Errorf("Expected no lock, got %v", got)
	}

	// absent reads as the zero value too
	if got := s.GetInt(o, "missing"); got != 0 {
		t.Errorf("Expected 0 for a missing integer, got %d", got)
	}
	if got := s.GetRef(o, "missing"); got != prop.Nothing {
		t.Errorf("Expected Nothing for a missing reference, got %s", got)
	}

	mustSet(t, s.Set(o, "neg", prop.Int(-12), false))
	if got := s.GetInt(o, "neg"); got != -12 {
		t.Errorf("Expected -12, got %d", got)
	}
}

func testDirectories(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetRef(o, "a/b/c", 42))
	if !s.IsDir(o, "a") {
		t.Errorf("Expected a to be a directory")
	}
	if !s.IsDir(o, "a/b") {
		t.Errorf("Expected a/b to be a directory")
	}
	if s.IsDir(o, "a/b/c") {
		t.Errorf("Expected a/b/c not to be a directory")
	}
	if s.GetRef(o, "a/b/c") != 42 {
		t.Errorf("Expected #42 at a/b/c")
	}

	// intermediate directories carry no value
	if _, ok := s.GetValue(o, "a"); ok {
		t.Errorf("Expected the intermediate directory a to carry no value")
	}

	mustSet(t, s.Remove(o, "a", true))
	if got := s.GetRef(o, "a/b/c"); got != prop.Nothing {
		t.Errorf("Expected a/b/c to be removed with a, got %s", got)
	}
	if s.Exists(o, "a") {
		t.Errorf("Expected a to be removed")
	}

	// a directory holding a value survives deleting its only child
	mustSet(t, s.SetString(o, "d", "dir value"))
	mustSet(t, s.SetString(o, "d/x", "child"))
	mustSet(t, s.Remove(o, "d/x", true))
	if v, ok := s.GetString(o, "d"); !ok || v != "dir value" {
		t.Errorf("Expected d to keep its value, got %q (ok=%v)", v, ok)
	}
	if s.IsDir(o, "d") {
		t.Errorf("Expected d to have no children left")
	}

	// an empty intermediate directory is pruned
	mustSet(t, s.SetString(o, "e/f/g", "leaf"))
	mustSet(t, s.Remove(o, "e/f/g", true))
	if s.Exists(o, "e") {
		t.Errorf("Expected the empty directory e to be pruned")
	}

	// removing a missing path is not an error
	if err := s.Remove(o, "no/such/path", true); err != nil {
		t.Errorf("Expected no error removing a missing path, got %v", err)
	}
}

func testPathValidation(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(o, "///name:ignored", "v"))
	if v, _ := s.GetString(o, "name"); v != "v" {
		t.Errorf("Expected the name to be truncated at ':', got %q", v)
	}
	if s.Exists(o, "name:ignored") {
		t.Errorf("Expected no property with a ':' in its name")
	}

	for _, bad := range []string{"", "/", "///", ":x", "/:x", "a\nb", "a\rb", "dir/x\ny"} {
		err := s.SetString(o, bad, "v")
		if !errors.Is(err, store.ErrBadPath) {
			t.Errorf("Expected ErrBadPath for %q, got %v", bad, err)
		}
	}

	// the part after ':' is dropped before the check
	mustSet(t, s.SetString(o, "ok:tail\nmore", "v"))
	if v, _ := s.GetString(o, "ok"); v != "v" {
		t.Errorf("Expected ok to be set, got %q", v)
	}

	// repeated delimiters collapse
	mustSet(t, s.SetInt(o, "a//b", 1))
	if s.GetInt(o, "/a/b") != 1 {
		t.Errorf("Expected a//b to resolve to a/b")
	}
}

func testCaseInsensitiveNames(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(o, "Color", "red"))
	if v, _ := s.GetString(o, "COLOR"); v != "red" {
		t.Errorf("Expected a case-insensitive lookup, got %q", v)
	}
	mustSet(t, s.SetString(o, "color", "blue"))
	if got := s.List(o, "/", prop.AccessWizard); len(got) != 1 {
		t.Errorf("Expected one property, got %v", got)
	}
	if got := s.FirstChild(o, "/"); got != "/Color" {
		t.Errorf("Expected the first spelling to be kept, got %q", got)
	}
}

func testIteration(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	names := []string{"m", "b", "Z", "a", "y", "c"}
	for i, n := range names {
		mustSet(t, s.SetInt(o, "dir/"+n, i+1))
	}

	var got []string
	for p := s.FirstChild(o, "dir"); p != ""; p = s.NextChild(o, p) {
		got = append(got, p)
	}
	want := []string{"/dir/a", "/dir/b", "/dir/c", "/dir/m", "/dir/y", "/dir/Z"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if p := s.FirstChild(o, "nodir"); p != "" {
		t.Errorf("Expected no children of a missing directory, got %q", p)
	}
	if p := s.NextChild(o, "/dir/Z"); p != "" {
		t.Errorf("Expected the iteration to end after the last child, got %q", p)
	}

	// removing the current node does not break the iteration
	var seen int
	for p := s.FirstChild(o, "dir"); p != ""; {
		next := s.NextChild(o, p)
		mustSet(t, s.Remove(o, p, true))
		p = next
		seen++
	}
	if seen != len(names) {
		t.Errorf("Expected to visit %d properties while removing, got %d", len(names), seen)
	}
	if s.Exists(o, "dir") {
		t.Errorf("Expected dir to be pruned after removing all of its children")
	}
}

func testPermissionFilter(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	for _, n := range []string{"public", ".private", "@hidden", "~seeonly", "_readonly", "@__sys__internal"} {
		mustSet(t, s.SetInt(o, n, 1))
	}

	tests := []struct {
		access prop.Access
		want   []string
	}{
		{prop.AccessMortal, []string{"/_readonly", "/public", "/~seeonly"}},
		{prop.AccessOwner, []string{"/.private", "/_readonly", "/public", "/~seeonly"}},
		{prop.AccessWizard, []string{"/.private", "/@hidden", "/_readonly", "/public", "/~seeonly"}},
	}
	for _, tt := range tests {
		got := s.List(o, "/", tt.access)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Expected %s to see %v, got %v", tt.access, tt.want, got)
		}
	}

	// raw iteration still returns everything
	var all int
	for p := s.FirstChild(o, "/"); p != ""; p = s.NextChild(o, p) {
		all++
	}
	if all != 6 {
		t.Errorf("Expected raw iteration to return 6 properties, got %d", all)
	}
}

func testFlags(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(o, "msg", "hello"))
	if s.GetFlags(o, "msg") != 0 {
		t.Errorf("Expected no flags on a new property")
	}

	mustSet(t, s.SetFlags(o, "msg", prop.FlagBlessed))
	if !s.GetFlags(o, "msg").Has(prop.FlagBlessed) {
		t.Errorf("Expected msg to be blessed")
	}

	// overwriting the value keeps the flags
	mustSet(t, s.SetString(o, "msg", "bye"))
	if !s.GetFlags(o, "msg").Has(prop.FlagBlessed) {
		t.Errorf("Expected the blessed flag to survive a value change")
	}

	mustSet(t, s.ClearFlags(o, "msg", prop.FlagBlessed))
	if s.GetFlags(o, "msg").Has(prop.FlagBlessed) {
		t.Errorf("Expected msg to be unblessed")
	}

	err := s.SetFlags(o, "missing", prop.FlagBlessed)
	if !errors.Is(err, store.ErrNoSuchProperty) {
		t.Errorf("Expected ErrNoSuchProperty, got %v", err)
	}
}

func testLocks(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	l, err := boolexp.Parse("#1 & !#2 | flag:yes")
	if err != nil {
		t.Fatalf("Expected the lock to parse, got %v", err)
	}
	mustSet(t, s.SetLock(o, "_/lock", l))

	got := s.GetLock(o, "_/lock")
	if got == nil {
		t.Fatalf("Expected a lock at _/lock")
	}
	if got.Unparse() != "#1&!#2|flag:yes" {
		t.Errorf("Expected the lock to unparse, got %q", got.Unparse())
	}

	// replacing the lock releases the old one
	l2, _ := boolexp.Parse("#3")
	mustSet(t, s.SetLock(o, "_/lock", l2))
	if !l.IsTrue() {
		t.Errorf("Expected the replaced lock to be released")
	}
	if s.GetLock(o, "_/lock").Unparse() != "#3" {
		t.Errorf("Expected the new lock to be stored")
	}

	// removing the property releases the lock
	mustSet(t, s.Remove(o, "_/lock", true))
	if !l2.IsTrue() {
		t.Errorf("Expected the removed lock to be released")
	}

	// a lock handed to an unknown object is released
	l3, _ := boolexp.Parse("#4")
	if err := s.SetLock(prop.DBRef(1<<30), "x", l3); !errors.Is(err, store.ErrNoSuchObject) {
		t.Errorf("Expected ErrNoSuchObject, got %v", err)
	}
	if !l3.IsTrue() {
		t.Errorf("Expected the rejected lock to be released")
	}
}

func testGenderSync(t *testing.T, f *Fixture) {
	s := f.Store
	player := f.NewObject(true, prop.Nothing)
	thing := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(player, store.DefaultGenderProp, "female"))
	if v, _ := s.GetString(player, store.LegacyGenderProp); v != "female" {
		t.Errorf("Expected the gender to be mirrored onto sex, got %q", v)
	}

	mustSet(t, s.SetString(player, "SEX", "male"))
	if v, _ := s.GetString(player, store.DefaultGenderProp); v != "male" {
		t.Errorf("Expected sex to be mirrored onto the gender, got %q", v)
	}

	mustSet(t, s.Remove(player, store.DefaultGenderProp, true))
	if s.Exists(player, store.LegacyGenderProp) {
		t.Errorf("Expected the delete to be mirrored")
	}

	// suppressed sync
	mustSet(t, s.Set(player, store.DefaultGenderProp, prop.String("neuter"), false))
	if s.Exists(player, store.LegacyGenderProp) {
		t.Errorf("Expected no mirroring without sync")
	}

	// only players are synced
	mustSet(t, s.SetString(thing, store.DefaultGenderProp, "plural"))
	if s.Exists(thing, store.LegacyGenderProp) {
		t.Errorf("Expected no mirroring on a non-player")
	}
}

func testRemoveAll(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	for _, n := range []string{"a", "b/c", "@hidden", "~seeonly", "_", "_other", ".private"} {
		mustSet(t, s.SetInt(o, n, 1))
	}
	mustSet(t, s.SetInt(o, "_/lock", 2))

	mustSet(t, s.RemoveAll(o, false))
	want := []string{"/@hidden", "/_", "/~seeonly"}
	if got := s.List(o, "/", prop.AccessWizard); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v to survive, got %v", want, got)
	}
	if s.GetInt(o, "_/lock") != 2 {
		t.Errorf("Expected the content of _ to survive")
	}

	mustSet(t, s.RemoveAll(o, true))
	if p := s.FirstChild(o, "/"); p != "" {
		t.Errorf("Expected no property left after a full wipe, got %q", p)
	}
}

func testFindInEnvironment(t *testing.T, f *Fixture) {
	s := f.Store
	room := f.NewObject(false, prop.Nothing)
	box := f.NewObject(false, room)
	item := f.NewObject(false, box)

	mustSet(t, s.SetString(room, "_/de", "a dusty room"))
	mustSet(t, s.SetString(box, "weight", "10"))

	v, where := s.FindInEnvironment(item, "_/de")
	if where != room || v.Str() != "a dusty room" {
		t.Errorf("Expected to find _/de on %s, got %q on %s", room, v.Str(), where)
	}

	_, where = s.FindInEnvironment(item, "weight")
	if where != box {
		t.Errorf("Expected to find weight on %s, got %s", box, where)
	}

	mustSet(t, s.SetString(item, "weight", "1"))
	v, where = s.FindInEnvironment(item, "weight")
	if where != item || v.Str() != "1" {
		t.Errorf("Expected the nearest object to win, got %q on %s", v.Str(), where)
	}

	if _, where = s.FindInEnvironment(item, "missing"); where != prop.Nothing {
		t.Errorf("Expected Nothing for a missing property, got %s", where)
	}
}

func testCopyAll(t *testing.T, f *Fixture) {
	s := f.Store
	src := f.NewObject(false, prop.Nothing)
	dst := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(src, "name", "original"))
	mustSet(t, s.SetInt(src, "stats/str", 12))
	lock, _ := boolexp.Parse("#1")
	mustSet(t, s.SetLock(src, "_/lock", lock))
	mustSet(t, s.SetFlags(src, "name", prop.FlagBlessed))
	mustSet(t, s.SetString(dst, "old", "gone"))

	f.evict(src)

	mustSet(t, s.CopyAll(src, dst))
	if s.Exists(dst, "old") {
		t.Errorf("Expected the old properties of dst to be replaced")
	}
	if v, _ := s.GetString(dst, "name"); v != "original" {
		t.Errorf("Expected name to be copied, got %q", v)
	}
	if s.GetInt(dst, "stats/str") != 12 {
		t.Errorf("Expected stats/str to be copied")
	}
	if !s.GetFlags(dst, "name").Has(prop.FlagBlessed) {
		t.Errorf("Expected flags to be copied")
	}

	// the copy is independent
	mustSet(t, s.SetString(src, "name", "changed"))
	mustSet(t, s.Remove(src, "_/lock", true))
	if v, _ := s.GetString(dst, "name"); v != "original" {
		t.Errorf("Expected dst to be independent of src, got %q", v)
	}
	if l := s.GetLock(dst, "_/lock"); l == nil || l.Unparse() != "#1" {
		t.Errorf("Expected the lock copy to survive releasing the original")
	}
}

func testUnknownObject(t *testing.T, f *Fixture) {
	s := f.Store
	bad := prop.DBRef(1 << 30)

	if err := s.SetString(bad, "x", "y"); !errors.Is(err, store.ErrNoSuchObject) {
		t.Errorf("Expected ErrNoSuchObject on write, got %v", err)
	}
	if err := s.Remove(bad, "x", true); !errors.Is(err, store.ErrNoSuchObject) {
		t.Errorf("Expected ErrNoSuchObject on remove, got %v", err)
	}
	if _, ok := s.GetString(bad, "x"); ok {
		t.Errorf("Expected reads of an unknown object to be absent")
	}
	if s.GetRef(bad, "x") != prop.Nothing {
		t.Errorf("Expected Nothing from an unknown object")
	}
	if s.FirstChild(bad, "/") != "" || s.Exists(bad, "x") || s.Size(bad) != 0 {
		t.Errorf("Expected an unknown object to look empty")
	}
}

func testSurvivesEviction(t *testing.T, f *Fixture) {
	s := f.Store
	o := f.NewObject(false, prop.Nothing)

	mustSet(t, s.SetString(o, "desc", "line one\nline two \\ end"))
	mustSet(t, s.SetFloat(o, "ratio", 0.25))
	mustSet(t, s.SetRef(o, "home", 3))
	mustSet(t, s.SetString(o, "deep/er/still", "here"))
	lock, _ := boolexp.Parse("#1|#2")
	mustSet(t, s.SetLock(o, "_/lock", lock))

	f.evict(o)

	if v, _ := s.GetString(o, "desc"); v != "line one\nline two \\ end" {
		t.Errorf("Expected desc to survive, got %q", v)
	}
	if s.GetFloat(o, "ratio") != 0.25 {
		t.Errorf("Expected ratio to survive")
	}
	if s.GetRef(o, "home") != 3 {
		t.Errorf("Expected home to survive")
	}
	if v, _ := s.GetString(o, "deep/er/still"); v != "here" {
		t.Errorf("Expected deep/er/still to survive, got %q", v)
	}
	if l := s.GetLock(o, "_/lock"); l == nil || l.Unparse() != "#1|#2" {
		t.Errorf("Expected the lock to survive, got %v", l)
	}

	f.evict(o)
	if !s.IsDir(o, "deep/er") {
		t.Errorf("Expected deep/er to be a directory after eviction")
	}
	mustSet(t, s.SetInt(o, "deep/new", 9))
	if v, _ := s.GetString(o, "deep/er/still"); v != "here" {
		t.Errorf("Expected a write next to a paged out directory to keep it, got %q", v)
	}
}

func testRealisticUsage(t *testing.T, f *Fixture) {
	s := f.Store
	const objects = 20
	const props = 30

	refs := make([]prop.DBRef, objects)
	for i := range refs {
		refs[i] = f.NewObject(i%5 == 0, prop.Nothing)
	}

	for i, o := range refs {
		for j := 0; j < props; j++ {
			mustSet(t, s.SetInt(o, fmt.Sprintf("data/%02d", j), i*100+j+1))
		}
		mustSet(t, s.SetString(o, "name", fmt.Sprintf("object %d", i)))
		if i%3 == 0 {
			f.evict(o)
		}
	}

	for i, o := range refs {
		if v, _ := s.GetString(o, "name"); v != fmt.Sprintf("object %d", i) {
			t.Errorf("Expected name of %s to be object %d, got %q", o, i, v)
		}
		n := 0
		for p := s.FirstChild(o, "data"); p != ""; p = s.NextChild(o, p) {
			if s.GetInt(o, p) != i*100+n+1 {
				t.Errorf("Expected %s on %s to be %d, got %d", p, o, i*100+n+1, s.GetInt(o, p))
			}
			n++
		}
		if n != props {
			t.Errorf("Expected %d data properties on %s, got %d", props, o, n)
		}
		if s.Size(o) <= 0 {
			t.Errorf("Expected a positive size for %s", o)
		}
	}
}
