package lstore

import (
	"github.com/ValentinKolb/propdb/lib/diskbase"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/store"
	storetesting "github.com/ValentinKolb/propdb/lib/store/testing"
	"testing"
)

// memObjects is a minimal object table that keeps every tree resident
type memObjects struct {
	trees    map[prop.DBRef]*prop.Tree
	players  map[prop.DBRef]bool
	location map[prop.DBRef]prop.DBRef
}

func newMemObjects() *memObjects {
	return &memObjects{
		trees:    make(map[prop.DBRef]*prop.Tree),
		players:  make(map[prop.DBRef]bool),
		location: make(map[prop.DBRef]prop.DBRef),
	}
}

func (m *memObjects) Props(ref prop.DBRef) (*prop.Tree, bool) {
	t, ok := m.trees[ref]
	return t, ok
}

func (m *memObjects) IsPlayer(ref prop.DBRef) bool { return m.players[ref] }

func (m *memObjects) Location(ref prop.DBRef) prop.DBRef {
	if l, ok := m.location[ref]; ok {
		return l
	}
	return prop.Nothing
}

func (m *memObjects) add(player bool, location prop.DBRef) prop.DBRef {
	ref := prop.DBRef(len(m.trees))
	m.trees[ref] = prop.NewTree()
	m.players[ref] = player
	m.location[ref] = location
	return ref
}

func TestLocalStore(t *testing.T) {
	storetesting.RunPropStoreTests(t, "LocalStore", func(t *testing.T) *storetesting.Fixture {
		objects := newMemObjects()
		return &storetesting.Fixture{
			Store:     NewLocalStore(objects, store.NopPager{}, store.Options{}),
			NewObject: objects.add,
		}
	})
}

func TestCustomGenderProp(t *testing.T) {
	objects := newMemObjects()
	s := NewLocalStore(objects, nil, store.Options{GenderProp: "/pronouns"})
	player := objects.add(true, prop.Nothing)

	if err := s.SetString(player, "pronouns", "they"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if v, _ := s.GetString(player, store.LegacyGenderProp); v != "they" {
		t.Errorf("Expected the configured gender property to be mirrored, got %q", v)
	}
	if s.Exists(player, store.DefaultGenderProp) {
		t.Errorf("Expected the default gender property not to be used")
	}
}

func TestLegacyGenderPropDisablesSync(t *testing.T) {
	objects := newMemObjects()
	s := NewLocalStore(objects, nil, store.Options{GenderProp: store.LegacyGenderProp})
	player := objects.add(true, prop.Nothing)

	if err := s.SetString(player, "sex", "male"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if v, _ := s.GetString(player, "sex"); v != "male" {
		t.Errorf("Expected sex to be stored, got %q", v)
	}
	if got := s.List(player, "/", prop.AccessWizard); len(got) != 1 {
		t.Errorf("Expected exactly one property, got %v", got)
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"color", "/color", true},
		{"//a/b", "/a/b", true},
		{"a/b:c/d", "/a/b", true},
		{"a//b/", "/a/b", true},
		{"", "", false},
		{"/", "", false},
		{":name", "", false},
	}
	for _, tt := range tests {
		got, err := validatePath(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("validatePath(%q): expected ok=%v, got error %v", tt.in, tt.ok, err)
			continue
		}
		if got != tt.want {
			t.Errorf("validatePath(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

// countingPager records the calls the store makes
type countingPager struct {
	fetches map[string]int
	values  int
	dirty   int
}

func (p *countingPager) FetchProps(ref prop.DBRef, priority bool, dir string) diskbase.Result {
	p.fetches[dir]++
	return diskbase.Hit
}

func (p *countingPager) FetchValue(prop.DBRef, *prop.Node) { p.values++ }
func (p *countingPager) DirtyProps(prop.DBRef)             { p.dirty++ }

func TestPagerCalls(t *testing.T) {
	objects := newMemObjects()
	pager := &countingPager{fetches: make(map[string]int)}
	s := NewLocalStore(objects, pager, store.Options{})
	o := objects.add(false, prop.Nothing)

	if err := s.SetInt(o, "a/b/c", 1); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if pager.fetches["/a/b"] != 1 {
		t.Errorf("Expected the parent directory to be paged in, got %v", pager.fetches)
	}
	if pager.dirty != 1 {
		t.Errorf("Expected one dirty mark, got %d", pager.dirty)
	}

	s.GetInt(o, "a/b/c")
	if pager.values != 1 {
		t.Errorf("Expected the value to be paged in once, got %d", pager.values)
	}

	// reads never dirty the object
	s.List(o, "a", prop.AccessMortal)
	if pager.dirty != 1 {
		t.Errorf("Expected reads not to dirty the object, got %d", pager.dirty)
	}
}
