package db

import (
	"errors"
	"github.com/ValentinKolb/propdb/lib/boolexp"
	"github.com/ValentinKolb/propdb/lib/diskbase"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/propfile"
	"github.com/ValentinKolb/propdb/lib/store"
	storetesting "github.com/ValentinKolb/propdb/lib/store/testing"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func diskbaseOptions(lazy, convert bool) Options {
	opts := DefaultOptions()
	opts.Cache.LazyValues = lazy
	opts.Cache.Convert = convert
	return opts
}

func objectType(player bool) ObjectType {
	if player {
		return TypePlayer
	}
	return TypeThing
}

// fixture creates a store fixture backed by a database file in a temp dir
func fixture(opts Options) storetesting.Factory {
	return func(t *testing.T) *storetesting.Fixture {
		path := filepath.Join(t.TempDir(), "world.db")
		d := New(opts)
		t.Cleanup(func() { d.Close() })

		f := &storetesting.Fixture{
			Store: d.Store(),
			NewObject: func(player bool, location prop.DBRef) prop.DBRef {
				return d.NewObject("test object", objectType(player), location, 0)
			},
		}
		if opts.Diskbase {
			f.Evict = func(ref prop.DBRef) {
				if err := d.Save(path); err != nil {
					t.Fatalf("Expected save to succeed, got %v", err)
				}
				if err := d.Cache().Dispose(ref); err != nil {
					t.Fatalf("Expected %s to be evictable after a save, got %v", ref, err)
				}
				if st, _ := d.Cache().StateOf(ref); st != diskbase.StateUnloaded {
					t.Fatalf("Expected %s to be unloaded, got %s", ref, st)
				}
			}
		}
		return f
	}
}

// buildWorld creates a small database with a few objects and properties
func buildWorld(t *testing.T, d *DB) (room, player, thing prop.DBRef) {
	room = d.NewObject("Lobby", TypeRoom, prop.Nothing, 1)
	player = d.NewObject("Wizard", TypePlayer, room, 1)
	thing = d.NewObject("Lamp", TypeThing, player, 1)

	s := d.Store()
	mustNot(t, s.SetString(room, "_/de", "A quiet lobby.\nExits lead north."))
	mustNot(t, s.SetInt(room, "visits", 12))
	mustNot(t, s.SetString(player, "gender", "female"))
	mustNot(t, s.SetRef(player, "home", room))
	mustNot(t, s.SetFloat(thing, "weight", 1.5))
	lock, _ := boolexp.Parse("#1|lit:yes")
	mustNot(t, s.SetLock(thing, "_/lock", lock))
	mustNot(t, s.SetString(thing, "deep/a/b/c", "nested"))
	return room, player, thing
}

func mustNot(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

// checkWorld verifies the content written by buildWorld
func checkWorld(t *testing.T, d *DB, room, player, thing prop.DBRef) {
	t.Helper()
	s := d.Store()

	if v, _ := s.GetString(room, "_/de"); v != "A quiet lobby.\nExits lead north." {
		t.Errorf("Expected the room description to survive, got %q", v)
	}
	if s.GetInt(room, "visits") != 12 {
		t.Errorf("Expected visits to be 12, got %d", s.GetInt(room, "visits"))
	}
	if v, _ := s.GetString(player, "sex"); v != "female" {
		t.Errorf("Expected the mirrored gender to survive, got %q", v)
	}
	if s.GetRef(player, "home") != room {
		t.Errorf("Expected home to be %s, got %s", room, s.GetRef(player, "home"))
	}
	if s.GetFloat(thing, "weight") != 1.5 {
		t.Errorf("Expected weight 1.5, got %v", s.GetFloat(thing, "weight"))
	}
	if l := s.GetLock(thing, "_/lock"); l == nil || l.Unparse() != "#1|lit:yes" {
		t.Errorf("Expected the lock to survive, got %v", l)
	}
	if v, _ := s.GetString(thing, "deep/a/b/c"); v != "nested" {
		t.Errorf("Expected the nested property to survive, got %q", v)
	}

	obj, ok := d.Get(thing)
	if !ok {
		t.Fatalf("Expected %s to exist", thing)
	}
	if obj.Name != "Lamp" || obj.Type != TypeThing || obj.Location != player || obj.Owner != 1 {
		t.Errorf("Expected the header of %s to survive, got %+v", thing, obj)
	}
	if !d.IsPlayer(player) || d.IsPlayer(room) {
		t.Errorf("Expected only %s to be a player", player)
	}
}

// --------------------------------------------------------------------------
// Store conformance
// --------------------------------------------------------------------------

func TestPropStore(t *testing.T) {
	storetesting.RunPropStoreTests(t, "Memory", fixture(Options{}))
	storetesting.RunPropStoreTests(t, "Diskbase", fixture(diskbaseOptions(true, false)))
	storetesting.RunPropStoreTests(t, "DiskbaseEager", fixture(diskbaseOptions(false, false)))
	storetesting.RunPropStoreTests(t, "DiskbaseConvert", fixture(diskbaseOptions(true, true)))
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

func TestSaveOpen(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts Options
	}{
		{"Memory", Options{}},
		{"Diskbase", diskbaseOptions(true, false)},
		{"DiskbaseConvert", diskbaseOptions(true, true)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "world.db")

			d := New(tc.opts)
			room, player, thing := buildWorld(t, d)
			mustNot(t, d.Save(path))
			checkWorld(t, d, room, player, thing)
			mustNot(t, d.Close())

			loaded, err := Open(path, tc.opts)
			if err != nil {
				t.Fatalf("Expected open to succeed, got %v", err)
			}
			defer loaded.Close()

			if loaded.Len() != 3 || loaded.Top() != 3 {
				t.Errorf("Expected 3 objects and top #3, got %d and %s", loaded.Len(), loaded.Top())
			}
			checkWorld(t, loaded, room, player, thing)

			// a second save after partial loading keeps every block
			mustNot(t, loaded.Store().SetInt(room, "visits", 13))
			mustNot(t, loaded.Save(""))
			mustNot(t, loaded.Close())

			again, err := Open(path, tc.opts)
			if err != nil {
				t.Fatalf("Expected reopen to succeed, got %v", err)
			}
			defer again.Close()
			if again.Store().GetInt(room, "visits") != 13 {
				t.Errorf("Expected the change to be saved")
			}
			if v, _ := again.Store().GetString(thing, "deep/a/b/c"); v != "nested" {
				t.Errorf("Expected the untouched object to be copied, got %q", v)
			}
		})
	}
}

func TestUnloadedBlocksAreCopiedVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	d := New(Options{})
	buildWorld(t, d)
	mustNot(t, d.Save(path))

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := Open(path, diskbaseOptions(true, false))
	if err != nil {
		t.Fatalf("Expected open to succeed, got %v", err)
	}
	defer loaded.Close()

	out := filepath.Join(t.TempDir(), "copy.db")
	mustNot(t, loaded.Save(out))
	after, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Errorf("Expected an untouched database to be saved byte for byte")
	}
	if loaded.Path() != out {
		t.Errorf("Expected the database to follow the saved file, got %s", loaded.Path())
	}
}

// Three properties on disk: one fetch is one miss, housekeeping below the
// threshold keeps the object, eviction and a read cost exactly one more.
func TestDiskbaseFetchCycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	d := New(Options{})
	p := d.NewObject("P", TypeThing, prop.Nothing, 0)
	mustNot(t, d.Store().SetString(p, "a", "1"))
	mustNot(t, d.Store().SetInt(p, "b", 2))
	mustNot(t, d.Store().SetRef(p, "c", 3))
	mustNot(t, d.Save(path))

	loaded, err := Open(path, diskbaseOptions(true, false))
	if err != nil {
		t.Fatalf("Expected open to succeed, got %v", err)
	}
	defer loaded.Close()
	cache := loaded.Cache()

	if st, _ := cache.StateOf(p); st != diskbase.StateUnloaded {
		t.Fatalf("Expected P to start unloaded, got %s", st)
	}
	if res := cache.FetchProps(p, false, "/"); res != diskbase.Miss {
		t.Errorf("Expected a miss, got %s", res)
	}
	if tree, _ := loaded.Props(p); tree.Len() != 3 {
		t.Errorf("Expected 3 properties to be loaded, got %d", tree.Len())
	}
	if cache.Info().Misses != 1 {
		t.Errorf("Expected one miss, got %d", cache.Info().Misses)
	}

	if n := cache.Housekeep(); n != 0 {
		t.Errorf("Expected housekeeping to keep P, evicted %d", n)
	}
	if st, _ := cache.StateOf(p); st != diskbase.StateLoaded {
		t.Errorf("Expected P to stay loaded, got %s", st)
	}

	mustNot(t, cache.Dispose(p))
	if st, _ := cache.StateOf(p); st != diskbase.StateUnloaded {
		t.Errorf("Expected P to be unloaded, got %s", st)
	}
	if v, _ := loaded.Store().GetString(p, "a"); v != "1" {
		t.Errorf("Expected a to be 1, got %q", v)
	}
	if cache.Info().Misses != 2 {
		t.Errorf("Expected exactly one more miss, got %d", cache.Info().Misses)
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Empty", ""},
		{"NoHeader", "!0\nname\nroom #-1 #-1\n*Props*\n*End*\n***END OF DUMP***\n"},
		{"NoTrailer", dumpHeader + "\n!0\nname\nroom #-1 #-1\n*Props*\n*End*\n"},
		{"BadRef", dumpHeader + "\n!x\nname\nroom #-1 #-1\n*Props*\n*End*\n***END OF DUMP***\n"},
		{"BadType", dumpHeader + "\n!0\nname\nstatue #-1 #-1\n*Props*\n*End*\n***END OF DUMP***\n"},
		{"ShortTypeLine", dumpHeader + "\n!0\nname\nroom #-1\n*Props*\n*End*\n***END OF DUMP***\n"},
		{"Duplicate", dumpHeader + "\n!0\na\nroom #-1 #-1\n*Props*\n*End*\n!0\nb\nroom #-1 #-1\n*Props*\n*End*\n***END OF DUMP***\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.db")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatal(err)
			}
			for _, opts := range []Options{{}, DefaultOptions()} {
				d, err := Open(path, opts)
				if err == nil {
					d.Close()
					t.Errorf("Expected an error opening %s (diskbase=%v)", tc.name, opts.Diskbase)
					continue
				}
				if !errors.Is(err, ErrBadFormat) && !propfile.IsCorrupt(err) {
					t.Errorf("Expected a format error, got %v", err)
				}
			}
		})
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.db"), Options{}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}
}

func TestCorruptBlockIsDetectedOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.db")
	content := dumpHeader + "\n!0\nname\nroom #-1 #-1\n*Props*\n/a:q:1\n*End*\n" + dumpTrailer + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(path, Options{})
	if !propfile.IsCorrupt(err) {
		t.Errorf("Expected a corrupt block error, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Object table
// --------------------------------------------------------------------------

func TestObjects(t *testing.T) {
	d := New(Options{})
	room, player, thing := buildWorld(t, d)

	if got := d.Refs(); len(got) != 3 || got[0] != room || got[2] != thing {
		t.Errorf("Expected refs in ascending order, got %v", got)
	}
	if d.Location(thing) != player {
		t.Errorf("Expected %s in %s", thing, player)
	}

	mustNot(t, d.Destroy(player))
	if _, ok := d.Get(player); ok {
		t.Errorf("Expected %s to be destroyed", player)
	}
	if d.Location(thing) != room {
		t.Errorf("Expected the content of a destroyed object to move to its location, got %s", d.Location(thing))
	}
	if err := d.Destroy(player); !errors.Is(err, ErrNoSuchObject) {
		t.Errorf("Expected ErrNoSuchObject, got %v", err)
	}
	if d.Location(player) != prop.Nothing {
		t.Errorf("Expected Nothing as location of a destroyed object")
	}

	// references are never reused
	if ref := d.NewObject("new\nline", TypeThing, room, 1); ref != 3 {
		t.Errorf("Expected #3, got %s", ref)
	}
	if obj, _ := d.Get(3); strings.Contains(obj.Name, "\n") {
		t.Errorf("Expected names to stay on one line, got %q", obj.Name)
	}
}

func TestParseObjectType(t *testing.T) {
	for i, name := range objectTypeNames {
		typ, err := ParseObjectType(strings.ToUpper(name))
		if err != nil || typ != ObjectType(i) {
			t.Errorf("Expected %s to parse, got %v (%v)", name, typ, err)
		}
		if typ.String() != name {
			t.Errorf("Expected %s, got %s", name, typ)
		}
	}
	if _, err := ParseObjectType("statue"); err == nil {
		t.Errorf("Expected an unknown type to fail")
	}
}

func TestInfo(t *testing.T) {
	d := New(DefaultOptions())
	buildWorld(t, d)
	d.NewObject("empty", TypeGarbage, prop.Nothing, 1)

	info := d.Info()
	if info.DbType != ImplDiskbase {
		t.Errorf("Expected a diskbase database, got %s", info.DbType)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("Expected a positive size, got %d", info.SizeBytes)
	}
	if len(info.SupportedFeatures) != 2 {
		t.Errorf("Expected Diskbase and LazyValues, got %v", info.SupportedFeatures)
	}
	if !d.SupportsFeature(FeatureDiskbase|FeatureLazyValues) || d.SupportsFeature(FeatureConvert) {
		t.Errorf("Expected feature flags to follow the options")
	}

	mem := New(Options{})
	if mem.Info().DbType != ImplMemory || mem.SupportsFeature(FeatureDiskbase) {
		t.Errorf("Expected a memory database without diskbase")
	}
	if mem.Maintain() != 0 {
		t.Errorf("Expected maintenance to be a no-op without diskbase")
	}
}

// TestLineBreaksNeverReachTheFile tests that names and locks with line breaks
// are refused before they can corrupt a save
func TestLineBreaksNeverReachTheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	d := NewAt(path, diskbaseOptions(true, false))
	o := d.NewObject("Box", TypeThing, prop.Nothing, 0)
	s := d.Store()

	if err := s.SetString(o, "a\nb", "x"); !errors.Is(err, store.ErrBadPath) {
		t.Errorf("Expected ErrBadPath, got %v", err)
	}
	if _, err := boolexp.Parse("name:b\nc"); !errors.Is(err, boolexp.ErrSyntax) {
		t.Errorf("Expected a syntax error, got %v", err)
	}
	mustNot(t, s.SetString(o, `a\b`, "x:y\nz"))
	mustNot(t, d.Save(""))
	mustNot(t, d.Close())

	loaded, err := Open(path, diskbaseOptions(true, false))
	if err != nil {
		t.Fatalf("Expected open to succeed, got %v", err)
	}
	defer loaded.Close()
	if v, _ := loaded.Store().GetString(o, `a\b`); v != "x:y\nz" {
		t.Errorf("Expected x:y\\nz, got %q", v)
	}
	if loaded.Store().Exists(o, "a\nb") {
		t.Errorf("Expected no property with a line break in its name")
	}
}
