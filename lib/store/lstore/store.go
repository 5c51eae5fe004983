package lstore

import (
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"strings"
)

var plog = logger.GetLogger("store")

type storeImpl struct {
	objects    store.Objects
	pager      store.Pager
	genderProp string
}

// NewLocalStore creates a property store over the trees of objects. Every
// access pages the needed part of a tree in through pager first; pass
// store.NopPager{} when all trees are resident.
//
// Thread-safety: the store is not safe for concurrent use. All calls must
// come from the goroutine that owns the database.
func NewLocalStore(objects store.Objects, pager store.Pager, opts store.Options) store.IPropStore {
	if pager == nil {
		pager = store.NopPager{}
	}
	gender := strings.Trim(opts.GenderProp, "/")
	if gender == "" {
		gender = store.DefaultGenderProp
	}
	return &storeImpl{
		objects:    objects,
		pager:      pager,
		genderProp: gender,
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// validatePath trims leading delimiters and cuts the name at the first ':'.
// Line breaks would split the record of the property on disk.
func validatePath(path string) (string, error) {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, ':'); i >= 0 {
		path = path[:i]
	}
	if strings.ContainsAny(path, "\r\n") || len(prop.Split(path)) == 0 {
		return "", store.ErrBadPath
	}
	return prop.Clean(path), nil
}

// resolve pages in the directory of path and returns its node, with the
// value resident
func (s *storeImpl) resolve(obj prop.DBRef, path string) *prop.Node {
	t, ok := s.objects.Props(obj)
	if !ok {
		return nil
	}
	s.pager.FetchProps(obj, false, prop.Dirname(path))
	n := t.Get(path)
	if n != nil {
		s.pager.FetchValue(obj, n)
	}
	return n
}

// loadAll pages in the whole tree of obj
func (s *storeImpl) loadAll(obj prop.DBRef, t *prop.Tree) {
	s.pager.FetchProps(obj, false, "/")
	for {
		var dirs []string
		var values []*prop.Node
		_ = t.Walk("/", func(path string, n *prop.Node) error {
			if _, unloaded := n.DirPos(); unloaded {
				dirs = append(dirs, path)
			}
			if _, unloaded := n.ValuePos(); unloaded {
				values = append(values, n)
			}
			return nil
		})
		for _, n := range values {
			s.pager.FetchValue(obj, n)
		}
		if len(dirs) == 0 {
			return
		}
		for _, d := range dirs {
			s.pager.FetchProps(obj, false, d)
		}
	}
}

// genderAlias returns the mirrored name of path if it is one of the gender
// properties of a player
func (s *storeImpl) genderAlias(obj prop.DBRef, path string) (string, bool) {
	if prop.SameName(s.genderProp, store.LegacyGenderProp) || !s.objects.IsPlayer(obj) {
		return "", false
	}
	name := strings.TrimLeft(path, "/")
	switch {
	case prop.SameName(name, s.genderProp):
		return store.LegacyGenderProp, true
	case prop.SameName(name, store.LegacyGenderProp):
		return s.genderProp, true
	default:
		return "", false
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) GetValue(obj prop.DBRef, path string) (prop.Value, bool) {
	n := s.resolve(obj, path)
	if n == nil || n.Type() == prop.TypeNone {
		return prop.Value{}, false
	}
	return n.Value(), true
}

func (s *storeImpl) GetString(obj prop.DBRef, path string) (string, bool) {
	v, ok := s.GetValue(obj, path)
	if !ok || v.Type() != prop.TypeString {
		return "", false
	}
	return v.Str(), true
}

func (s *storeImpl) GetInt(obj prop.DBRef, path string) int {
	v, _ := s.GetValue(obj, path)
	return v.Int()
}

func (s *storeImpl) GetFloat(obj prop.DBRef, path string) float64 {
	v, _ := s.GetValue(obj, path)
	return v.Float()
}

func (s *storeImpl) GetRef(obj prop.DBRef, path string) prop.DBRef {
	v, _ := s.GetValue(obj, path)
	return v.Ref()
}

func (s *storeImpl) GetLock(obj prop.DBRef, path string) prop.Lock {
	v, _ := s.GetValue(obj, path)
	return v.Lock()
}

func (s *storeImpl) GetFlags(obj prop.DBRef, path string) prop.Flags {
	t, ok := s.objects.Props(obj)
	if !ok {
		return 0
	}
	s.pager.FetchProps(obj, false, prop.Dirname(path))
	n := t.Get(path)
	if n == nil {
		return 0
	}
	return n.Flags().Public()
}

func (s *storeImpl) Set(obj prop.DBRef, path string, v prop.Value, sync bool) error {
	t, ok := s.objects.Props(obj)
	if !ok {
		releaseValue(v)
		return store.ErrNoSuchObject
	}
	name, err := validatePath(path)
	if err != nil {
		releaseValue(v)
		return err
	}

	if v.IsEmpty() {
		releaseValue(v)
		return s.Remove(obj, name, sync)
	}

	if sync {
		if alias, ok := s.genderAlias(obj, name); ok {
			mirror := v
			if l := v.Lock(); l != nil {
				mirror = prop.LockValue(l.Copy())
			}
			if err := s.Set(obj, alias, mirror, false); err != nil {
				return err
			}
		}
	}

	s.pager.FetchProps(obj, false, prop.Dirname(name))
	t.Create(name).SetValue(v)
	s.pager.DirtyProps(obj)
	return nil
}

// releaseValue releases a lock the caller handed over but that is not stored
func releaseValue(v prop.Value) {
	if r, ok := v.Lock().(prop.Releaser); ok {
		r.Release()
	}
}

func (s *storeImpl) SetString(obj prop.DBRef, path string, str string) error {
	return s.Set(obj, path, prop.String(str), true)
}

func (s *storeImpl) SetInt(obj prop.DBRef, path string, i int) error {
	return s.Set(obj, path, prop.Int(i), true)
}

func (s *storeImpl) SetFloat(obj prop.DBRef, path string, f float64) error {
	return s.Set(obj, path, prop.Float(f), true)
}

func (s *storeImpl) SetRef(obj prop.DBRef, path string, r prop.DBRef) error {
	return s.Set(obj, path, prop.Ref(r), true)
}

func (s *storeImpl) SetLock(obj prop.DBRef, path string, l prop.Lock) error {
	return s.Set(obj, path, prop.LockValue(l), true)
}

func (s *storeImpl) SetFlags(obj prop.DBRef, path string, f prop.Flags) error {
	return s.changeFlags(obj, path, func(old prop.Flags) prop.Flags { return old.Set(f) })
}

func (s *storeImpl) ClearFlags(obj prop.DBRef, path string, f prop.Flags) error {
	return s.changeFlags(obj, path, func(old prop.Flags) prop.Flags { return old.Clear(f) })
}

func (s *storeImpl) changeFlags(obj prop.DBRef, path string, fn func(prop.Flags) prop.Flags) error {
	t, ok := s.objects.Props(obj)
	if !ok {
		return store.ErrNoSuchObject
	}
	name, err := validatePath(path)
	if err != nil {
		return err
	}
	s.pager.FetchProps(obj, false, prop.Dirname(name))
	n := t.Get(name)
	if n == nil {
		return store.ErrNoSuchProperty
	}
	n.SetFlags(fn(n.Flags()))
	s.pager.DirtyProps(obj)
	return nil
}

func (s *storeImpl) Remove(obj prop.DBRef, path string, sync bool) error {
	t, ok := s.objects.Props(obj)
	if !ok {
		return store.ErrNoSuchObject
	}
	name, err := validatePath(path)
	if err != nil {
		return err
	}

	if sync {
		if alias, ok := s.genderAlias(obj, name); ok {
			if err := s.Remove(obj, alias, false); err != nil {
				return err
			}
		}
	}

	s.pager.FetchProps(obj, false, prop.Dirname(name))
	if t.Delete(name) {
		s.pager.DirtyProps(obj)
	}
	return nil
}

// keepOnRemoveAll reports whether a top-level property survives RemoveAll
// without wipeHidden
func keepOnRemoveAll(name string) bool {
	switch {
	case name == "_":
		return true
	case name[0] == prop.SigilHidden, name[0] == prop.SigilSeeOnly:
		return true
	default:
		return false
	}
}

func (s *storeImpl) RemoveAll(obj prop.DBRef, wipeHidden bool) error {
	t, ok := s.objects.Props(obj)
	if !ok {
		return store.ErrNoSuchObject
	}
	s.pager.FetchProps(obj, false, "/")

	if wipeHidden {
		t.Clear()
	} else {
		for n := t.FirstChild("/"); n != nil; {
			name := n.Name()
			n = t.NextChild("/" + name)
			if !keepOnRemoveAll(name) {
				t.Delete("/" + name)
			}
		}
	}
	plog.Debugf("removed all properties of %s (wipe hidden=%v), %d left", obj, wipeHidden, t.Len())
	s.pager.DirtyProps(obj)
	return nil
}

func (s *storeImpl) FirstChild(obj prop.DBRef, dir string) string {
	t, ok := s.objects.Props(obj)
	if !ok {
		return ""
	}
	s.pager.FetchProps(obj, false, dir)
	n := t.FirstChild(dir)
	if n == nil {
		return ""
	}
	return prop.Join(dir, n.Name())
}

func (s *storeImpl) NextChild(obj prop.DBRef, path string) string {
	t, ok := s.objects.Props(obj)
	if !ok {
		return ""
	}
	dir := prop.Dirname(path)
	s.pager.FetchProps(obj, false, dir)
	n := t.NextChild(path)
	if n == nil {
		return ""
	}
	return prop.Join(dir, n.Name())
}

func (s *storeImpl) List(obj prop.DBRef, dir string, a prop.Access) []string {
	var paths []string
	for p := s.FirstChild(obj, dir); p != ""; p = s.NextChild(obj, p) {
		if prop.Readable(p, a) {
			paths = append(paths, p)
		}
	}
	return paths
}

func (s *storeImpl) IsDir(obj prop.DBRef, path string) bool {
	t, ok := s.objects.Props(obj)
	if !ok {
		return false
	}
	s.pager.FetchProps(obj, false, prop.Dirname(path))
	return t.IsDir(path)
}

func (s *storeImpl) Exists(obj prop.DBRef, path string) bool {
	t, ok := s.objects.Props(obj)
	if !ok {
		return false
	}
	s.pager.FetchProps(obj, false, prop.Dirname(path))
	return t.Get(path) != nil
}

// maxEnvironmentDepth bounds the containment walk of FindInEnvironment
const maxEnvironmentDepth = 256

func (s *storeImpl) FindInEnvironment(obj prop.DBRef, path string) (prop.Value, prop.DBRef) {
	for depth := 0; obj != prop.Nothing && depth < maxEnvironmentDepth; depth++ {
		if s.Exists(obj, path) {
			v, _ := s.GetValue(obj, path)
			return v, obj
		}
		obj = s.objects.Location(obj)
	}
	return prop.Value{}, prop.Nothing
}

func (s *storeImpl) CopyAll(src, dst prop.DBRef) error {
	from, ok := s.objects.Props(src)
	if !ok {
		return store.ErrNoSuchObject
	}
	to, ok := s.objects.Props(dst)
	if !ok {
		return store.ErrNoSuchObject
	}
	s.loadAll(src, from)
	s.pager.FetchProps(dst, false, "/")
	to.CopyFrom(from)
	s.pager.DirtyProps(dst)
	plog.Debugf("copied %d top-level properties from %s to %s", to.Len(), src, dst)
	return nil
}

func (s *storeImpl) Size(obj prop.DBRef) int {
	t, ok := s.objects.Props(obj)
	if !ok {
		return 0
	}
	return t.Size()
}
