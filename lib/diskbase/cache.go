package diskbase

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/propfile"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"io"
	"time"
)

var plog = logger.GetLogger("diskbase")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	housekeepFloor = 10 // housekeeping never shrinks the Loaded ring below this
	housekeepBatch = 10 // maximum evictions per housekeeping pass
)

var (
	// ErrDirty is returned when evicting an object with unsaved changes
	ErrDirty = errors.New("object has unsaved property changes")
	// ErrUntracked is returned for objects the cache does not know
	ErrUntracked = errors.New("object is not tracked by the property cache")
)

// --------------------------------------------------------------------------
// States and results
// --------------------------------------------------------------------------

// State is the cache state of one object
type State uint8

const (
	StateUnloaded State = iota // properties only in the backing file
	StateLoaded                // properties resident, evictable
	StatePriority              // properties resident, only evicted when stale
	StateChanged               // properties resident and dirty, never evicted
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StatePriority:
		return "priority"
	case StateChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Result classifies a fetch
type Result uint8

const (
	Hit         Result = iota // everything requested was resident
	Miss                      // the object was loaded from the backing file
	PartialMiss               // the object was resident, a subdirectory was paged in
)

func (r Result) String() string {
	switch r {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case PartialMiss:
		return "partial miss"
	default:
		return "unknown"
	}
}

// entry is the cache record of one object. It is not part of the property
// tree; the ring links live here so eviction of one object never touches the
// tree of another.
type entry struct {
	ref      prop.DBRef
	tree     *prop.Tree
	pos      int64 // offset of the property block in the backing file, -1 if never written
	state    State
	lastUsed time.Time
	prev     *entry
	next     *entry
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures the cache
type Options struct {
	LazyValues       bool             // leave string and lock values in the file until read
	Convert          bool             // always parse and re-serialize on write, never copy raw blocks
	StaleInterval    time.Duration    // age after which a resident object is evicted by DisposeStale
	MaxLoadedPercent int              // housekeeping threshold as a share of all tracked objects
	StatSlot         time.Duration    // fetch statistics slot
	StatWindow       time.Duration    // fetch statistics window
	LockParser       prop.LockParser  // compiles lock values read from the file
	Clock            func() time.Time // time source (nil = time.Now)
}

// DefaultOptions returns the default cache options
func DefaultOptions() Options {
	return Options{
		LazyValues:       true,
		StaleInterval:    10 * time.Minute,
		MaxLoadedPercent: 25,
		StatSlot:         30 * time.Second,
		StatWindow:       time.Hour,
	}
}

// --------------------------------------------------------------------------
// Cache
// --------------------------------------------------------------------------

// Cache defers loading of property trees from a backing file until they are
// accessed, and evicts resident trees again based on age and on the share of
// loaded objects.
//
// Thread-safety: Cache is not safe for concurrent use. It belongs to the
// goroutine that owns the database.
type Cache struct {
	opts    Options
	now     func() time.Time
	backing io.ReaderAt

	entries  *xsync.MapOf[prop.DBRef, *entry]
	loaded   ringQueue
	priority ringQueue
	changed  ringQueue

	stats   *FetchStats
	metrics *cacheMetrics
}

// New creates an empty cache. SetBacking must be called before tracking
// objects that live in a file.
func New(opts Options) *Cache {
	def := DefaultOptions()
	if opts.StatSlot <= 0 {
		opts.StatSlot = def.StatSlot
	}
	if opts.StatWindow <= 0 {
		opts.StatWindow = def.StatWindow
	}
	if opts.MaxLoadedPercent <= 0 {
		opts.MaxLoadedPercent = def.MaxLoadedPercent
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	c := &Cache{
		opts:    opts,
		now:     now,
		entries: xsync.NewMapOf[prop.DBRef, *entry](),
		stats:   NewFetchStats(opts.StatSlot, opts.StatWindow, now()),
	}
	c.loaded.init()
	c.priority.init()
	c.changed.init()
	c.metrics = newCacheMetrics(c)
	return c
}

// SetBacking sets the file the recorded block offsets refer to
func (c *Cache) SetBacking(r io.ReaderAt) {
	c.backing = r
}

// ringOf returns the ring of a state (nil for StateUnloaded)
func (c *Cache) ringOf(s State) *ringQueue {
	switch s {
	case StateLoaded:
		return &c.loaded
	case StatePriority:
		return &c.priority
	case StateChanged:
		return &c.changed
	default:
		return nil
	}
}

// moveTo removes e from its current ring and appends it to the ring of s
func (c *Cache) moveTo(e *entry, s State) {
	if q := c.ringOf(e.state); q != nil {
		q.remove(e)
	}
	e.state = s
	if q := c.ringOf(s); q != nil {
		q.pushBack(e)
	}
}

// fatal reports corruption of the backing file and panics. A property
// block that cannot be read means data loss, which is never tolerated.
func (c *Cache) fatal(ref prop.DBRef, err error) {
	plog.Errorf("corrupt property data for %s: %v", ref, err)
	var ce *propfile.CorruptError
	if !errors.As(err, &ce) {
		ce = &propfile.CorruptError{Msg: "unreadable property block", Err: err}
	}
	panic(ce)
}

// --------------------------------------------------------------------------
// Tracking
// --------------------------------------------------------------------------

// Track registers an object whose properties are stored at pos in the
// backing file. tree is the (empty) property tree of the object; the cache
// fills and clears it.
func (c *Cache) Track(ref prop.DBRef, tree *prop.Tree, pos int64) {
	c.Destroy(ref)
	c.entries.Store(ref, &entry{ref: ref, tree: tree, pos: pos, state: StateUnloaded})
}

// TrackNew registers a new object that has no block in the backing file yet.
// It starts out dirty.
func (c *Cache) TrackNew(ref prop.DBRef, tree *prop.Tree) {
	c.Destroy(ref)
	e := &entry{ref: ref, tree: tree, pos: -1, lastUsed: c.now()}
	c.entries.Store(ref, e)
	c.moveTo(e, StateChanged)
}

// Destroy frees the properties of an object and forgets it, regardless of
// unsaved changes. Flushing before destruction is the caller's job.
func (c *Cache) Destroy(ref prop.DBRef) {
	e, ok := c.entries.LoadAndDelete(ref)
	if !ok {
		return
	}
	c.moveTo(e, StateUnloaded)
	e.tree.Clear()
}

// Tracked reports whether the cache knows ref
func (c *Cache) Tracked(ref prop.DBRef) bool {
	_, ok := c.entries.Load(ref)
	return ok
}

// StateOf returns the cache state of ref
func (c *Cache) StateOf(ref prop.DBRef) (State, bool) {
	e, ok := c.entries.Load(ref)
	if !ok {
		return StateUnloaded, false
	}
	return e.state, true
}

// --------------------------------------------------------------------------
// Fetching
// --------------------------------------------------------------------------

// FetchProps makes the properties of ref below dir resident. A resident
// object is moved to the back of its ring. For an unloaded object
// housekeeping runs first, then the top level is loaded together with the
// subdirectories along dir, and the object enters the Priority ring if
// priority is set, the Loaded ring otherwise. Objects the cache does not
// track are always resident.
func (c *Cache) FetchProps(ref prop.DBRef, priority bool, dir string) Result {
	e, ok := c.entries.Load(ref)
	if !ok {
		return Hit
	}
	now := c.now()
	e.lastUsed = now

	if e.state != StateUnloaded {
		target := e.state
		if priority && target == StateLoaded {
			target = StatePriority
		}
		c.moveTo(e, target)
		if c.pageInDirs(e, dir) == 0 {
			c.metrics.hits.Inc()
			return Hit
		}
		c.metrics.misses.Inc()
		return PartialMiss
	}

	c.Housekeep()
	c.loadTop(e)
	c.pageInDirs(e, dir)
	c.stats.Record(now)
	c.metrics.misses.Inc()

	if priority {
		c.moveTo(e, StatePriority)
	} else {
		c.moveTo(e, StateLoaded)
	}
	return Miss
}

func (c *Cache) loadOptions() propfile.LoadOptions {
	return propfile.LoadOptions{
		LazyDirs:   true,
		LazyValues: c.opts.LazyValues,
		LockParser: c.opts.LockParser,
	}
}

// loadTop reads the top level of the object's block
func (c *Cache) loadTop(e *entry) {
	if e.pos < 0 {
		return
	}
	if c.backing == nil {
		c.fatal(e.ref, fmt.Errorf("no backing file"))
	}
	r := propfile.NewReaderAt(c.backing, e.pos)
	if err := propfile.LoadProperties(r, e.tree, c.loadOptions()); err != nil {
		c.fatal(e.ref, err)
	}
	c.metrics.observeRead(r.Pos() - e.pos)
}

// pageInDirs pages in every subdirectory along dir that is not resident and
// returns their number
func (c *Cache) pageInDirs(e *entry, dir string) int {
	count := 0
	for {
		path, n := e.tree.FirstDirUnloaded(dir)
		if n == nil {
			return count
		}
		c.loadDir(e, path, n)
		count++
	}
}

func (c *Cache) loadDir(e *entry, path string, n *prop.Node) {
	pos, _ := n.DirPos()
	if c.backing == nil {
		c.fatal(e.ref, fmt.Errorf("no backing file"))
	}
	r := propfile.NewReaderAt(c.backing, pos)
	if err := propfile.LoadDir(r, e.tree, path, c.loadOptions()); err != nil {
		c.fatal(e.ref, err)
	}
	n.ClearDirUnloaded()
	c.metrics.observeRead(r.Pos() - pos)
}

// FetchValue resolves the value of n if it was left in the backing file
func (c *Cache) FetchValue(ref prop.DBRef, n *prop.Node) {
	pos, unloaded := n.ValuePos()
	if !unloaded {
		return
	}
	if c.backing == nil {
		c.fatal(ref, fmt.Errorf("no backing file"))
	}
	v, err := propfile.ReadValueAt(c.backing, pos, n.Type(), c.opts.LockParser)
	if err != nil {
		c.fatal(ref, err)
	}
	n.SetLoadedValue(v)
}

// materialize makes the whole tree of e resident
func (c *Cache) materialize(e *entry) {
	if e.state == StateUnloaded {
		c.loadTop(e)
	}
	for {
		type pending struct {
			path string
			node *prop.Node
		}
		var dirs []pending
		var values []*prop.Node
		_ = e.tree.Walk("/", func(path string, n *prop.Node) error {
			if n.Flags().Has(prop.FlagDirUnloaded) {
				dirs = append(dirs, pending{path, n})
			}
			if n.Flags().Has(prop.FlagUnloaded) {
				values = append(values, n)
			}
			return nil
		})
		for _, n := range values {
			c.FetchValue(e.ref, n)
		}
		if len(dirs) == 0 {
			return
		}
		for _, d := range dirs {
			c.loadDir(e, d.path, d.node)
		}
	}
}

// --------------------------------------------------------------------------
// Dirty tracking
// --------------------------------------------------------------------------

// DirtyProps marks the properties of ref as changed. A changed object is
// never evicted until UndirtyProps is called.
func (c *Cache) DirtyProps(ref prop.DBRef) {
	e, ok := c.entries.Load(ref)
	if !ok {
		return
	}
	if e.state == StateUnloaded {
		c.FetchProps(ref, false, "/")
	}
	e.lastUsed = c.now()
	if e.state != StateChanged {
		c.moveTo(e, StateChanged)
	}
}

// UndirtyProps returns a changed object to ordinary Loaded tracking after
// its properties were persisted, and re-evaluates eviction.
func (c *Cache) UndirtyProps(ref prop.DBRef) {
	e, ok := c.entries.Load(ref)
	if !ok || e.state != StateChanged {
		return
	}
	c.moveTo(e, StateLoaded)
	c.Housekeep()
}

// IsDirty reports whether ref has unsaved property changes
func (c *Cache) IsDirty(ref prop.DBRef) bool {
	e, ok := c.entries.Load(ref)
	return ok && e.state == StateChanged
}

// --------------------------------------------------------------------------
// Eviction
// --------------------------------------------------------------------------

// evict frees the tree of a clean resident object
func (c *Cache) evict(e *entry) {
	c.moveTo(e, StateUnloaded)
	e.tree.Clear()
	c.metrics.evictions.Inc()
}

// Dispose evicts the properties of ref. Dirty objects are refused with
// ErrDirty; evicting an unloaded object is a no-op.
func (c *Cache) Dispose(ref prop.DBRef) error {
	e, ok := c.entries.Load(ref)
	if !ok {
		return ErrUntracked
	}
	switch e.state {
	case StateUnloaded:
		return nil
	case StateChanged:
		return ErrDirty
	}
	if e.pos < 0 {
		return ErrDirty
	}
	c.evict(e)
	return nil
}

// Housekeep evicts up to a batch of the least recently used Loaded objects
// while the Loaded ring holds more than both the floor and the configured
// share of all tracked objects. It returns the number of evictions.
func (c *Cache) Housekeep() int {
	limit := c.entries.Size() * c.opts.MaxLoadedPercent / 100
	if limit < housekeepFloor {
		limit = housekeepFloor
	}

	evicted := 0
	for c.loaded.len > limit && evicted < housekeepBatch {
		c.evict(c.loaded.front())
		evicted++
	}
	if evicted > 0 {
		plog.Debugf("housekeeping evicted %d objects, %d loaded", evicted, c.loaded.len)
	}
	return evicted
}

// DisposeStale evicts every Loaded or Priority object that was not used for
// longer than the stale interval. It returns the number of evictions.
func (c *Cache) DisposeStale() int {
	if c.opts.StaleInterval <= 0 {
		return 0
	}
	cutoff := c.now().Add(-c.opts.StaleInterval)

	evicted := 0
	for _, q := range []*ringQueue{&c.loaded, &c.priority} {
		// rings are ordered by last use, so the scan stops at the first fresh entry
		for e := q.front(); e != nil && e.lastUsed.Before(cutoff); e = q.front() {
			c.evict(e)
			evicted++
		}
	}
	if evicted > 0 {
		plog.Infof("disposed %d stale property sets", evicted)
	}
	return evicted
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// WriteProps writes the property block of ref to w. An unloaded object is
// copied byte for byte from the backing file unless the cache converts;
// otherwise the tree is made fully resident and serialized. It returns the
// number of bytes written.
func (c *Cache) WriteProps(w io.Writer, ref prop.DBRef) (int64, error) {
	e, ok := c.entries.Load(ref)
	if !ok {
		return 0, ErrUntracked
	}

	if e.state == StateUnloaded && e.pos >= 0 {
		if !c.opts.Convert {
			n, err := propfile.CopyBlock(w, c.backing, e.pos)
			if err != nil && propfile.IsCorrupt(err) {
				c.fatal(ref, err)
			}
			return n, err
		}
		// convert: parse, write and drop the tree again
		c.materialize(e)
		n, err := propfile.WriteProperties(w, e.tree)
		e.tree.Clear()
		return n, err
	}

	c.materialize(e)
	return propfile.WriteProperties(w, e.tree)
}

// Rebase switches the cache to a new backing file after a save pass.
// positions maps every tracked object to the offset of its block in the new
// file. Resident trees are fully materialized by WriteProps, so no offset
// of the old file survives.
func (c *Cache) Rebase(backing io.ReaderAt, positions map[prop.DBRef]int64) {
	c.backing = backing
	c.entries.Range(func(ref prop.DBRef, e *entry) bool {
		if pos, ok := positions[ref]; ok {
			e.pos = pos
		} else {
			plog.Warningf("no block offset for %s after save", ref)
		}
		return true
	})
}

// Position returns the block offset of ref in the backing file
func (c *Cache) Position(ref prop.DBRef) (int64, bool) {
	e, ok := c.entries.Load(ref)
	if !ok {
		return 0, false
	}
	return e.pos, true
}
