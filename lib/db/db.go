package db

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/propdb/lib/boolexp"
	"github.com/ValentinKolb/propdb/lib/db/util"
	"github.com/ValentinKolb/propdb/lib/diskbase"
	"github.com/ValentinKolb/propdb/lib/prop"
	"github.com/ValentinKolb/propdb/lib/store"
	"github.com/ValentinKolb/propdb/lib/store/lstore"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"os"
	"sort"
	"strings"
)

var plog = logger.GetLogger("db")

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMemory   Implementation = "memory"   // every property tree stays resident
	ImplDiskbase Implementation = "diskbase" // trees are paged in from the dump file
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureDiskbase   Feature = 1 << iota // Property trees are paged in on demand
	FeatureLazyValues                     // String and lock values stay on disk until read
	FeatureConvert                        // Saves re-serialize every property block
)

func (f Feature) String() string {
	switch f {
	case FeatureDiskbase:
		return "Diskbase"
	case FeatureLazyValues:
		return "LazyValues"
	case FeatureConvert:
		return "Convert"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// ObjectType is the kind of a database object
type ObjectType uint8

const (
	TypeRoom ObjectType = iota
	TypeThing
	TypeExit
	TypePlayer
	TypeProgram
	TypeGarbage
)

var objectTypeNames = []string{"room", "thing", "exit", "player", "program", "garbage"}

func (t ObjectType) String() string {
	if int(t) < len(objectTypeNames) {
		return objectTypeNames[t]
	}
	return "unknown"
}

// ParseObjectType parses the name of an object type
func ParseObjectType(s string) (ObjectType, error) {
	for i, name := range objectTypeNames {
		if strings.EqualFold(s, name) {
			return ObjectType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

// Object is one entry of the object table
type Object struct {
	Ref      prop.DBRef
	Name     string
	Type     ObjectType
	Location prop.DBRef
	Owner    prop.DBRef

	props *prop.Tree
}

var (
	// ErrBadFormat is wrapped by every error about a malformed dump file
	ErrBadFormat = errors.New("malformed database file")
	// ErrNoSuchObject is returned for references that are not in the table
	ErrNoSuchObject = errors.New("no such object")
)

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a database
type Options struct {
	Diskbase bool             // page property trees in from the dump file
	Cache    diskbase.Options // cache settings (used with Diskbase)
	Store    store.Options    // property store settings
}

// DefaultOptions returns the options of a diskbase database with the
// default cache settings
func DefaultOptions() Options {
	return Options{
		Diskbase: true,
		Cache:    diskbase.DefaultOptions(),
	}
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// DB is the object table together with the property store operating on it.
//
// Thread-safety: The object table is a concurrent map, so lookups may come
// from any goroutine. Property access through Store() and Save are not
// thread-safe and belong to the goroutine that owns the database.
type DB struct {
	opts    Options
	objects *xsync.MapOf[prop.DBRef, *Object]
	top     prop.DBRef

	cache   *diskbase.Cache
	store   store.IPropStore
	backing *os.File
	path    string
}

// New creates an empty database
func New(opts Options) *DB {
	if opts.Cache.LockParser == nil {
		opts.Cache.LockParser = boolexp.ParseLock
	}
	d := &DB{
		opts:    opts,
		objects: xsync.NewMapOf[prop.DBRef, *Object](),
	}
	var pager store.Pager = store.NopPager{}
	if opts.Diskbase {
		d.cache = diskbase.New(opts.Cache)
		pager = d.cache
	}
	d.store = lstore.NewLocalStore(d, pager, opts.Store)
	return d
}

// NewAt creates an empty database that Save("") writes to path
func NewAt(path string, opts Options) *DB {
	d := New(opts)
	d.path = path
	return d
}

// Store returns the property store of the database
func (d *DB) Store() store.IPropStore {
	return d.store
}

// Cache returns the diskbase cache, nil if the database keeps every tree
// resident
func (d *DB) Cache() *diskbase.Cache {
	return d.cache
}

// Path returns the file the database was loaded from or last saved to
func (d *DB) Path() string {
	return d.path
}

// Top returns the first unused reference
func (d *DB) Top() prop.DBRef {
	return d.top
}

// NewObject adds an object with an empty property tree and returns its
// reference
func (d *DB) NewObject(name string, typ ObjectType, location, owner prop.DBRef) prop.DBRef {
	ref := d.top
	d.top++
	obj := &Object{
		Ref:      ref,
		Name:     cleanName(name),
		Type:     typ,
		Location: location,
		Owner:    owner,
		props:    prop.NewTree(),
	}
	d.objects.Store(ref, obj)
	if d.cache != nil {
		d.cache.TrackNew(ref, obj.props)
	}
	plog.Debugf("created %s %s (%q)", typ, ref, obj.Name)
	return ref
}

// cleanName keeps object names on a single line of the dump file
func cleanName(name string) string {
	return strings.ReplaceAll(name, "\n", " ")
}

// Destroy removes an object and releases its properties. Objects located
// in it are moved to its location.
func (d *DB) Destroy(ref prop.DBRef) error {
	obj, ok := d.objects.LoadAndDelete(ref)
	if !ok {
		return ErrNoSuchObject
	}
	if d.cache != nil {
		d.cache.Destroy(ref)
	}
	obj.props.Clear()

	d.objects.Range(func(_ prop.DBRef, o *Object) bool {
		if o.Location == ref {
			o.Location = obj.Location
		}
		return true
	})
	plog.Debugf("destroyed %s", ref)
	return nil
}

// Get returns the object with the given reference
func (d *DB) Get(ref prop.DBRef) (*Object, bool) {
	return d.objects.Load(ref)
}

// Refs returns the references of all objects in ascending order
func (d *DB) Refs() []prop.DBRef {
	refs := make([]prop.DBRef, 0, d.objects.Size())
	d.objects.Range(func(ref prop.DBRef, _ *Object) bool {
		refs = append(refs, ref)
		return true
	})
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs
}

// Len returns the number of objects
func (d *DB) Len() int {
	return d.objects.Size()
}

// --------------------------------------------------------------------------
// store.Objects Implementation
// --------------------------------------------------------------------------

func (d *DB) Props(ref prop.DBRef) (*prop.Tree, bool) {
	obj, ok := d.objects.Load(ref)
	if !ok {
		return nil, false
	}
	return obj.props, true
}

func (d *DB) IsPlayer(ref prop.DBRef) bool {
	obj, ok := d.objects.Load(ref)
	return ok && obj.Type == TypePlayer
}

func (d *DB) Location(ref prop.DBRef) prop.DBRef {
	obj, ok := d.objects.Load(ref)
	if !ok {
		return prop.Nothing
	}
	return obj.Location
}

// --------------------------------------------------------------------------
// Maintenance and Metadata
// --------------------------------------------------------------------------

// Maintain evicts stale and surplus property trees. It is a no-op for
// databases without diskbase.
func (d *DB) Maintain() int {
	if d.cache == nil {
		return 0
	}
	return d.cache.DisposeStale() + d.cache.Housekeep()
}

// SupportsFeature checks if this database supports a specific feature
func (d *DB) SupportsFeature(feature Feature) bool {
	var supported Feature
	if d.cache != nil {
		supported |= FeatureDiskbase
		if d.opts.Cache.LazyValues {
			supported |= FeatureLazyValues
		}
		if d.opts.Cache.Convert {
			supported |= FeatureConvert
		}
	}
	return supported&feature == feature
}

// Info returns statistics about the database. Sizes cover the resident
// property trees only.
func (d *DB) Info() DatabaseInfo {
	histogram := util.NewSizeHistogram()
	counts := make(map[string]int)
	var propCounts []float64
	resident := 0
	sizeBytes := 0

	d.objects.Range(func(ref prop.DBRef, obj *Object) bool {
		counts[obj.Type.String()]++
		if obj.props.Empty() {
			return true
		}
		size := obj.props.Size()
		histogram.AddSample(size)
		sizeBytes += size
		propCounts = append(propCounts, float64(obj.props.Len()))
		resident++
		return true
	})

	meta := &struct {
		Objects        int                    `json:"objects"`
		ObjectsByType  map[string]int         `json:"objects_by_type"`
		ResidentTrees  int                    `json:"resident_trees"`
		MedianTreeSize int                    `json:"median_tree_size"`
		P90TreeSize    int                    `json:"p90_tree_size"`
		PropsPerObject util.DistributionStats `json:"props_per_object"`
		Cache          *diskbase.Info         `json:"cache,omitempty"`
		Info           string                 `json:"info"`
	}{
		Objects:        d.objects.Size(),
		ObjectsByType:  counts,
		ResidentTrees:  resident,
		MedianTreeSize: histogram.MedianEstimate(),
		P90TreeSize:    histogram.GetPercentileEstimate(90),
		PropsPerObject: util.NewDistributionStats(propCounts),
		Info:           "Sizes are estimates of the resident property trees.",
	}

	impl := ImplMemory
	var features []Feature
	if d.cache != nil {
		impl = ImplDiskbase
		info := d.cache.Info()
		meta.Cache = &info
		for _, f := range []Feature{FeatureDiskbase, FeatureLazyValues, FeatureConvert} {
			if d.SupportsFeature(f) {
				features = append(features, f)
			}
		}
	}

	return DatabaseInfo{
		SizeBytes:         sizeBytes,
		DbType:            impl,
		SupportedFeatures: features,
		Metadata:          meta,
	}
}

// Close releases the backing file. Unsaved changes are lost.
func (d *DB) Close() error {
	if d.backing == nil {
		return nil
	}
	err := d.backing.Close()
	d.backing = nil
	return err
}
