package store

import (
	"fmt"
	"github.com/ValentinKolb/propdb/lib/diskbase"
	"github.com/ValentinKolb/propdb/lib/prop"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// LegacyGenderProp is the fixed legacy name of the gender property. It is
// mirrored with the configured gender property on player objects.
const LegacyGenderProp = "sex"

// DefaultGenderProp is the gender property used when none is configured
const DefaultGenderProp = "gender"

// IPropStore is the typed property access API. Reads never fail: a path
// that does not resolve, a value of another type and an unknown object all
// read as absent (or the zero value of the requested type). Writes return
// an *Error for unknown objects and degenerate paths.
type IPropStore interface {
	// GetValue returns the value at path and whether a value is stored there
	GetValue(obj prop.DBRef, path string) (prop.Value, bool)
	// GetString returns the string at path; false if absent or of another type
	GetString(obj prop.DBRef, path string) (string, bool)
	// GetInt returns the integer at path, 0 if absent or of another type
	GetInt(obj prop.DBRef, path string) int
	// GetFloat returns the float at path, 0 if absent or of another type
	GetFloat(obj prop.DBRef, path string) float64
	// GetRef returns the reference at path, prop.Nothing if absent or of another type
	GetRef(obj prop.DBRef, path string) prop.DBRef
	// GetLock returns the lock at path, nil if absent or of another type
	GetLock(obj prop.DBRef, path string) prop.Lock
	// GetFlags returns the state bits of the property at path, 0 if absent
	GetFlags(obj prop.DBRef, path string) prop.Flags

	// Set stores v at path. The empty value of any type deletes the
	// property instead. With sync set, the gender property of a player is
	// mirrored onto its legacy alias (and the other way round).
	Set(obj prop.DBRef, path string, v prop.Value, sync bool) error
	// SetString stores a string value (the empty string deletes)
	SetString(obj prop.DBRef, path string, s string) error
	// SetInt stores an integer value (0 deletes)
	SetInt(obj prop.DBRef, path string, i int) error
	// SetFloat stores a float value (0 deletes)
	SetFloat(obj prop.DBRef, path string, f float64) error
	// SetRef stores an object reference (prop.Nothing deletes)
	SetRef(obj prop.DBRef, path string, r prop.DBRef) error
	// SetLock stores a lock and takes ownership of it (nil or a true lock deletes)
	SetLock(obj prop.DBRef, path string, l prop.Lock) error
	// SetFlags sets state bits on an existing property
	SetFlags(obj prop.DBRef, path string, f prop.Flags) error
	// ClearFlags clears state bits on an existing property
	ClearFlags(obj prop.DBRef, path string, f prop.Flags) error

	// Remove deletes the property at path together with its subdirectory
	Remove(obj prop.DBRef, path string, sync bool) error
	// RemoveAll deletes every property of obj. Unless wipeHidden is set,
	// hidden and see-only top-level properties and the reserved "_"
	// directory are kept.
	RemoveAll(obj prop.DBRef, wipeHidden bool) error

	// FirstChild returns the full path of the first property in dir, "" if none
	FirstChild(obj prop.DBRef, dir string) string
	// NextChild returns the full path of the property following path, "" if none
	NextChild(obj prop.DBRef, path string) string
	// List returns the full paths of the properties in dir a caller with
	// access a may see
	List(obj prop.DBRef, dir string, a prop.Access) []string
	// IsDir reports whether the property at path has child properties
	IsDir(obj prop.DBRef, path string) bool
	// Exists reports whether path resolves to a property or directory
	Exists(obj prop.DBRef, path string) bool
	// FindInEnvironment searches obj and then its containers for path and
	// returns the value and the object it was found on (prop.Nothing if none)
	FindInEnvironment(obj prop.DBRef, path string) (prop.Value, prop.DBRef)
	// CopyAll replaces the properties of dst by a deep copy of those of src
	CopyAll(src, dst prop.DBRef) error
	// Size returns the approximate memory used by the resident properties of obj
	Size(obj prop.DBRef) int
}

// Objects is the object graph the store operates on
type Objects interface {
	// Props returns the property tree of ref; false if ref is no valid object
	Props(ref prop.DBRef) (*prop.Tree, bool)
	// IsPlayer reports whether ref is a player object
	IsPlayer(ref prop.DBRef) bool
	// Location returns the container of ref (prop.Nothing at the top)
	Location(ref prop.DBRef) prop.DBRef
}

// Pager pages property trees in from a backing file before they are
// accessed. *diskbase.Cache implements it; NopPager is used when every tree
// is always resident.
type Pager interface {
	FetchProps(ref prop.DBRef, priority bool, dir string) diskbase.Result
	FetchValue(ref prop.DBRef, n *prop.Node)
	DirtyProps(ref prop.DBRef)
}

var _ Pager = (*diskbase.Cache)(nil)

// NopPager is the Pager of fully resident databases
type NopPager struct{}

func (NopPager) FetchProps(prop.DBRef, bool, string) diskbase.Result { return diskbase.Hit }
func (NopPager) FetchValue(prop.DBRef, *prop.Node)                   {}
func (NopPager) DirtyProps(prop.DBRef)                               {}

// Options configures a store
type Options struct {
	GenderProp string // name of the gender property, mirrored with LegacyGenderProp
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCNoSuchObject:
		errorCode = "NoSuchObject"
	case RetCBadPath:
		errorCode = "BadPath"
	case RetCNoSuchProperty:
		errorCode = "NoSuchProperty"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("PropStoreError (code %s): %s", errorCode, e.Msg)
}

// Is matches errors by code, so errors.Is(err, ErrBadPath) holds for every
// bad path error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new PropStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Sentinel errors for errors.Is
var (
	ErrNoSuchObject   = NewError(RetCNoSuchObject, "no such object")
	ErrBadPath        = NewError(RetCBadPath, "bad property path")
	ErrNoSuchProperty = NewError(RetCNoSuchProperty, "no such property")
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess        RetCode = iota // 0: Command executed successfully.
	RetCNoSuchObject                  // 1: The object does not exist.
	RetCBadPath                       // 2: The path is empty after validation.
	RetCNoSuchProperty                // 3: The property to change does not exist.
)
