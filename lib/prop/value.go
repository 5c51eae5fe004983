package prop

import (
	"fmt"
	"strconv"
)

// --------------------------------------------------------------------------
// Object references
// --------------------------------------------------------------------------

// DBRef identifies an object of the world database.
type DBRef int32

// Nothing is the reference to no object. It is the empty representation
// of a reference property.
const Nothing DBRef = -1

// String renders the reference in the usual #N form
func (r DBRef) String() string {
	return "#" + strconv.FormatInt(int64(r), 10)
}

// ParseDBRef parses a reference in the #N form (the # is optional)
func ParseDBRef(s string) (DBRef, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return Nothing, fmt.Errorf("invalid dbref %q: %w", s, err)
	}
	return DBRef(n), nil
}

// --------------------------------------------------------------------------
// Type tags and state flags
// --------------------------------------------------------------------------

// Type is the type tag of a property value
type Type uint8

const (
	TypeNone   Type = iota // No value, the node only exists as a directory
	TypeString             // Owned string payload
	TypeInt                // Integer payload
	TypeLock               // Owned lock expression payload
	TypeRef                // Object reference payload
	TypeFloat              // Float payload
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeLock:
		return "lock"
	case TypeRef:
		return "ref"
	case TypeFloat:
		return "float"
	default:
		return "unknown"
	}
}

// ParseType maps the names produced by Type.String back to a type tag
func ParseType(s string) (Type, error) {
	switch s {
	case "string", "str", "s":
		return TypeString, nil
	case "int", "integer", "i":
		return TypeInt, nil
	case "lock", "l":
		return TypeLock, nil
	case "ref", "dbref", "r":
		return TypeRef, nil
	case "float", "f":
		return TypeFloat, nil
	default:
		return TypeNone, fmt.Errorf("unknown property type %q", s)
	}
}

// Flags holds the state bits of a property node. The type tag is kept
// separately in the Value.
type Flags uint8

const (
	FlagBlessed     Flags = 1 << iota // Trusted by interpreted contexts
	FlagTouched                       // Accessed since the last sweep
	FlagUnloaded                      // Value not paged in, the node holds a file offset
	FlagDirUnloaded                   // Subdirectory not paged in, the node holds a file offset
)

// Has reports whether all bits of flag are set
func (f Flags) Has(flag Flags) bool {
	return f&flag == flag
}

// Set returns f with the bits of flag set
func (f Flags) Set(flag Flags) Flags {
	return f | flag
}

// Clear returns f with the bits of flag cleared
func (f Flags) Clear(flag Flags) Flags {
	return f &^ flag
}

// Public returns the flags callers are allowed to see (the paging bits are internal)
func (f Flags) Public() Flags {
	return f &^ (FlagUnloaded | FlagDirUnloaded)
}

// --------------------------------------------------------------------------
// Lock expressions
// --------------------------------------------------------------------------

// Lock is a compiled boolean expression stored as a property value.
// The property store only stores, copies and releases locks; evaluation
// belongs to the lock evaluator.
type Lock interface {
	// Copy returns an independent deep copy of the expression
	Copy() Lock
	// Size returns the approximate memory footprint in bytes
	Size() int
	// Unparse renders the expression in its textual form
	Unparse() string
	// IsTrue reports whether the expression is the always-true lock
	IsTrue() bool
}

// Releaser is implemented by locks that hold resources which must be
// released once the property store drops its ownership.
type Releaser interface {
	Release()
}

// LockParser compiles the textual form of a lock
type LockParser func(text string) (Lock, error)

func releaseLock(l Lock) {
	if r, ok := l.(Releaser); ok {
		r.Release()
	}
}

// --------------------------------------------------------------------------
// Values
// --------------------------------------------------------------------------

// Value is a tagged union holding at most one property payload.
// The zero Value has TypeNone.
type Value struct {
	typ Type
	str string
	num int
	flt float64
	ref DBRef
	lok Lock
}

// String creates a string value. The string is copied by value semantics.
func String(s string) Value { return Value{typ: TypeString, str: s} }

// Int creates an integer value
func Int(i int) Value { return Value{typ: TypeInt, num: i} }

// Float creates a float value
func Float(f float64) Value { return Value{typ: TypeFloat, flt: f} }

// Ref creates an object reference value
func Ref(r DBRef) Value { return Value{typ: TypeRef, ref: r} }

// LockValue creates a lock value. Storing the value transfers ownership of
// the lock to the property store.
func LockValue(l Lock) Value { return Value{typ: TypeLock, lok: l} }

// Type returns the type tag
func (v Value) Type() Type { return v.typ }

// Str returns the string payload ("" for other types)
func (v Value) Str() string {
	if v.typ != TypeString {
		return ""
	}
	return v.str
}

// Int returns the integer payload (0 for other types)
func (v Value) Int() int {
	if v.typ != TypeInt {
		return 0
	}
	return v.num
}

// Float returns the float payload (0 for other types)
func (v Value) Float() float64 {
	if v.typ != TypeFloat {
		return 0
	}
	return v.flt
}

// Ref returns the reference payload (Nothing for other types)
func (v Value) Ref() DBRef {
	if v.typ != TypeRef {
		return Nothing
	}
	return v.ref
}

// Lock returns the lock payload (nil for other types)
func (v Value) Lock() Lock {
	if v.typ != TypeLock {
		return nil
	}
	return v.lok
}

// IsEmpty reports whether the value is the empty representation of its
// type. Storing an empty value deletes the property instead.
func (v Value) IsEmpty() bool {
	switch v.typ {
	case TypeNone:
		return true
	case TypeString:
		return v.str == ""
	case TypeInt:
		return v.num == 0
	case TypeFloat:
		return v.flt == 0
	case TypeRef:
		return v.ref == Nothing
	case TypeLock:
		return v.lok == nil || v.lok.IsTrue()
	default:
		panic(fmt.Sprintf("impossible property type %d", v.typ))
	}
}

// Format renders the payload as text (locks are unparsed)
func (v Value) Format() string {
	switch v.typ {
	case TypeNone:
		return ""
	case TypeString:
		return v.str
	case TypeInt:
		return strconv.Itoa(v.num)
	case TypeFloat:
		return strconv.FormatFloat(v.flt, 'g', -1, 64)
	case TypeRef:
		return v.ref.String()
	case TypeLock:
		if v.lok == nil {
			return ""
		}
		return v.lok.Unparse()
	default:
		panic(fmt.Sprintf("impossible property type %d", v.typ))
	}
}

// ParseValue builds a value of type t from its textual form. Lock values
// need a parser.
func ParseValue(t Type, text string, parser LockParser) (Value, error) {
	switch t {
	case TypeString:
		return String(text), nil
	case TypeInt:
		i, err := strconv.Atoi(text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q: %w", text, err)
		}
		return Int(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %q: %w", text, err)
		}
		return Float(f), nil
	case TypeRef:
		r, err := ParseDBRef(text)
		if err != nil {
			return Value{}, err
		}
		return Ref(r), nil
	case TypeLock:
		if parser == nil {
			return Value{}, fmt.Errorf("no lock parser available")
		}
		l, err := parser(text)
		if err != nil {
			return Value{}, err
		}
		return LockValue(l), nil
	default:
		return Value{}, fmt.Errorf("cannot parse a value of type %s", t)
	}
}

// clone returns a value that owns its own copy of any lock payload
func (v Value) clone() Value {
	if v.typ == TypeLock && v.lok != nil {
		v.lok = v.lok.Copy()
	}
	return v
}

// size returns the payload size used by the diagnostics
func (v Value) size() int {
	switch v.typ {
	case TypeString:
		return len(v.str) + 1
	case TypeLock:
		if v.lok == nil {
			return 0
		}
		return v.lok.Size()
	default:
		return 0
	}
}
