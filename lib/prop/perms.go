package prop

import "strings"

// Permission sigils, checked on the first character of every path segment.
// A sigil applies to the segment and everything beneath it.
const (
	SigilPrivate  = '.' // readable by the owner and wizards only
	SigilHidden   = '@' // invisible to everyone but wizards
	SigilSeeOnly  = '~' // readable by all, writable by wizards only
	SigilReadOnly = '_' // readable by all, writable by the owner and wizards
	SigilWizRO    = '%' // same as SigilReadOnly
)

// SystemPrefix marks system properties, which are invisible to every caller
// of the access API, wizards included.
const SystemPrefix = "@__sys__"

// Access is the privilege level a caller holds on an object
type Access int

const (
	AccessMortal Access = iota // unprivileged caller
	AccessOwner                // caller owns the object
	AccessWizard               // elevated caller
)

func (a Access) String() string {
	switch a {
	case AccessOwner:
		return "owner"
	case AccessWizard:
		return "wizard"
	default:
		return "mortal"
	}
}

// Perm is the set of sigils found along a path
type Perm uint8

const (
	PermPrivate Perm = 1 << iota
	PermHidden
	PermSeeOnly
	PermReadOnly
	PermSystem
)

// PermOf collects the permission sigils of every segment of path
func PermOf(path string) Perm {
	var p Perm
	for _, s := range Split(path) {
		if strings.HasPrefix(s, SystemPrefix) {
			p |= PermSystem
		}
		switch s[0] {
		case SigilPrivate:
			p |= PermPrivate
		case SigilHidden:
			p |= PermHidden
		case SigilSeeOnly:
			p |= PermSeeOnly
		case SigilReadOnly, SigilWizRO:
			p |= PermReadOnly
		}
	}
	return p
}

// IsSystem reports whether path lies below a system property
func IsSystem(path string) bool {
	return PermOf(path)&PermSystem != 0
}

// IsHidden reports whether path lies below a hidden property
func IsHidden(path string) bool {
	return PermOf(path)&PermHidden != 0
}

// Readable reports whether a caller with access a may see path
func Readable(path string, a Access) bool {
	p := PermOf(path)
	switch {
	case p&PermSystem != 0:
		return false
	case p&PermHidden != 0:
		return a >= AccessWizard
	case p&PermPrivate != 0:
		return a >= AccessOwner
	default:
		return true
	}
}

// Writable reports whether a caller with access a may change path
func Writable(path string, a Access) bool {
	p := PermOf(path)
	switch {
	case p&PermSystem != 0:
		return false
	case p&(PermHidden|PermSeeOnly) != 0:
		return a >= AccessWizard
	default:
		return a >= AccessOwner
	}
}
