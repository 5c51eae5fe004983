// Package propfile reads and writes the property block of one object.
//
// A block is a flat enumeration of every leaf reachable from the object's
// "/" directory:
//
//	*Props*
//	/color:s:red
//	/a/b/c:r:#42
//	/a/blessed:iB:1
//	*End*
//
// Each record holds the full path, a type letter (s, i, f, r or l),
// optionally followed by B for blessed properties, and the value. String
// values escape backslash and newline. Directories are implied by the paths
// and rebuilt on load.
//
// Records are written so that every subtree occupies a contiguous byte
// range. A lazy load uses this to leave deeper directory levels in the file:
// the node of such a level gets FlagDirUnloaded and the offset of its first
// record, and LoadDir pages it in later. String and lock values are left in
// the file as well and resolved with ReadValueAt.
//
// CopyBlock moves a block between files without parsing it. It relies on
// the block being delimited by the sentinel lines only.
package propfile
