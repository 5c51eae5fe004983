// Package store provides the typed property access API of the object
// database. Every object owns a tree of named properties; this package
// defines how callers read, write, delete and enumerate them.
//
// Key Components:
//
//   - IPropStore Interface: The core abstraction for property access.
//     Reads never fail (absent properties read as the zero value of the
//     requested type), writes return *Error values for unknown objects and
//     degenerate paths.
//
//   - Objects and Pager: The two collaborators of a store. Objects resolves
//     references to property trees and answers containment and player
//     questions. Pager pages trees in from the backing file before they are
//     accessed (implemented by *diskbase.Cache, or NopPager when every tree
//     stays resident).
//
//   - Error System: A structured error type with return codes. Errors match
//     with errors.Is by code, so callers compare against the sentinels
//     ErrNoSuchObject, ErrBadPath and ErrNoSuchProperty.
//
// Implementations:
//
//   - Local Store (lstore): The store over a local object table.
//     Available in the "github.com/ValentinKolb/propdb/lib/store/lstore" package.
//
// The conformance suite in "github.com/ValentinKolb/propdb/lib/store/testing"
// runs against every implementation and every pager configuration.
package store
