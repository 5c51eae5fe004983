// Package lstore implements the store.IPropStore interface on top of the
// property trees of a local object table.
//
// Key Features:
//   - Typed reads and writes with validated property paths
//   - Gender property mirroring on player objects
//   - Permission filtered directory listings
//   - Transparent paging through a store.Pager (the diskbase cache)
//
// Implementation Details:
//
//   - Paging: Before a path is resolved, the store asks the pager to page in
//     the directory holding it (FetchProps) and, once the node is found, its
//     value (FetchValue). Writes mark the object dirty (DirtyProps) so the
//     cache keeps it until the next save. With store.NopPager{} every tree is
//     assumed to be resident.
//
//   - Empty Values: Storing the empty value of a type (the empty string, 0,
//     0.0, Nothing or a true lock) deletes the property. Reads of absent
//     properties return the same zero values; use GetValue to tell them
//     apart.
//
//   - Lock Ownership: A lock passed to SetLock belongs to the store from then
//     on. It is released when it is replaced, removed or rejected.
//
// Thread Safety:
//
//	The store is not thread-safe. The object table, the property trees and
//	the cache are owned by a single goroutine, and every call must be made
//	from it.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(database, cache, store.Options{GenderProp: "gender"})
//
//	err := s.SetString(obj, "_/de", "A small stone room.")
//	desc, ok := s.GetString(obj, "_/de")
//
//	for p := s.FirstChild(obj, "_"); p != ""; p = s.NextChild(obj, p) {
//		fmt.Println(p)
//	}
package lstore
