// Package diskbase implements the disk-backed property cache. It lets the
// resident set of property trees be smaller than the database by loading an
// object's properties from the backing file only when they are accessed.
//
// Every tracked object is in one of four states:
//
//   - Unloaded: the properties live only in the backing file, at a recorded
//     block offset.
//   - Loaded: the properties are resident and may be evicted.
//   - Priority: the properties are resident and only evicted when stale.
//   - Changed: the properties are dirty and never evicted until they were
//     persisted and UndirtyProps was called.
//
// Each resident state has an intrusive ring queue ordered by last use. A
// fetch moves an object to the back of its ring, so the front always holds
// the eviction candidate.
//
// Loading is lazy on two levels. A full fetch (a miss) reads only the top
// level of the block plus the directories along the requested path; deeper
// directories stay in the file until a later fetch asks for them (a partial
// miss). With LazyValues string and lock values are resolved on first read
// with FetchValue.
//
// Eviction has two triggers: Housekeep evicts the oldest Loaded objects in
// batches once the Loaded ring exceeds both a floor and a share of all
// tracked objects, and DisposeStale evicts Loaded and Priority objects that
// were not used for the stale interval.
//
// A block that cannot be read is treated as corruption: the cache logs it
// and panics with a *propfile.CorruptError.
package diskbase
