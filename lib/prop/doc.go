// Package prop implements the per-object property tree: a hierarchy of
// typed values addressed by slash-delimited paths.
//
// Every directory level is an AVL tree of sibling nodes ordered by name,
// compared ASCII case-insensitively. A node may own a nested directory
// level, which is how a path like "a/b/c" is realized: each segment is one
// sibling lookup.
//
// Key Components:
//
//   - Value: a tagged union of string, integer, float, object reference and
//     lock expression. The empty representation of every type (empty string,
//     0, 0.0, Nothing, the true lock) is never stored; setting it deletes the
//     property instead.
//
//   - Flags: state bits orthogonal to the type tag. FlagUnloaded and
//     FlagDirUnloaded are used by the disk-backed cache to mark values and
//     subdirectories that still live in the backing file.
//
//   - Tree: the "/" directory of one object with path based Get, Create,
//     Delete, FirstChild and NextChild operations. Iteration is driven by
//     names, not by cursors, so the tree may change between calls.
//
//   - Permission sigils: the first character of each path segment marks it
//     private ('.'), hidden ('@'), see-only ('~') or read-only ('_', '%').
//     Paths below the "@__sys__" prefix are system properties and never
//     visible through the access API.
//
// Lock values are owned by the tree once stored. Overwriting, deleting or
// clearing a lock calls its Release method if it implements Releaser, and
// copying a tree copies every lock.
package prop
