// Package db provides the object database: the table of objects, each with
// its own property tree, and the dump file it is loaded from and saved to.
//
// The package focuses on:
//   - An object table keyed by reference (rooms, things, exits, players,
//     programs and garbage) with containment through Location
//   - Loading and saving the dump file
//   - Wiring the property store to either resident trees or the diskbase
//     cache
//   - Metadata reporting through DatabaseInfo
//
// Key Components:
//
//   - DB: The database. It implements store.Objects and owns the property
//     store returned by Store(). All property access goes through that store.
//
//   - Dump Format: A line based text file. After the header line every
//     object is written as its reference ("!<ref>"), its name, a line with
//     its type, location and owner, and its property block. A trailer line
//     ends the dump:
//
//     ***propdb dump v1***
//     !0
//     Lobby
//     room #-1 #1
//     *Props*
//     /_/de:s:A quiet lobby.
//     *End*
//     ***END OF DUMP***
//
//   - Diskbase: With Options.Diskbase the property blocks are not parsed on
//     Open. The cache records the offset of every block and pages trees in
//     on first access. Save copies untouched blocks byte for byte, renames
//     the new file into place and makes it the new backing file.
//
//   - Database Information: The DatabaseInfo structure reports the
//     implementation, supported features and size estimates of the resident
//     property trees, together with the cache counters.
//
// Thread Safety:
//
//	Object lookups are safe for concurrent use. Property access, Save and
//	Destroy are not and must come from the goroutine that owns the database.
package db
