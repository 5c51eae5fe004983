// Package cmd implements the command-line interface of propdb. Every
// command opens the database file, performs one operation and, if the
// operation changed anything, saves the database again.
//
// The package is organized into several subpackages:
//
//   - props: Commands for property operations (get, set, rm, ls, tree, etc.)
//   - lock: Commands for lock properties (set, show, check)
//   - obj: Commands for managing objects (create, destroy, list, info)
//   - cache: Commands for the diskbase property cache (stats, fetch, metrics)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// The database and cache settings are read from flags, from environment
// variables with the PROPDB_ prefix (also loaded from .env files) and from
// an optional config file. See propdb -help for a list of all commands.
package cmd
