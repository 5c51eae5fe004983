// Package common holds the configuration and logging setup shared by the
// propdb command line tools.
//
// Config collects the database file, the gender property, the log level and
// the diskbase cache settings. It is filled from flags, environment
// variables and an optional config file (see cmd/util), checked with
// Validate and converted to db.Options with ToDBOptions.
//
// InitLoggers installs a dragonboat logger factory that writes
// "LEVEL | package | message" lines and sets the level of every package
// logger of propdb.
package common
