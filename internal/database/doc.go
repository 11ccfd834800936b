// Package database stores answered questions in SQLite.
//
// The history database is write-mostly: the pipeline appends every answer
// and never reads it back, so asking stays stateless. The `history`
// command lists past answers, and the stored content hash shows whether a
// page changed between two asks.
//
// modernc.org/sqlite is a pure Go driver, so the binary needs no CGO.
package database
