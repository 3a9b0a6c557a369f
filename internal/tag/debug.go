//go:build debug

// Package tag exposes build tags as constants.
package tag

// Debug is true in builds with the debug tag. Such builds check cache invariants
// after every mutating operation.
const Debug = true
