// Package hashidx implements an open-addressed Robin-Hood hash table
// that interns externally-stored string keys to small integer indices.
//
// The table never owns its keys: callers pass the same []string slice
// to every operation, and entries store only the index into that
// slice. This keeps the table compact (one uint32 and one byte per
// slot) and lets many tables share a single string arena.
//
// A Table is not safe for concurrent use; callers are expected to
// confine each table to one goroutine or guard it with their own lock,
// exactly as the symbol and selector tables one layer up do.
package hashidx
