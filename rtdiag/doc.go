// Package rtdiag captures point-in-time diagnostic snapshots of a
// runtime instance — thread counts, GC cycle counts, intern-store
// occupancy — and serializes them to CBOR for out-of-process
// inspection, the way a host VM's wire-format package serializes
// protocol messages.
package rtdiag
