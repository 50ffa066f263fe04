// Package rtcore composes the callsite interning store and the GC
// orchestration registry into a single runtime instance, the way a
// host VM's top-level type wires together its global tables and
// subsystems at startup.
package rtcore
