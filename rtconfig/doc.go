// Package rtconfig loads runtime.toml tuning files: the handful of
// knobs that affect callsite interning and GC orchestration but aren't
// worth recompiling for (arity limits, load factors, probe distance
// ceilings, logging toggles).
package rtconfig
