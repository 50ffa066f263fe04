package rtconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Tuning holds the runtime.toml knobs that shape callsite interning
// and GC orchestration without requiring a rebuild.
type Tuning struct {
	Callsite CallsiteTuning `toml:"callsite"`
	HashIdx  HashIdxTuning  `toml:"hash_index"`
	GC       GCTuning       `toml:"gc"`

	// Dir is the directory containing the runtime.toml file (set at
	// load time).
	Dir string `toml:"-"`
}

// CallsiteTuning configures the callsite intern store.
type CallsiteTuning struct {
	// ArityLimit overrides callsite.ArityLimit: callsites at or beyond
	// this many argument slots are never interned. Zero means use the
	// package default.
	ArityLimit int `toml:"arity_limit"`
}

// HashIdxTuning configures hashidx.Table allocation.
type HashIdxTuning struct {
	LoadFactor       float64 `toml:"load_factor"`
	MaxProbeDistance int     `toml:"max_probe_distance"`
	MinSizeLog2      int     `toml:"min_size_log2"`
}

// GCTuning configures the GC orchestration registry.
type GCTuning struct {
	LogEnabled bool `toml:"log_enabled"`
}

// Defaults returns a Tuning populated with the same constants the
// callsite and hashidx packages use when no configuration is supplied.
func Defaults() *Tuning {
	return &Tuning{
		Callsite: CallsiteTuning{ArityLimit: 8},
		HashIdx: HashIdxTuning{
			LoadFactor:       0.75,
			MaxProbeDistance: 255,
			MinSizeLog2:      3,
		},
	}
}

// Load parses a runtime.toml file from the given directory, filling in
// any fields left at their zero value from Defaults.
func Load(dir string) (*Tuning, error) {
	path := filepath.Join(dir, "runtime.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	t := Defaults()
	if err := toml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	t.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if t.Callsite.ArityLimit == 0 {
		t.Callsite.ArityLimit = 8
	}
	if t.HashIdx.LoadFactor == 0 {
		t.HashIdx.LoadFactor = 0.75
	}
	if t.HashIdx.MaxProbeDistance == 0 {
		t.HashIdx.MaxProbeDistance = 255
	}
	if t.HashIdx.MinSizeLog2 == 0 {
		t.HashIdx.MinSizeLog2 = 3
	}

	return t, nil
}
