// Package config loads sentra's flat configuration namespace: a fixed set
// of typed gc/interpreter options plus the handful of keys the HIR/JIT
// modules added (jit.trace_hir, profilestore.driver and friends), read from
// sentra.json the same way internal/build.NewBuilder loads its project
// manifest — missing file means defaults, present file overrides by key.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Config is the flat typed option set from spec.md §6, extended with the
// keys this module's HIR/JIT/profile-store additions need. Every field has
// a default so a missing or partial sentra.json still produces a usable
// Config.
type Config struct {
	GCMinimumGap        int64   `json:"gc.minimum_gap"`
	GCFactor            float64 `json:"gc.factor"`
	GCHeapInitCapacity  int64   `json:"gc.heap_init_capacity"`
	GCHeapCapacity      int64   `json:"gc.heap_capacity"`
	GCRefInitCapacity   int64   `json:"gc.gcref_init_capacity"`
	GCRefCapacity       int64   `json:"gc.gcref_capacity"`
	GCSSOInitSlot       int64   `json:"gc.sso_init_slot"`
	GCSSOInitCapacity   int64   `json:"gc.sso_init_capacity"`
	GCSSOCapacity       int64   `json:"gc.sso_capacity"`
	InterpInitStackSize int32   `json:"interpreter.init_stack_size"`
	InterpMaxStackSize  int32   `json:"interpreter.max_stack_size"`
	InterpMaxCallSize   int32   `json:"interpreter.max_call_size"`

	// JITTraceHIR gates internal/hir's TraceFunc hook, mirroring vm.go's
	// PrintJITStats bool gate.
	JITTraceHIR bool `json:"jit.trace_hir"`

	// ProfileStoreDriver selects the database/sql driver name profilestore
	// opens its backing store with (one of "sqlite3", "mysql", "postgres",
	// "sqlserver"); ProfileStoreDSN is passed to sql.Open verbatim.
	ProfileStoreDriver string `json:"profilestore.driver"`
	ProfileStoreDSN     string `json:"profilestore.dsn"`
}

// Default returns the fixed baseline values the register VM ships with
// when sentra.json is absent or omits a key.
func Default() *Config {
	return &Config{
		GCMinimumGap:        1 << 20,
		GCFactor:            2.0,
		GCHeapInitCapacity:  1 << 16,
		GCHeapCapacity:      1 << 24,
		GCRefInitCapacity:   1 << 10,
		GCRefCapacity:       1 << 16,
		GCSSOInitSlot:       256,
		GCSSOInitCapacity:   1 << 12,
		GCSSOCapacity:       1 << 16,
		InterpInitStackSize: 256,
		InterpMaxStackSize:  1 << 16,
		InterpMaxCallSize:   200,
		JITTraceHIR:         false,
		ProfileStoreDriver:  "sqlite3",
		ProfileStoreDSN:     "sentra-profile.db",
	}
}

// Load reads projectRoot/sentra.json, if present, and overlays its fields
// onto Default(). A missing file is not an error, matching
// internal/build.loadManifest's behavior for a missing project manifest.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(projectRoot, "sentra.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	var doc struct {
		Config json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if len(doc.Config) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(doc.Config, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s config section", path)
	}
	return cfg, nil
}

// InlinerLimits carries the subset of Config the graph builder's
// InlinePolicy is allowed to read (spec.md §6: "the compiler consumes only
// a subset controlling inliner policy").
type InlinerLimits struct {
	MaxCalleeBytecode       int
	MaxTotalInlinedBytecode int
}

// Inliner derives the graph builder's inlining budget from
// interpreter.max_call_size and interpreter.max_stack_size: a callee larger
// than one call frame's worth of bytecode never inlines, and the total
// budget for one build is bounded by the stack depth the interpreter itself
// would allow before the equivalent call chain overflowed it.
func (c *Config) Inliner() InlinerLimits {
	return InlinerLimits{
		MaxCalleeBytecode:       int(c.InterpMaxCallSize),
		MaxTotalInlinedBytecode: int(c.InterpMaxStackSize) / 4,
	}
}

// String renders the config for --stats/debug output.
func (c *Config) String() string {
	return fmt.Sprintf("config{gc.heap_capacity=%d interpreter.max_call_size=%d jit.trace_hir=%t profilestore.driver=%s}",
		c.GCHeapCapacity, c.InterpMaxCallSize, c.JITTraceHIR, c.ProfileStoreDriver)
}
