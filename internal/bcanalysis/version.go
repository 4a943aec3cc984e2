package bcanalysis

import "golang.org/x/mod/semver"

// FormatVersion is the bytecode-analysis sidecar's own compatibility
// version: bumped whenever Info's shape or defUse's opcode table changes
// in a way that would make an older graph builder misread it.
const FormatVersion = "v1.0.0"

// CompatibleFormat reports whether a bytecode producer advertising version
// v can be consumed by this analyzer. Only the major version gates
// compatibility (spec.md §6's bytecode contract is otherwise silent on
// versioning; this module adds the gate so a builder wired against a
// stale bytecode generator fails fast with a clear Bailout instead of
// misdecoding operand layouts).
func CompatibleFormat(v string) bool {
	if !semver.IsValid(v) {
		return false
	}
	return semver.Major(v) == semver.Major(FormatVersion)
}
