// Package jitapi holds utilities shared by every package of the JIT backend.
package jitapi

// These consts are used in various places of the backend.
// Instead of defining them in each file, we define them here so that we can quickly iterate on
// debugging without spending "where do we have debug logging?" time.

// ----- Debug logging -----
// These consts must be disabled by default. Enable them only when debugging.

const (
	FixupLoggingEnabled    = false
	RegAllocLoggingEnabled = false
	LocalOptLoggingEnabled = false
)

// ----- Output prints -----
// These consts must be disabled by default. Enable them only when debugging.

const (
	PrintLIR                  = false
	PrintLIRAfterOpt          = false
	PrintPromotion            = false
	PrintFinalizedMachineCode = false
	PrintFixupPasses          = false
	PrintAssemblyStats        = false
)

// ----- Validations -----
// These consts must be enabled by default until we reach the point where we can disable them (e.g. multiple days of fuzzing passes).

const (
	LIRValidationEnabled      = true
	RegAllocValidationEnabled = true
)
