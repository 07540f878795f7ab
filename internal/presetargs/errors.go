package presetargs

import "errors"

// The transform's error taxonomy is deliberately narrow and all-or-
// nothing at the module level. Callers should use errors.Is against
// these sentinels rather than matching error text.
var (
	// ErrMissingImport is returned when the module does not import
	// args_sizes_get or args_get from wasi_snapshot_preview1.
	ErrMissingImport = errors.New("presetargs: required wasi import is missing")

	// ErrWrongImportKind is returned when the named import exists but is
	// not a function (for example, a global or table of the same name).
	ErrWrongImportKind = errors.New("presetargs: required wasi import is not a function")

	// ErrNoMemory is returned when the module declares no linear memory.
	ErrNoMemory = errors.New("presetargs: module declares no linear memory")

	// ErrInvariantViolation is returned when an export or element-segment
	// slot believed to name a function turns out not to, or when the
	// rewriter's own bookkeeping is inconsistent. Seeing this means a bug
	// in this package, not malformed input.
	ErrInvariantViolation = errors.New("presetargs: internal invariant violation")
)
