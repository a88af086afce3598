package engine

import "time"

// Test-only accessors so the external engine_test package can reach
// unexported internals without importing domain packages in-package,
// which would create an import cycle with contract.
const MaxConflictAttempts = maxConflictAttempts

func (r *Runtime) SetNowForTest(now func() time.Time) { r.now = now }
