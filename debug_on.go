//go:build rtsched_debug

package rtsched

import "fmt"

// debugAssertf panics with a ContractViolationError when ok is false. Only
// compiled in under -tags rtsched_debug; see debug_off.go for the default,
// no-op build.
func debugAssertf(ok bool, op, format string, args ...any) {
	if ok {
		return
	}
	panic(&ContractViolationError{Op: op, Message: fmt.Sprintf(format, args...)})
}
