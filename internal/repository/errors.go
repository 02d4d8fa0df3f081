// Package repository defines error types and helpers reused across multiple
// repositories.  Sentinel values allow handlers to distinguish failure
// scenarios: ErrDuplicate signals that an insert lost to an existing row
// under a uniqueness constraint (e.g. two concurrent imports of the same
// catalog title), which callers resolve by re-reading the winning row
// instead of failing visibly.
package repository

import (
    "errors"
    "strings"
)

// ErrDuplicate is returned when an INSERT violates a unique key.  Handlers
// treat the constraint as authoritative and converge on the existing row.
var ErrDuplicate = errors.New("duplicate row")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
