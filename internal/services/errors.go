package services

import "errors"

// ErrStoreUnavailable wraps hard failures of the ledger store, as opposed to
// a missing ledger or a version conflict.
var ErrStoreUnavailable = errors.New("ledger store unavailable")
