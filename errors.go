package pubsub

import "github.com/easyvolts/pubsub-actors/pstype"

// Sentinel errors, re-exported from pstype so callers can write
// errors.Is(err, pubsub.ErrNotFound) without importing pstype directly.
var (
	ErrNotFound      = pstype.ErrNotFound
	ErrDuplicated    = pstype.ErrDuplicated
	ErrOutOfMemory   = pstype.ErrOutOfMemory
	ErrRedefConflict = pstype.ErrRedefConflict
	ErrInternal      = pstype.ErrInternal
)
