package pstype

import "errors"

// Sentinel errors returned (via errors.Is) alongside the matching Result
// from every dispatcher API. They mirror the Result taxonomy from
// spec.md §7: NotFound, Duplicated, OutOfMemory, RedefConflict, and a
// catch-all Error for internal inconsistencies.
var (
	ErrNotFound      = errors.New("pubsub: not found")
	ErrDuplicated    = errors.New("pubsub: duplicated")
	ErrOutOfMemory   = errors.New("pubsub: out of memory")
	ErrRedefConflict = errors.New("pubsub: redefinition conflict")
	ErrInternal      = errors.New("pubsub: internal error")
)

// ErrorForResult returns the sentinel error matching r, or nil for the
// success results (Ok, Appended, Created).
func ErrorForResult(r Result) error {
	switch r {
	case NotFound:
		return ErrNotFound
	case Duplicated:
		return ErrDuplicated
	case OutOfMemory:
		return ErrOutOfMemory
	case RedefConflict:
		return ErrRedefConflict
	case ErrorResult:
		return ErrInternal
	default:
		return nil
	}
}
