package directory

import "errors"

// Routing errors
var (
	ErrUnknownTarget = errors.New("unknown controllable")
	ErrRootMismatch  = errors.New("address root does not match")
	ErrShortAddress  = errors.New("address has no target or member")
	ErrDuplicateID   = errors.New("controllable id already registered")
)
