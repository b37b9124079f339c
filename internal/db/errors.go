package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")

	// ErrUnavailable marks transport failures: refused connections, resets, timeouts.
	ErrUnavailable = errors.New("db: backend unavailable")
	// ErrRejected marks requests the backend answered with an error.
	ErrRejected = errors.New("db: request rejected")
)

// Op constants map to backend command names for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpPing        = "PING"
	OpReplace     = "MULTI DEL HSET EXEC"
	OpGet         = "GET"
	OpSet         = "SET"
	OpHTTPSearch  = "GET /documents/search"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
