package store

import "errors"

// Sentinel errors for store operations. Returned errors wrap one of these
// together with the document path and the underlying cause.
var (
	ErrReadFailed   = errors.New("read failed")
	ErrDecodeFailed = errors.New("decode failed")
	ErrEncodeFailed = errors.New("encode failed")
	ErrWriteFailed  = errors.New("write failed")
)
