package eml

import "errors"

// Parse errors.
var (
	ErrNoMessage    = errors.New("no MIME message found in file")
	ErrNoBoundary   = errors.New("multipart message has no boundary")
	ErrUnterminated = errors.New("multipart message has no closing boundary")
	ErrNoParts      = errors.New("message has no parts")
)
