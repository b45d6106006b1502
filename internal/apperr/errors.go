// Package apperr holds the error classes shared by the converter and its front ends.
package apperr

import "errors"

var (
	// ErrMalformedInput means no usable journal document was found. Fatal.
	ErrMalformedInput = errors.New("malformed input")
	// ErrParse marks a single journal document that could not be decoded.
	// The loader treats it as an empty document and keeps going.
	ErrParse = errors.New("parse error")
	// ErrIO wraps file system failures while copying attachments or writing entries.
	ErrIO = errors.New("i/o error")
	// ErrNotFound is returned when a requested vault file does not exist.
	ErrNotFound = errors.New("not found")
)
