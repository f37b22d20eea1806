package rrfars

import "errors"

// Error classes recorded in the error log. None of them cross the component
// boundary; they are wrapped so tests and hosts can classify log entries.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrIO            = errors.New("i/o error")
	ErrState         = errors.New("state error")
)
