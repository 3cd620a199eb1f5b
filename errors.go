// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

import "fmt"

// ErrorKind classifies a SyntaxError.
type ErrorKind byte

// Constants defining the valid ErrorKind values.
const (
	Lexical    ErrorKind = iota + 1 // a malformed token
	Structural                      // a valid token in an invalid position
)

func (k ErrorKind) String() string {
	switch k {
	case Lexical:
		return "lexical error"
	case Structural:
		return "structural error"
	}
	return "error"
}

// SyntaxError is the concrete type of errors reported by the Scanner and the
// Reader. Errors of this type are not recoverable: once a Reader has reported
// one, it reports the same error for every subsequent call.
type SyntaxError struct {
	Kind     ErrorKind
	Location LineCol
	Message  string

	err error
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: %s: %s", s.Location, s.Kind, s.Message)
}

// Unwrap supports error wrapping.
func (s *SyntaxError) Unwrap() error { return s.err }
