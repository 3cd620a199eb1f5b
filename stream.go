// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"errors"
	"io"
)

// A Datum is a single non-container value reported by a Stream.
type Datum struct {
	Type   DsonType
	Loc    LineCol
	Str    string    // String
	Scalar Scalar    // Int32, Int64, Float, Double, Boolean, DateTimeType, TimestampType
	Data   []byte    // Binary
	Ptr    ObjectPtr // Pointer
	Lite   LitePtr   // LitePointer
}

// A Handler handles events from parsing an input stream. If a method reports
// an error, parsing stops and that error is returned to the caller.
// The parser ensures containers are correctly balanced.
type Handler interface {
	// Begin a new object whose first element is at loc.
	BeginObject(loc LineCol) error

	// End the most-recently-opened object.
	EndObject() error

	// Begin a new array whose first element is at loc.
	BeginArray(loc LineCol) error

	// End the most-recently-opened array.
	EndArray() error

	// Begin a header attached to the container (or top-level value) that
	// follows it.
	BeginHeader(loc LineCol) error

	// End the most-recently-opened header.
	EndHeader() error

	// Begin a new member of an object or header with the given name.
	BeginMember(name string) error

	// End the current member.
	EndMember() error

	// Report a non-container value. The Datum is only valid for the duration
	// of the call, though its Data field is not reused.
	Value(d *Datum) error

	// EndOfInput reports the end of the input stream.
	EndOfInput()
}

// Stream is a stream parser that consumes input and delivers events to a
// Handler corresponding with the structure of the input.
type Stream struct {
	r *Reader
	d Datum
}

// NewStream constructs a new Stream that consumes input from r.
func NewStream(r io.Reader, opts *ReaderOptions) *Stream {
	return &Stream{r: NewReader(r, opts)}
}

// NewStreamWithReader constructs a new Stream that consumes values from r.
// The stream takes ownership of r.
func NewStreamWithReader(r *Reader) *Stream { return &Stream{r: r} }

// Close releases the resources held by s.
func (s *Stream) Close() error { return s.r.Close() }

type handlerError struct{ error }

func (h handlerError) Unwrap() error { return h.error }

func (s *Stream) recoverParseError(errp *error) {
	if v := recover(); v != nil {
		herr, ok := v.(handlerError)
		if !ok {
			panic(v)
		}
		*errp = herr.error
	}
}

// Parse parses the input stream and delivers events to h until either an error
// occurs or the input is exhausted. In case of a syntax error, the returned
// error has type [*SyntaxError].
func (s *Stream) Parse(h Handler) error {
	for {
		if err := s.ParseOne(h); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// ParseOne parses a single top-level value from the input stream and delivers
// events to h until the value is complete or an error occurs. A top-level
// header is reported as a value of its own. If no further value is available
// from the input, ParseOne returns io.EOF.
func (s *Stream) ParseOne(h Handler) (err error) {
	defer s.recoverParseError(&err)

	t := s.next()
	if t == EndOfObject {
		h.EndOfInput()
		return io.EOF
	}
	s.parseElement(h, t)
	return nil
}

// parseElement consumes a single value of type t, whose name (if any) has
// already been read.
func (s *Stream) parseElement(h Handler, t DsonType) {
	loc := s.r.Location()
	switch t {
	case Object:
		s.check(s.r.ReadStartObject())
		s.check(h.BeginObject(loc))
		s.parseMembers(h)
		s.check(s.r.ReadEndObject())
		s.check(h.EndObject())
	case Header:
		s.check(s.r.ReadStartHeader())
		s.check(h.BeginHeader(loc))
		s.parseMembers(h)
		s.check(s.r.ReadEndHeader())
		s.check(h.EndHeader())
	case Array:
		s.check(s.r.ReadStartArray())
		s.check(h.BeginArray(loc))
		for t := s.next(); t != EndOfObject; t = s.next() {
			s.parseElement(h, t)
		}
		s.check(s.r.ReadEndArray())
		s.check(h.EndArray())
	default:
		s.readDatum(t)
		s.check(h.Value(&s.d))
	}
}

// parseMembers consumes the named elements of an object or header.
// A header at the front of an object is reported without a member.
func (s *Stream) parseMembers(h Handler) {
	for t := s.next(); t != EndOfObject; t = s.next() {
		if t == Header {
			s.parseElement(h, t)
			continue
		}
		name, err := s.r.ReadName()
		s.check(err)
		s.check(h.BeginMember(name))
		s.parseElement(h, t)
		s.check(h.EndMember())
	}
}

func (s *Stream) next() DsonType {
	t, err := s.r.ReadDsonType()
	s.check(err)
	return t
}

// readDatum consumes the pending value of type t into s.d.
func (s *Stream) readDatum(t DsonType) {
	s.d = Datum{Type: t, Loc: s.r.Location()}
	var err error
	switch t {
	case String:
		s.d.Str, err = s.r.ReadString()
	case Null:
		err = s.r.ReadNull()
	case Binary:
		s.d.Data, err = s.r.ReadBinary()
	case Pointer:
		s.d.Ptr, err = s.r.ReadPtr()
	case LitePointer:
		s.d.Lite, err = s.r.ReadLitePtr()
	default:
		s.d.Scalar, err = s.r.ReadScalar()
	}
	s.check(err)
}

func (s *Stream) check(err error) {
	if err != nil {
		panic(handlerError{err})
	}
}
