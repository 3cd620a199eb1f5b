// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"fmt"
	"math"
	"time"
)

// DsonType is the type of a value reported by a Reader.
type DsonType byte

// Constants defining the valid DsonType values.
const (
	Invalid DsonType = iota
	Int32
	Int64
	Float
	Double
	Boolean
	String
	Null
	Binary
	Pointer
	LitePointer
	DateTimeType
	TimestampType
	Header
	Array
	Object

	// EndOfObject reports the end of the current container, or the end of
	// the input at the top level.
	EndOfObject
)

var dsonTypeStr = [...]string{
	Invalid:       "invalid",
	Int32:         "int32",
	Int64:         "int64",
	Float:         "float",
	Double:        "double",
	Boolean:       "boolean",
	String:        "string",
	Null:          "null",
	Binary:        "binary",
	Pointer:       "pointer",
	LitePointer:   "lite pointer",
	DateTimeType:  "datetime",
	TimestampType: "timestamp",
	Header:        "header",
	Array:         "array",
	Object:        "object",
	EndOfObject:   "end of object",
}

func (t DsonType) String() string {
	if int(t) >= len(dsonTypeStr) {
		return dsonTypeStr[Invalid]
	}
	return dsonTypeStr[t]
}

// IsContainer reports whether t is a type whose contents are read between a
// start and an end call.
func (t DsonType) IsContainer() bool { return t == Header || t == Array || t == Object }

// An ObjectPtr is a reference to an object by identifier.
type ObjectPtr struct {
	LocalID   string `yaml:"localId"`
	Namespace string `yaml:"ns,omitempty"`
	Type      int32  `yaml:"type,omitempty"`
	Policy    int32  `yaml:"policy,omitempty"`
}

// IsAbbreviable reports whether p can be written in the one-token form.
func (p ObjectPtr) IsAbbreviable() bool { return p.Namespace == "" && p.Type == 0 && p.Policy == 0 }

// A LitePtr is a reference to an object by numeric identifier.
type LitePtr struct {
	LocalID   int64  `yaml:"localId"`
	Namespace string `yaml:"ns,omitempty"`
	Type      int32  `yaml:"type,omitempty"`
	Policy    int32  `yaml:"policy,omitempty"`
}

// IsAbbreviable reports whether p can be written in the one-token form.
func (p LitePtr) IsAbbreviable() bool { return p.Namespace == "" && p.Type == 0 && p.Policy == 0 }

// DateTimeMask records which parts of a DateTime are meaningful.
type DateTimeMask byte

// Constants defining the DateTimeMask bits.
const (
	MaskDate   DateTimeMask = 1 << iota // the date is set
	MaskTime                            // the time of day is set
	MaskOffset                          // the zone offset is set

	MaskDateTime = MaskDate | MaskTime
)

const secondsPerDay = 86400

// A DateTime is a calendar date and time of day with an optional zone offset.
//
// Seconds counts the local date and time as seconds since 1970-01-01T00:00:00
// without regard to the offset. For a time of day without a date, Seconds is
// the number of seconds since midnight. For a date without a time of day,
// Seconds is a multiple of 86400.
type DateTime struct {
	Seconds int64
	Nanos   int32 // in [0, 1e9)
	Offset  int32 // zone offset in seconds east of UTC
	Enables DateTimeMask
}

// DateTimeOf returns the DateTime corresponding to t, with all parts enabled.
func DateTimeOf(t time.Time) DateTime {
	_, off := t.Zone()
	return DateTime{
		Seconds: t.Unix() + int64(off),
		Nanos:   int32(t.Nanosecond()),
		Offset:  int32(off),
		Enables: MaskDateTime | MaskOffset,
	}
}

// Time returns the time.Time corresponding to d. If d has no offset, the
// result is in UTC.
func (d DateTime) Time() time.Time {
	if d.Enables&MaskOffset == 0 {
		return time.Unix(d.Seconds, int64(d.Nanos)).UTC()
	}
	zone := time.FixedZone("", int(d.Offset))
	return time.Unix(d.Seconds-int64(d.Offset), int64(d.Nanos)).In(zone)
}

// HasDate reports whether the date part of d is enabled.
func (d DateTime) HasDate() bool { return d.Enables&MaskDate != 0 }

// HasTime reports whether the time of day part of d is enabled.
func (d DateTime) HasTime() bool { return d.Enables&MaskTime != 0 }

// HasOffset reports whether the zone offset of d is enabled.
func (d DateTime) HasOffset() bool { return d.Enables&MaskOffset != 0 }

// IsAbbreviable reports whether d can be written in the one-token form.
func (d DateTime) IsAbbreviable() bool {
	return d.Enables == MaskDateTime && d.Nanos == 0 && d.Offset == 0
}

// Validate reports an error if d is not well-formed.
func (d DateTime) Validate() error {
	switch {
	case d.Enables&MaskDateTime == 0:
		return fmt.Errorf("datetime has neither date nor time")
	case d.Nanos < 0 || d.Nanos >= 1e9:
		return fmt.Errorf("datetime nanos %d out of range", d.Nanos)
	case d.Enables&MaskTime == 0 && floorMod(d.Seconds, secondsPerDay) != 0:
		return fmt.Errorf("date-only value has a time of day")
	case d.Enables&MaskDate == 0 && (d.Seconds < 0 || d.Seconds >= secondsPerDay):
		return fmt.Errorf("time-only value is out of range")
	case d.Enables&MaskOffset == 0 && d.Offset != 0:
		return fmt.Errorf("zone offset %d is set but not enabled", d.Offset)
	case d.Offset < -18*3600 || d.Offset > 18*3600:
		return fmt.Errorf("zone offset %d out of range", d.Offset)
	}
	return nil
}

func (d DateTime) String() string {
	var buf []byte
	if d.HasDate() {
		buf = appendDate(buf, d.Seconds)
	}
	if d.HasTime() {
		if d.HasDate() {
			buf = append(buf, 'T')
		}
		buf = appendTime(buf, d.Seconds)
		if d.Nanos != 0 {
			buf = fmt.Appendf(buf, ".%09d", d.Nanos)
		}
	}
	if d.HasOffset() {
		buf = appendOffset(buf, d.Offset)
	}
	return string(buf)
}

// A Timestamp is an instant measured from the Unix epoch.
type Timestamp struct {
	Seconds int64
	Nanos   int32 // in [0, 1e9)
}

// TimestampOf returns the Timestamp corresponding to t.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// TimestampMillis returns the Timestamp for the given count of milliseconds
// since the Unix epoch.
func TimestampMillis(ms int64) Timestamp {
	return Timestamp{Seconds: floorDiv(ms, 1000), Nanos: int32(floorMod(ms, 1000) * 1e6)}
}

// Time returns the time.Time corresponding to ts, in UTC.
func (ts Timestamp) Time() time.Time { return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC() }

// Millis returns ts as a count of milliseconds, and reports whether that
// conversion is exact. It reports false if the count does not fit in an int64.
func (ts Timestamp) Millis() (int64, bool) {
	if ts.Seconds > (math.MaxInt64-999)/1000 || ts.Seconds < math.MinInt64/1000 {
		return 0, false
	}
	return ts.Seconds*1000 + int64(ts.Nanos/1e6), ts.Nanos%1e6 == 0
}

// Validate reports an error if ts is not well-formed.
func (ts Timestamp) Validate() error {
	if ts.Nanos < 0 || ts.Nanos >= 1e9 {
		return fmt.Errorf("timestamp nanos %d out of range", ts.Nanos)
	}
	return nil
}

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339Nano)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 { return a - floorDiv(a, b)*b }

const (
	dateLayout     = "2006-01-02"
	timeLayout     = "15:04:05"
	dateTimeLayout = dateLayout + "T" + timeLayout
)

func appendDate(buf []byte, secs int64) []byte {
	return time.Unix(floorDiv(secs, secondsPerDay)*secondsPerDay, 0).UTC().AppendFormat(buf, dateLayout)
}

func appendTime(buf []byte, secs int64) []byte {
	return time.Unix(floorMod(secs, secondsPerDay), 0).UTC().AppendFormat(buf, timeLayout)
}

// appendOffset appends the offset in seconds as "Z" or ±HH:MM[:SS].
func appendOffset(buf []byte, off int32) []byte {
	if off == 0 {
		return append(buf, 'Z')
	}
	sign := byte('+')
	if off < 0 {
		sign, off = '-', -off
	}
	buf = fmt.Appendf(buf, "%c%02d:%02d", sign, off/3600, (off/60)%60)
	if s := off % 60; s != 0 {
		buf = fmt.Appendf(buf, ":%02d", s)
	}
	return buf
}

// parseDate parses a date in the form 2006-01-02 to seconds since the epoch.
func parseDate(s string) (int64, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q", s)
	}
	return t.Unix(), nil
}

// parseTime parses a time of day in the form 15:04:05 to seconds since
// midnight.
func parseTime(s string) (int64, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}

// parseOffset parses a zone offset in the form Z, ±HH, ±HH:MM, or ±HH:MM:SS
// to seconds east of UTC.
func parseOffset(s string) (int32, error) {
	if s == "Z" || s == "z" {
		return 0, nil
	}
	bad := fmt.Errorf("invalid zone offset %q", s)
	if len(s) < 3 || (s[0] != '+' && s[0] != '-') {
		return 0, bad
	}
	var parts [3]int32
	rest := s[1:]
	for i := range parts {
		if len(rest) < 2 || !isDigit(rune(rest[0])) || !isDigit(rune(rest[1])) {
			return 0, bad
		}
		parts[i] = int32(rest[0]-'0')*10 + int32(rest[1]-'0')
		rest = rest[2:]
		if rest == "" {
			break
		} else if rest[0] != ':' || i == len(parts)-1 {
			return 0, bad
		}
		rest = rest[1:]
	}
	if parts[0] > 18 || parts[1] > 59 || parts[2] > 59 {
		return 0, bad
	}
	off := parts[0]*3600 + parts[1]*60 + parts[2]
	if s[0] == '-' {
		off = -off
	}
	return off, nil
}
