// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package charstream implements a buffered, line-aware source of characters
// with bounded pushback.
//
// A Stream reports one event per call to Read: a character, a LineBreak
// marker at the end of each line (LF and CRLF alike), or EOF after the last
// line. Every event occupies one position of a single global counter, so a
// Read followed by an Unread restores the position exactly.
//
//	cs := charstream.NewString(input)
//	defer cs.Close()
//	for {
//	   ch, err := cs.Read()
//	   if err != nil {
//	      log.Fatal(err)
//	   } else if ch == charstream.EOF {
//	      break
//	   }
//	   ...
//	}
//
// Lines that have fallen far enough behind the read position, or before a
// point passed to DiscardBefore, are released. Unreading into a released
// region reports ErrBufferOverflow.
package charstream

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"

	"github.com/creachadair/dson/internal/charbuf"
)

// Special values reported by Read in place of a character.
const (
	EOF       rune = -1 // end of input
	LineBreak rune = -2 // end of a line
)

var (
	// ErrBufferOverflow is reported by Unread when the position it would
	// restore has been discarded.
	ErrBufferOverflow = errors.New("pushback buffer overflow")

	// ErrReadAfterEOF is reported by Read after EOF has already been read.
	ErrReadAfterEOF = errors.New("read after end of input")
)

// TabWidth is the column interval of tab stops.
const TabWidth = 4

// windowLines is the number of completed lines retained behind the current
// line regardless of DiscardBefore.
const windowLines = 8

// State is the terminator state of a line.
type State byte

// Constants defining the valid State values.
const (
	Scanning State = iota // the end of the line has not been found yet
	LF                    // terminated by "\n"
	CRLF                  // terminated by "\r\n"
	EndOfInput            // terminated by the end of input
)

var stateStr = [...]string{
	Scanning:   "scanning",
	LF:         "LF",
	CRLF:       "CRLF",
	EndOfInput: "EOF",
}

func (s State) String() string {
	if int(s) >= len(stateStr) {
		return "invalid state"
	}
	return stateStr[s]
}

// LineInfo describes one line of input.
type LineInfo struct {
	Line  int   // line number, 1-based
	Start int   // position of the first character of the line
	End   int   // position of the terminator, or one past the last scanned character
	State State // terminator state
}

// Complete reports whether the end of the line has been found.
// A complete LineInfo does not change.
func (li *LineInfo) Complete() bool { return li.State != Scanning }

// Len reports the number of characters of the line known so far, not counting
// the terminator.
func (li *LineInfo) Len() int { return li.End - li.Start }

// A source scans characters of the current line into a buffer.
type source interface {
	// scan appends characters of the current line to buf, stopping at the end
	// of the line or after an implementation-defined chunk. It reports the
	// number of characters appended and the terminator state, which is
	// Scanning if the line may have more characters.
	scan(buf *charbuf.Buffer) (int, State, error)
}

// A Stream is a buffered source of characters. A Stream is not safe for
// concurrent use.
type Stream struct {
	src   source
	buf   *charbuf.Buffer // buf.At(i) is the character at position base+i
	base  int
	lines []*LineInfo // retained lines, in order; the last may be scanning

	// The most recently released line, and the column of its terminator.
	// Unread may return to that terminator from the start of lines[0].
	prev    *LineInfo
	prevCol int

	pos  int   // position of the last event read, -1 before the first
	mark int   // positions before mark cannot be restored by Unread
	err  error // sticky error from the source

	colPos, colVal int // cached column of position colPos
}

// NewString constructs a Stream that reads the characters of s.
func NewString(s string) *Stream { return newStream(&stringSource{s: s}) }

// NewReader constructs a Stream that reads characters from r. If r is not
// already a *bufio.Reader, it is wrapped in one.
func NewReader(r io.Reader) *Stream {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return newStream(&readerSource{r: br})
}

func newStream(src source) *Stream {
	return &Stream{
		src:    src,
		buf:    charbuf.New(),
		lines:  []*LineInfo{{Line: 1}},
		pos:    -1,
		colPos: -1,
	}
}

// Close releases the buffers held by s. After Close, s must not be used.
// Close is idempotent and always returns nil.
func (s *Stream) Close() error {
	if s.buf != nil {
		s.buf.Release()
		s.buf = nil
		s.lines = nil
		s.prev = nil
	}
	return nil
}

// Read returns the next character, LineBreak, or EOF, and advances the
// position by one.
func (s *Stream) Read() (rune, error) {
	next := s.pos + 1
	li, err := s.lineFor(next)
	if err != nil {
		return EOF, err
	}
	s.pos = next
	if next == li.End && li.Complete() {
		if li.State == EndOfInput {
			return EOF, nil
		}
		return LineBreak, nil
	}
	return s.buf.At(next - s.base), nil
}

// Unread moves the position back by one, so that the next Read repeats the
// result of the last. It reports ErrBufferOverflow if that position is no
// longer buffered.
func (s *Stream) Unread() error {
	if len(s.lines) == 0 || s.pos < 0 || s.pos < s.mark || s.pos < s.lines[0].Start {
		return ErrBufferOverflow
	}
	s.pos--
	return nil
}

// SkipLine advances the position so that the next Read reports the
// terminator of the line containing the next character.
func (s *Stream) SkipLine() error {
	for {
		li, err := s.lineFor(s.pos + 1)
		if err != nil {
			return err
		}
		if li.Complete() {
			if li.End > s.pos+1 {
				s.pos = li.End - 1
			}
			return nil
		}
		if err := s.scanMore(li); err != nil {
			return err
		}
	}
}

// Position reports the global position of the last event read, or -1 if
// nothing has been read.
func (s *Stream) Position() int { return s.pos }

// Line reports the 1-based line number of the last event read.
func (s *Stream) Line() int {
	if li := s.current(); li != nil {
		return li.Line
	}
	return 1
}

// Column reports the 0-based column of the last event read. A tab advances
// the column to the next multiple of TabWidth.
func (s *Stream) Column() int {
	li := s.current()
	if li == nil || s.pos < li.Start {
		return 0
	} else if li == s.prev {
		return s.prevCol
	}
	from, col := li.Start, 0
	if s.colPos >= li.Start && s.colPos <= s.pos {
		from, col = s.colPos, s.colVal
	}
	for p := from; p < s.pos; p++ {
		col = advanceColumn(col, s.buf.At(p-s.base))
	}
	s.colPos, s.colVal = s.pos, col
	return col
}

// NextColumn reports the column at which the character following the last
// event read would appear.
func (s *Stream) NextColumn() int {
	li := s.current()
	if li == nil {
		return 0
	} else if s.pos == li.End && li.Complete() {
		return 0 // past a line break
	} else if s.pos < li.Start {
		return 0
	}
	return advanceColumn(s.Column(), s.buf.At(s.pos-s.base))
}

// CurrentLine returns a copy of the description of the line containing the
// last event read.
func (s *Stream) CurrentLine() LineInfo {
	if li := s.current(); li != nil {
		return *li
	}
	return LineInfo{Line: 1}
}

// DiscardBefore reports that positions before pos will not be restored by
// Unread, allowing s to release the lines that precede them.
func (s *Stream) DiscardBefore(pos int) {
	if pos > s.pos+1 {
		pos = s.pos + 1
	}
	if pos > s.mark {
		s.mark = pos
		s.trim()
	}
}

func advanceColumn(col int, ch rune) int {
	if ch == '\t' {
		return (col/TabWidth + 1) * TabWidth
	}
	return col + 1
}

// current returns the line containing the last event read, or nil.
func (s *Stream) current() *LineInfo {
	p := max(s.pos, 0)
	for i := len(s.lines) - 1; i >= 0; i-- {
		if li := s.lines[i]; p >= li.Start {
			return li
		}
	}
	if s.prev != nil && p == s.prev.End {
		return s.prev
	}
	return nil
}

// lineFor returns the line containing position p, scanning more input as
// necessary to find it.
func (s *Stream) lineFor(p int) (*LineInfo, error) {
	if s.lines == nil {
		return nil, errors.New("stream is closed")
	}
	for {
		last := s.lines[len(s.lines)-1]
		if p < last.Start {
			for i := len(s.lines) - 2; i >= 0; i-- {
				if li := s.lines[i]; p >= li.Start {
					return li, nil
				}
			}
			return nil, ErrBufferOverflow
		}
		if !last.Complete() {
			if p < last.End {
				return last, nil
			} else if err := s.scanMore(last); err != nil {
				return nil, err
			}
			continue
		}
		if p <= last.End {
			return last, nil
		} else if last.State == EndOfInput {
			return nil, ErrReadAfterEOF
		}
		next := last.End + 1
		s.lines = append(s.lines, &LineInfo{Line: last.Line + 1, Start: next, End: next})
		s.trim()
	}
}

// scanMore requests more characters for li, which must be the last line.
func (s *Stream) scanMore(li *LineInfo) error {
	if s.err != nil {
		return s.err
	}
	n, st, err := s.src.scan(s.buf)
	li.End += n
	if err != nil {
		s.err = err
		return err
	}
	if st != Scanning {
		li.State = st
		if st != EndOfInput {
			s.buf.Append('\n') // placeholder for the line break position
		}
	}
	return nil
}

// trim releases completed lines that are before the mark or too far behind
// the current line.
func (s *Stream) trim() {
	drop := 0
	for drop < len(s.lines)-1 {
		li := s.lines[drop]
		if li.End >= s.mark && len(s.lines)-drop <= windowLines {
			break
		} else if li.End >= s.pos {
			break // never release the line being read
		}
		drop++
	}
	if drop == 0 {
		return
	}
	last, col := s.lines[drop-1], 0
	for p := last.Start; p < last.End; p++ {
		col = advanceColumn(col, s.buf.At(p-s.base))
	}
	s.prev, s.prevCol = last, col

	first := s.lines[drop]
	s.buf.Discard(first.Start - s.base)
	s.base = first.Start
	s.mark = max(s.mark, first.Start)
	n := copy(s.lines, s.lines[drop:])
	clear(s.lines[n:])
	s.lines = s.lines[:n]
}

type stringSource struct {
	s string
	i int
}

func (ss *stringSource) scan(buf *charbuf.Buffer) (int, State, error) {
	var n int
	for ss.i < len(ss.s) {
		ch, size := utf8.DecodeRuneInString(ss.s[ss.i:])
		ss.i += size
		switch ch {
		case '\n':
			return n, LF, nil
		case '\r':
			if ss.i < len(ss.s) && ss.s[ss.i] == '\n' {
				ss.i++
				return n, CRLF, nil
			}
		}
		buf.Append(ch)
		n++
	}
	return n, EndOfInput, nil
}

// readerChunk is the maximum number of characters a readerSource adds to the
// line buffer per scan.
const readerChunk = 256

type readerSource struct {
	r *bufio.Reader
}

func (rs *readerSource) scan(buf *charbuf.Buffer) (int, State, error) {
	var n int
	for n < readerChunk {
		ch, _, err := rs.r.ReadRune()
		if err == io.EOF {
			return n, EndOfInput, nil
		} else if err != nil {
			return n, Scanning, err
		}
		switch ch {
		case '\n':
			return n, LF, nil
		case '\r':
			next, _, err := rs.r.ReadRune()
			if err == nil {
				if next == '\n' {
					return n, CRLF, nil
				}
				rs.r.UnreadRune()
			} else if err != io.EOF {
				return n, Scanning, err
			}
		}
		buf.Append(ch)
		n++
	}
	return n, Scanning, nil
}
