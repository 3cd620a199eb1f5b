// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package dson

import (
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/creachadair/dson/charstream"
	"github.com/creachadair/dson/internal/escape"
	"github.com/creachadair/dson/internal/numlit"
	"github.com/creachadair/dson/internal/pool"
	"go4.org/mem"
)

// A Scanner reads lexical tokens from a character stream. Each call to
// NextToken reports the next token of the input, or an error.
type Scanner struct {
	cs   *charstream.Stream
	buf  *[]byte // current token contents
	line []byte  // scratch for one line of an escaped text block
	err  error

	pos int     // position of the current token
	loc LineCol // location of the current token
}

// NewScanner constructs a new lexical scanner that consumes input from cs.
// The scanner takes ownership of cs, and closes it when the scanner is closed.
func NewScanner(cs *charstream.Stream) *Scanner {
	return &Scanner{cs: cs, buf: pool.Bytes.Get()}
}

// Close releases the resources held by s. Close is idempotent and always
// returns nil.
func (s *Scanner) Close() error {
	if s.buf != nil {
		pool.Bytes.Put(s.buf)
		s.buf = nil
		s.cs.Close()
	}
	return nil
}

// Location returns the location of the start of the current token through the
// position of the last character read.
func (s *Scanner) Location() Location {
	return Location{
		Span:  Span{Pos: s.pos, End: s.cs.Position() + 1},
		First: s.loc,
		Last:  LineCol{Line: s.cs.Line(), Column: s.cs.NextColumn()},
	}
}

// NextToken reads and returns the next token of the input. At the end of the
// input it returns a token of type EOF. Errors are sticky: once NextToken has
// reported an error, it reports the same error on every subsequent call.
//
// If skipValue is true, the contents of quoted strings, text blocks, and
// binary values are validated but not reported.
func (s *Scanner) NextToken(skipValue bool) (Token, error) {
	if s.err != nil {
		return Token{}, s.err
	}
	*s.buf = (*s.buf)[:0]
	s.cs.DiscardBefore(s.cs.Position() + 1)

	for {
		ch, err := s.read()
		if err != nil {
			return Token{}, err
		}
		if isSpace(ch) {
			continue
		}
		s.pos = s.cs.Position()
		s.loc = LineCol{Line: s.cs.Line(), Column: s.cs.Column()}

		switch ch {
		case charstream.EOF:
			return s.token(EOF), nil
		case '{':
			return s.token(BeginObject), nil
		case '}':
			return s.token(EndObject), nil
		case '[':
			return s.token(BeginArray), nil
		case ']':
			return s.token(EndArray), nil
		case ':':
			return s.token(Colon), nil
		case ',':
			return s.token(Comma), nil
		case '"':
			return s.scanQuoted(skipValue)
		case '@':
			return s.scanLabel(skipValue)
		case '/':
			if err := s.scanComment(); err != nil {
				return Token{}, err
			}
			continue
		}
		if isUnsafe(ch) || isControl(ch) {
			return s.failf("unexpected %q", ch)
		}
		s.add(ch)
		if err := s.scanUnquoted(); err != nil {
			return Token{}, err
		}
		return s.textToken(UnquoteString), nil
	}
}

func (s *Scanner) token(t TokenType) Token { return Token{Type: t, Pos: s.pos, Loc: s.loc} }

func (s *Scanner) textToken(t TokenType) Token {
	tok := s.token(t)
	tok.Text = string(*s.buf)
	return tok
}

// scanQuoted scans a quoted string or a plain text block.
// Precondition: the opening quote has been read.
func (s *Scanner) scanQuoted(skip bool) (Token, error) {
	ch, err := s.read()
	if err != nil {
		return Token{}, err
	}
	if ch == '"' {
		next, err := s.read()
		if err != nil {
			return Token{}, err
		} else if next == '"' {
			if err := s.scanTextBlock(s.cs.Column() - 2); err != nil {
				return Token{}, err
			}
			return s.stringToken(skip), nil
		}
		if err := s.unread(); err != nil {
			return Token{}, err
		}
		return s.token(StringToken), nil // empty string
	}
	if err := s.unread(); err != nil {
		return Token{}, err
	}
	if err := s.scanString(skip); err != nil {
		return Token{}, err
	}
	return s.stringToken(skip), nil
}

func (s *Scanner) stringToken(skip bool) Token {
	if skip {
		return s.token(StringToken)
	}
	return s.textToken(StringToken)
}

// scanString scans the body of a quoted string through its closing quote,
// decoding escapes unless skip is true.
func (s *Scanner) scanString(skip bool) error {
	esc := false
	for {
		ch, err := s.read()
		if err != nil {
			return err
		}
		switch {
		case ch == charstream.EOF || ch == charstream.LineBreak:
			return s.errorf("unterminated string")
		case esc:
			if !escape.ValidEscape(ch) {
				return s.errorf("invalid %q after escape", ch)
			}
			s.add(ch)
			if ch == 'u' {
				if err := s.readHex4(); err != nil {
					return err
				}
			}
			esc = false
		case ch == '"':
			return s.decodeEscapes(skip)
		case ch < ' ' && ch != '\t':
			return s.errorf("unescaped control %q", ch)
		default:
			s.add(ch)
			esc = ch == '\\'
		}
	}
}

// decodeEscapes replaces the raw escaped contents of the buffer with their
// decoded form.
func (s *Scanner) decodeEscapes(skip bool) error {
	raw := *s.buf
	if mem.IndexByte(mem.B(raw), '\\') < 0 {
		return nil
	}
	out, err := escape.Unquote(raw[len(raw):len(raw)], mem.B(raw))
	if err != nil {
		return s.errorf("%v", err)
	}
	if !skip {
		*s.buf = append(raw[:0], out...)
	}
	return nil
}

func (s *Scanner) readHex4() error {
	for range 4 {
		ch, err := s.read()
		if err != nil {
			return err
		} else if !escape.IsHexDigit(ch) {
			return s.errorf("invalid Unicode escape: not a hex digit: %q", ch)
		}
		s.add(ch)
	}
	return nil
}

// scanTextBlock scans the body of a plain text block whose opening quote is
// at column col. Precondition: the opening triple quote has been read.
func (s *Scanner) scanTextBlock(col int) error {
	if err := s.requireLineEnd(`"""`); err != nil {
		return err
	}
	first := true
	for {
		s.cs.DiscardBefore(s.cs.Position() + 1)

		// Strip indentation up to col. A line that ends before col is blank.
		blank, err := s.skipIndent(col)
		if err != nil {
			return err
		}
		if !first {
			s.add('\n')
		}
		first = false
		if blank {
			continue
		}

		if ok, err := s.closesTextBlock(); err != nil {
			return err
		} else if ok {
			if len(*s.buf) != 0 {
				*s.buf = (*s.buf)[:len(*s.buf)-1] // the line break before the close
			}
			return nil
		}
		if err := s.readLine(func(ch rune) { s.add(ch) }); err != nil {
			return err
		}
	}
}

// closesTextBlock reports whether the rest of the current line is a closing
// triple quote followed only by spaces and tabs. The line terminator is not
// consumed. If it reports false, nothing is consumed.
func (s *Scanner) closesTextBlock() (bool, error) {
	if ok, err := s.match(`"""`); err != nil || !ok {
		return false, err
	}
	n := 3
	for {
		ch, err := s.read()
		if err != nil {
			return false, err
		}
		n++
		switch ch {
		case ' ', '\t':
			continue
		case charstream.LineBreak, charstream.EOF:
			return true, s.unread()
		}
		for range n {
			if err := s.unread(); err != nil {
				return false, err
			}
		}
		return false, nil
	}
}

// skipIndent consumes whitespace up to column col of a text block line. It
// reports true if the line ended before reaching col.
func (s *Scanner) skipIndent(col int) (bool, error) {
	for c := 0; c < col; {
		ch, err := s.read()
		if err != nil {
			return false, err
		}
		switch ch {
		case ' ':
			c++
		case '\t':
			c = (c/charstream.TabWidth + 1) * charstream.TabWidth
			if c > col {
				return false, s.errorf("tab crosses text block indentation")
			}
		case charstream.LineBreak:
			return true, nil
		case charstream.EOF:
			return false, s.errorf("unterminated text block")
		default:
			return false, s.errorf("text block line is indented less than its opening quote")
		}
	}
	return false, nil
}

// readLine consumes the rest of the current line, passing each character to
// add. It consumes the line break, and reports an error at end of input.
func (s *Scanner) readLine(add func(rune)) error {
	for {
		ch, err := s.read()
		if err != nil {
			return err
		}
		switch ch {
		case charstream.LineBreak:
			return nil
		case charstream.EOF:
			return s.errorf("unterminated text block")
		}
		add(ch)
	}
}

// scanDsonText scans the body of a Dson text block whose opening "@" is at
// column col. Precondition: the opening marker has been read.
func (s *Scanner) scanDsonText(col int) error {
	if err := s.requireLineEnd(`@"""`); err != nil {
		return err
	}
	for {
		s.cs.DiscardBefore(s.cs.Position() + 1)

		ch, err := s.skipSpace()
		if err != nil {
			return err
		}
		switch ch {
		case charstream.LineBreak:
			continue // blank lines are ignored
		case charstream.EOF:
			return s.errorf("unterminated text block")
		case '@':
			if c := s.cs.Column(); c != col {
				return s.errorf("text block line at column %d, want %d", c, col)
			}
		default:
			return s.errorf("text block line must start with '@', got %q", ch)
		}

		ctl, err := s.read()
		if err != nil {
			return err
		}
		switch ctl {
		case '"':
			if ok, err := s.match(`""`); err != nil {
				return err
			} else if !ok {
				return s.errorf("invalid text block terminator")
			}
			return nil
		case '-', '|', '^':
		default:
			return s.errorf("invalid text block control %q", ctl)
		}

		// One space after the control is part of the syntax.
		if _, err := s.match(" "); err != nil {
			return err
		}
		if ctl == '|' {
			s.add('\n')
		}
		if ctl != '^' {
			if err := s.readLine(func(ch rune) { s.add(ch) }); err != nil {
				return err
			}
			continue
		}

		s.line = s.line[:0]
		if err := s.readLine(func(ch rune) { s.line = utf8.AppendRune(s.line, ch) }); err != nil {
			return err
		}
		out, err := escape.Unquote(*s.buf, mem.B(s.line))
		if err != nil {
			return s.errorf("%v", err)
		}
		*s.buf = out
	}
}

// requireLineEnd consumes optional trailing whitespace and the line break
// following the opening of a text block.
func (s *Scanner) requireLineEnd(what string) error {
	ch, err := s.skipSpace()
	if err != nil {
		return err
	} else if ch != charstream.LineBreak {
		return s.errorf("%s must be followed by a line break", what)
	}
	return nil
}

// skipSpace consumes spaces and tabs, and returns the first other character.
func (s *Scanner) skipSpace() (rune, error) {
	for {
		ch, err := s.read()
		if err != nil {
			return 0, err
		} else if ch != ' ' && ch != '\t' {
			return ch, nil
		}
	}
}

// scanLabel scans a token introduced by "@".
func (s *Scanner) scanLabel(skip bool) (Token, error) {
	ch, err := s.read()
	if err != nil {
		return Token{}, err
	}
	switch {
	case ch == '{':
		return s.token(BeginHeader), nil
	case ch == '"':
		if ok, err := s.match(`""`); err != nil {
			return Token{}, err
		} else if !ok {
			return s.failf(`invalid text block start, want @"""`)
		}
		if err := s.scanDsonText(s.loc.Column); err != nil {
			return Token{}, err
		}
		return s.stringToken(skip), nil
	case !isLetter(ch):
		return s.failf("invalid label character %q", ch)
	}

	var lbuf [8]byte
	label := append(lbuf[:0], byte(ch))
	for {
		ch, err := s.read()
		if err != nil {
			return Token{}, err
		} else if !isLetter(ch) {
			if err := s.unread(); err != nil {
				return Token{}, err
			}
			break
		}
		if len(label) == len(lbuf) {
			return s.failf("unknown label @%s...", label)
		}
		label = append(label, byte(ch))
	}

	switch name := string(label); name {
	case "ptr", "lptr", "dt", "ts":
		tok := s.token(BuiltinStruct)
		tok.Text = name
		return tok, nil
	case "i", "L", "f", "d", "b", "s", "N", "sL", "bin":
		ch, err := s.read()
		if err != nil {
			return Token{}, err
		} else if ch != ' ' && ch != '\t' {
			return s.failf("missing space after label @%s", name)
		}
		return s.scanLabeled(name, skip)
	default:
		return s.failf("unknown label @%s", name)
	}
}

// scanLabeled scans the payload of a labeled scalar value.
func (s *Scanner) scanLabeled(label string, skip bool) (Token, error) {
	switch label {
	case "sL":
		if err := s.scanLineString(); err != nil {
			return Token{}, err
		}
		return s.stringToken(skip), nil
	case "bin":
		return s.scanBinary(skip)
	}

	ch, err := s.skipSpace()
	if err != nil {
		return Token{}, err
	}
	switch {
	case ch == '"':
		tok, err := s.scanQuoted(label == "s" && skip)
		if err != nil || label == "s" {
			return tok, err
		}
	case ch == '@' && label == "s":
		if ok, err := s.match(`"""`); err != nil {
			return Token{}, err
		} else if !ok {
			return s.failf(`invalid text block start, want @"""`)
		}
		col := s.cs.Column() - 3
		if err := s.scanDsonText(col); err != nil {
			return Token{}, err
		}
		return s.stringToken(skip), nil
	case isUnsafe(ch) || isControl(ch) || ch == charstream.LineBreak || ch == charstream.EOF:
		return s.failf("missing value after @%s", label)
	default:
		s.add(ch)
		if err := s.scanUnquoted(); err != nil {
			return Token{}, err
		}
		if label == "s" {
			return s.textToken(StringToken), nil
		}
	}

	text := mem.B(*s.buf)
	switch label {
	case "i":
		v, err := numlit.ParseInt(text, 32)
		if err != nil {
			return s.failf("invalid int32 %q: %v", *s.buf, err)
		}
		return s.scalarToken(Int32Token, ScalarInt32(int32(v))), nil
	case "L":
		v, err := numlit.ParseInt(text, 64)
		if err != nil {
			return s.failf("invalid int64 %q: %v", *s.buf, err)
		}
		return s.scalarToken(Int64Token, ScalarInt64(v)), nil
	case "f":
		v, err := numlit.ParseFloat(text, 32)
		if err != nil {
			return s.failf("invalid float %q: %v", *s.buf, err)
		}
		return s.scalarToken(FloatToken, ScalarFloat(float32(v))), nil
	case "d":
		v, err := numlit.ParseFloat(text, 64)
		if err != nil {
			return s.failf("invalid double %q: %v", *s.buf, err)
		}
		return s.scalarToken(DoubleToken, ScalarDouble(v)), nil
	case "b":
		switch {
		case text.EqualString("true"):
			return s.scalarToken(BoolToken, ScalarBool(true)), nil
		case text.EqualString("false"):
			return s.scalarToken(BoolToken, ScalarBool(false)), nil
		}
		return s.failf("invalid bool %q", *s.buf)
	case "N":
		if !text.EqualString("null") {
			return s.failf("invalid null %q", *s.buf)
		}
		return s.token(NullToken), nil
	}
	panic("unreachable")
}

func (s *Scanner) scalarToken(t TokenType, v Scalar) Token {
	tok := s.token(t)
	tok.Value = v
	return tok
}

// scanLineString scans the rest of the current line, without escapes.
func (s *Scanner) scanLineString() error {
	for {
		ch, err := s.read()
		if err != nil {
			return err
		}
		if ch == charstream.LineBreak || ch == charstream.EOF {
			return s.unread()
		}
		s.add(ch)
	}
}

// scanBinary scans the hex payload of a binary value, either bare or quoted.
func (s *Scanner) scanBinary(skip bool) (Token, error) {
	ch, err := s.skipSpace()
	if err != nil {
		return Token{}, err
	}
	quoted := ch == '"'
	if !quoted {
		if err := s.unread(); err != nil {
			return Token{}, err
		}
	}
	for {
		ch, err := s.read()
		if err != nil {
			return Token{}, err
		}
		if escape.IsHexDigit(ch) {
			s.add(ch)
			continue
		}
		if quoted {
			if ch != '"' {
				return s.failf("invalid hex digit %q in binary", ch)
			}
		} else {
			if !(isSpace(ch) || isUnsafe(ch) || ch == charstream.EOF) {
				return s.failf("invalid hex digit %q in binary", ch)
			}
			if err := s.unread(); err != nil {
				return Token{}, err
			}
		}
		break
	}
	raw := *s.buf
	if len(raw)%2 != 0 {
		return s.failf("odd number of hex digits in binary")
	} else if !quoted && len(raw) == 0 {
		return s.failf("missing value after @bin")
	}
	tok := s.token(BinaryToken)
	if !skip {
		tok.Data = make([]byte, len(raw)/2)
		if _, err := hex.Decode(tok.Data, raw); err != nil {
			return s.failf("invalid binary: %v", err)
		}
	}
	return tok, nil
}

// scanUnquoted consumes the remainder of an unquoted string.
func (s *Scanner) scanUnquoted() error {
	for {
		ch, err := s.read()
		if err != nil {
			return err
		}
		if ch < 0 || isSpace(ch) || isUnsafe(ch) || isControl(ch) {
			return s.unread()
		}
		s.add(ch)
	}
}

func (s *Scanner) scanComment() error {
	ch, err := s.read()
	if err != nil {
		return err
	} else if ch != '/' {
		return s.errorf("invalid %q after '/'", ch)
	}
	if err := s.cs.SkipLine(); err != nil {
		return s.fail(err)
	}
	return nil
}

// match consumes the characters of want if they are next in the input, and
// reports whether it did so. If not, the input is left unchanged.
func (s *Scanner) match(want string) (bool, error) {
	n := 0
	for _, w := range want {
		ch, err := s.read()
		if err != nil {
			return false, err
		}
		n++
		if ch != w {
			for range n {
				if err := s.unread(); err != nil {
					return false, err
				}
			}
			return false, nil
		}
	}
	return true, nil
}

func (s *Scanner) add(ch rune) { *s.buf = utf8.AppendRune(*s.buf, ch) }

func (s *Scanner) read() (rune, error) {
	ch, err := s.cs.Read()
	if err != nil {
		return ch, s.fail(err)
	}
	return ch, nil
}

func (s *Scanner) unread() error {
	if err := s.cs.Unread(); err != nil {
		return s.fail(err)
	}
	return nil
}

func (s *Scanner) here() LineCol { return LineCol{Line: s.cs.Line(), Column: s.cs.Column()} }

func (s *Scanner) fail(err error) error {
	var serr *SyntaxError
	if errors.As(err, &serr) {
		s.err = serr
		return serr
	}
	s.err = &SyntaxError{Kind: Lexical, Location: s.here(), Message: err.Error(), err: err}
	return s.err
}

func (s *Scanner) errorf(msg string, args ...any) error {
	s.err = &SyntaxError{Kind: Lexical, Location: s.here(), Message: fmt.Sprintf(msg, args...)}
	return s.err
}

func (s *Scanner) failf(msg string, args ...any) (Token, error) {
	return Token{}, s.errorf(msg, args...)
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == charstream.LineBreak
}

// isUnsafe reports whether ch terminates an unquoted string.
func isUnsafe(ch rune) bool {
	switch ch {
	case '{', '}', '[', ']', ',', ':', '/', '@', '"', '\\':
		return true
	}
	return false
}

func isControl(ch rune) bool { return (ch >= 0 && ch < ' ') || ch == 0x7f }
func isDigit(ch rune) bool   { return '0' <= ch && ch <= '9' }
func isLetter(ch rune) bool  { return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') }
