// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package dson

// WriterOptions control the layout of text produced by a Writer. The zero
// value is ready for use and selects the default for each setting.
type WriterOptions struct {
	// Lines are broken before a value that would start past this column,
	// where possible. Default: 120.
	SoftLineLength int `yaml:"softLineLength,omitempty"`

	// Disable text blocks for long strings.
	DisableText bool `yaml:"disableText,omitempty"`

	// Strings longer than this are written as text blocks, unless text blocks
	// are disabled. Default: 120.
	TextStringLength int `yaml:"textStringLength,omitempty"`

	// Start text blocks on a new line at column 0.
	TextAlignLeft bool `yaml:"textAlignLeft,omitempty"`

	// Escape all non-ASCII characters.
	ASCIIOnly bool `yaml:"asciiOnly,omitempty"`

	// Strings longer than this are never written unquoted. Default: 64.
	MaxLengthOfUnquoteString int `yaml:"maxLengthOfUnquoteString,omitempty"`

	// The string written between lines. Default: "\n".
	LineSeparator string `yaml:"lineSeparator,omitempty"`

	// Columns of indentation per level of nesting. Default: 2.
	IndentWidth int `yaml:"indentWidth,omitempty"`
}

func (o *WriterOptions) softLineLength() int {
	if o == nil || o.SoftLineLength <= 0 {
		return 120
	}
	return o.SoftLineLength
}

func (o *WriterOptions) textEnabled() bool { return o == nil || !o.DisableText }

func (o *WriterOptions) textStringLength() int {
	if o == nil || o.TextStringLength <= 0 {
		return 120
	}
	return o.TextStringLength
}

func (o *WriterOptions) textAlignLeft() bool { return o != nil && o.TextAlignLeft }

func (o *WriterOptions) asciiOnly() bool { return o != nil && o.ASCIIOnly }

func (o *WriterOptions) maxUnquoteLength() int {
	if o == nil || o.MaxLengthOfUnquoteString <= 0 {
		return 64
	}
	return o.MaxLengthOfUnquoteString
}

func (o *WriterOptions) lineSeparator() string {
	if o == nil || o.LineSeparator == "" {
		return "\n"
	}
	return o.LineSeparator
}

func (o *WriterOptions) indentWidth() int {
	if o == nil || o.IndentWidth <= 0 {
		return 2
	}
	return o.IndentWidth
}

// LocalIDType selects the type of an unlabeled localId value in a header.
type LocalIDType string

// Constants defining the valid LocalIDType values.
const (
	LocalIDString LocalIDType = "string"
	LocalIDInt64  LocalIDType = "int64"
)

// ReaderOptions control the behavior of a Reader. The zero value is ready for
// use and selects the default for each setting.
type ReaderOptions struct {
	// The type of an unlabeled localId value in a header. Default: string.
	LocalIDType LocalIDType `yaml:"localIdType,omitempty"`

	// Share the storage of repeated names.
	InternNames bool `yaml:"internNames,omitempty"`
}

func (o *ReaderOptions) localIDInt64() bool { return o != nil && o.LocalIDType == LocalIDInt64 }

func (o *ReaderOptions) internNames() bool { return o != nil && o.InternNames }

// An Interner is a deduplicating string table. The zero value is not usable;
// construct one with make.
type Interner map[string]string

// Intern returns a string with the contents of text, sharing storage with
// any previous string with the same contents.
func (n Interner) Intern(text string) string {
	if s, ok := n[text]; ok {
		return s
	}
	n[text] = text
	return text
}

// InternBytes is as Intern, but does not allocate when text has been seen.
func (n Interner) InternBytes(text []byte) string {
	if s, ok := n[string(text)]; ok {
		return s
	}
	s := string(text)
	n[s] = s
	return s
}
