// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package charbuf_test

import (
	"testing"

	"github.com/creachadair/dson/internal/charbuf"
)

func contents(b *charbuf.Buffer) string {
	rs := make([]rune, b.Len())
	for i := range rs {
		rs[i] = b.At(i)
	}
	return string(rs)
}

func TestBuffer(t *testing.T) {
	b := charbuf.New()
	defer b.Release()

	for _, ch := range "hello, world" {
		b.Append(ch)
	}
	if got, want := contents(b), "hello, world"; got != want {
		t.Errorf("Contents: got %q, want %q", got, want)
	}

	b.Discard(7)
	if got, want := contents(b), "world"; got != want {
		t.Errorf("After discard: got %q, want %q", got, want)
	}

	b.Shift()
	if got, want := contents(b), "world"; got != want {
		t.Errorf("After shift: got %q, want %q", got, want)
	}

	b.Discard(b.Len())
	if b.Len() != 0 {
		t.Errorf("Len: got %d, want 0", b.Len())
	}
}

func TestBufferGrow(t *testing.T) {
	b := charbuf.New()
	defer b.Release()

	n := b.Cap()*3 + 5
	for i := 0; i < n; i++ {
		b.Append(rune('a' + i%26))
	}
	if b.Len() != n {
		t.Fatalf("Len: got %d, want %d", b.Len(), n)
	}
	for i := 0; i < n; i++ {
		if got, want := b.At(i), rune('a'+i%26); got != want {
			t.Fatalf("At(%d): got %q, want %q", i, got, want)
		}
	}
}

func TestBufferShiftOnAppend(t *testing.T) {
	b := charbuf.New()
	defer b.Release()

	c := b.Cap()
	for i := 0; i < c; i++ {
		b.Append('x')
	}
	b.Discard(c - 1)
	b.Append('y')
	if got := b.Cap(); got != c {
		t.Errorf("Cap: got %d, want %d (append should shift, not grow)", got, c)
	}
	if got, want := contents(b), "xy"; got != want {
		t.Errorf("Contents: got %q, want %q", got, want)
	}
}
