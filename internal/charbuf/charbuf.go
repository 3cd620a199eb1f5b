// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package charbuf implements a growable window of runes with separate read
// and write indexes.
package charbuf

import "github.com/creachadair/dson/internal/pool"

// A Buffer is a window of runes. Runes in the half-open interval [R, W) of the
// underlying array are live; index i of the window refers to array slot R+i.
//
// A Buffer holds a slice leased from pool.Runes until Release is called.
type Buffer struct {
	lease *[]rune
	buf   []rune
	r, w  int
}

// New constructs an empty buffer backed by a pooled array.
func New() *Buffer {
	lease := pool.Runes.Get()
	return &Buffer{lease: lease, buf: *lease}
}

// Len reports the number of live runes in the window.
func (b *Buffer) Len() int { return b.w - b.r }

// Cap reports the capacity of the underlying array.
func (b *Buffer) Cap() int { return len(b.buf) }

// At returns the rune at offset i of the window.
func (b *Buffer) At(i int) rune { return b.buf[b.r+i] }

// Append adds ch to the end of the window, shifting or growing as needed.
func (b *Buffer) Append(ch rune) {
	if b.w == len(b.buf) {
		if b.r > 0 {
			b.Shift()
		} else {
			b.Grow(len(b.buf))
		}
	}
	b.buf[b.w] = ch
	b.w++
}

// Discard drops the first n runes of the window.
// It panics if n exceeds the length of the window.
func (b *Buffer) Discard(n int) {
	if n < 0 || n > b.Len() {
		panic("charbuf: discard out of range")
	}
	b.r += n
	if b.r == b.w {
		b.r, b.w = 0, 0
	}
}

// Shift moves the live window to the start of the underlying array.
func (b *Buffer) Shift() {
	if b.r == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.r:b.w])
	b.r, b.w = 0, n
}

// Grow ensures there is room for at least n more runes after the window.
func (b *Buffer) Grow(n int) {
	if len(b.buf)-b.w >= n {
		return
	}
	b.Shift()
	if len(b.buf)-b.w >= n {
		return
	}
	nb := make([]rune, 2*len(b.buf)+n)
	copy(nb, b.buf[:b.w])
	b.buf = nb
}

// Reset empties the window without releasing its storage.
func (b *Buffer) Reset() { b.r, b.w = 0, 0 }

// Release returns the storage of b to the pool. After Release, b is empty and
// must not be used again.
func (b *Buffer) Release() {
	if b.lease == nil {
		return
	}
	*b.lease = b.buf[:cap(b.buf)]
	pool.Runes.Put(b.lease)
	b.lease, b.buf = nil, nil
	b.r, b.w = 0, 0
}
