// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package pool provides process-wide pools of scratch buffers shared by the
// character streams, scanners, and writers of a Dson codec.
//
// A buffer is acquired with Get and must be returned exactly once with Put.
// The pools are safe for concurrent use, but a buffer on lease belongs to its
// holder alone.
package pool

import (
	"sync"

	"go.uber.org/atomic"
)

// A Pool is a typed wrapper around a sync.Pool that counts outstanding leases.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T) T
	live  atomic.Int64
	total atomic.Int64
}

// New constructs a pool whose fresh values are made by newf. If reset != nil,
// it is applied to each value returned by Put before it is recycled.
func New[T any](newf func() T, reset func(T) T) *Pool[T] {
	return &Pool[T]{pool: sync.Pool{New: func() any { return newf() }}, reset: reset}
}

// Get acquires a value from p.
func (p *Pool[T]) Get() T {
	p.live.Inc()
	p.total.Inc()
	return p.pool.Get().(T)
}

// Put returns v to p. The caller must not use v after Put returns.
func (p *Pool[T]) Put(v T) {
	if p.live.Dec() < 0 {
		panic("pool: Put without a matching Get")
	}
	if p.reset != nil {
		v = p.reset(v)
	}
	p.pool.Put(v)
}

// Live reports the number of values currently on lease from p.
func (p *Pool[T]) Live() int64 { return p.live.Load() }

// Total reports the number of values ever acquired from p.
func (p *Pool[T]) Total() int64 { return p.total.Load() }

const (
	runeBufSize = 1024
	byteBufSize = 4096

	// Buffers grown beyond this size are dropped rather than recycled, so one
	// huge input does not pin memory for the life of the process.
	maxRetain = 1 << 16
)

// Runes is the pool of rune slices used as character windows.
var Runes = New(func() *[]rune {
	b := make([]rune, runeBufSize)
	return &b
}, func(b *[]rune) *[]rune {
	if cap(*b) > maxRetain {
		*b = make([]rune, runeBufSize)
	}
	return b
})

// Bytes is the pool of byte slices used for token and output assembly.
var Bytes = New(func() *[]byte {
	b := make([]byte, 0, byteBufSize)
	return &b
}, func(b *[]byte) *[]byte {
	if cap(*b) > maxRetain {
		*b = make([]byte, 0, byteBufSize)
	}
	*b = (*b)[:0]
	return b
})
