/*
Copyright (C) 2024-2026  gidrc contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
package agas

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/jtolds/gls"
)

// Future is a one-shot asynchronous result. Incref returns one; the
// credit-split protocol's Case B attaches it to the archive's
// future-await set and resumes once it resolves.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on its own goroutine and returns a Future that resolves
// with its result. A panic inside fn is recovered and surfaced as the
// future's error instead of taking down the process - the same
// discipline memcp's storage/compute.go applies when it fans work out
// across shards with gls.Go and funnels a recovered panic into a result
// channel instead of letting it escape the goroutine.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	gls.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("agas: panic in future: %v\n%s", r, debug.Stack())
			}
			close(f.done)
		}()
		f.val, f.err = fn()
	})
	return f
}

// Ready returns a Future that has already resolved with val, nil.
func Ready[T any](val T) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val}
	close(f.done)
	return f
}

// Failed returns a Future that has already resolved with err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Await blocks until f resolves or ctx is canceled, whichever comes
// first. A canceled Await does not stop the underlying goroutine: the
// asynchronous incref this future represents must still be accounted
// for by the caller, so the future keeps running to completion in the
// background even if nobody is left waiting on it.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsReady reports whether f has resolved without blocking.
func (f *Future[T]) IsReady() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
