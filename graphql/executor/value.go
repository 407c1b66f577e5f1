/**
 * Copyright (c) 2019, The Artemis Authors.
 *
 * Permission to use, copy, modify, and/or distribute this software for any
 * purpose with or without fee is hereby granted, provided that the above
 * copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES
 * WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF
 * MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR
 * ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES
 * WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN
 * ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF
 * OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package executor

import (
	"context"
	"sync"

	"github.com/botobag/viaduct/concurrent"
)

// valueState tags which of the three cases a Value currently holds.
//
// This is the engine's tagged-union counterpart to concurrent/future.Future: rather than a
// poll(waker)-driven state machine, a Value resolves by closing a channel exactly once. Per-field
// combinator chains run far more often than a socket-style future ever would in this codebase, and
// a channel close is a cheaper, more idiomatic way to broadcast "done" to however many goroutines
// are waiting than registering/re-registering a Waker on every Poll.
type valueState uint8

const (
	valueSync valueState = iota
	valueSyncError
	valueAsync
)

// asyncHandle is the pending-computation half of an Async Value. It is shared by every Value that
// was produced from the same NewAsyncValue call (e.g. after Map/Recover), so the underlying work
// runs exactly once no matter how many combinators are chained off it.
type asyncHandle[T any] struct {
	done   chan struct{}
	result T
	err    error
	task   concurrent.TaskHandle
}

// Value represents an engine-internal result that may already be available (Sync), may have
// already failed (SyncError), or may still be in flight (Async). See SPEC_FULL.md's DOMAIN STACK
// and DESIGN.md for why this is channel-backed rather than poll-backed.
//
// The zero Value[T] is not valid; always construct one with Sync, Err or NewAsyncValue.
type Value[T any] struct {
	state valueState
	v     T
	err   error
	async *asyncHandle[T]
}

// Sync wraps an already-available value.
func Sync[T any](v T) Value[T] {
	return Value[T]{state: valueSync, v: v}
}

// Err wraps an already-known error.
func Err[T any](err error) Value[T] {
	if err == nil {
		panic("executor.Err: nil error")
	}
	return Value[T]{state: valueSyncError, err: err}
}

// NewAsyncValue launches fn on the given executor and returns a Value that resolves once fn
// returns. The work is submitted through concurrent.Executor (concurrent/executor.go), the same
// scheduling primitive the teacher's future.Future implementations run on; only the
// result-propagation shape (channel close vs. poll+waker) differs. ctx is what fn actually observes
// for cancellation; callers pass the request's own cancellable context (not context.Background())
// so that cancelling the request interrupts work already in flight.
func NewAsyncValue[T any](ctx context.Context, ex concurrent.Executor, fn func(ctx context.Context) (T, error)) Value[T] {
	h := &asyncHandle[T]{done: make(chan struct{})}

	handle, err := ex.Submit(concurrent.TaskFunc(func() (interface{}, error) {
		v, ferr := fn(ctx)
		h.result = v
		h.err = ferr
		close(h.done)
		return v, ferr
	}))
	if err != nil {
		return Err[T](err)
	}
	h.task = handle

	return Value[T]{state: valueAsync, async: h}
}

// IsSync reports whether the Value already completed, successfully or not, without needing to
// suspend the caller.
func (v Value[T]) IsSync() bool {
	return v.state != valueAsync
}

// Cancel propagates cancellation to the underlying async handle, if any. It is a no-op for
// already-completed Values.
func (v Value[T]) Cancel() error {
	if v.state == valueAsync && v.async.task != nil {
		return v.async.task.Cancel()
	}
	return nil
}

// Get blocks the caller until the Value resolves (or ctx is done) and returns its outcome. Get is
// the only place a Value may legitimately block; every combinator below is defined in terms of it
// so that "Async" never leaks past a suspension point as anything but a channel wait.
func (v Value[T]) Get(ctx context.Context) (T, error) {
	switch v.state {
	case valueSync:
		return v.v, nil
	case valueSyncError:
		var zero T
		return zero, v.err
	default:
		select {
		case <-v.async.done:
			return v.async.result, v.async.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Done returns a channel that is closed once the Value has resolved. Sync and SyncError Values
// return an already-closed channel so callers can uniformly `select` on it; this is how
// FieldCompleter waits on an OER cell without polling (Testable Property "Completion does not
// busy-wait").
func (v Value[T]) Done() <-chan struct{} {
	if v.state == valueAsync {
		return v.async.done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Map transforms a successful Value's payload; it short-circuits (preserving the original error)
// on SyncError or on an Async value that resolves with an error.
func Map[T, U any](v Value[T], f func(T) (U, error)) Value[U] {
	switch v.state {
	case valueSync:
		u, err := f(v.v)
		if err != nil {
			return Err[U](err)
		}
		return Sync(u)
	case valueSyncError:
		return Err[U](v.err)
	default:
		return mapAsync(v, f)
	}
}

func mapAsync[T, U any](v Value[T], f func(T) (U, error)) Value[U] {
	out := &asyncHandle[U]{done: make(chan struct{})}
	go func() {
		<-v.async.done
		if v.async.err != nil {
			out.err = v.async.err
		} else {
			out.result, out.err = f(v.async.result)
		}
		close(out.done)
	}()
	return Value[U]{state: valueAsync, async: out}
}

// FlatMap is Map for callbacks that themselves return a Value, collapsing the nesting.
func FlatMap[T, U any](v Value[T], f func(T) Value[U]) Value[U] {
	switch v.state {
	case valueSync:
		return f(v.v)
	case valueSyncError:
		return Err[U](v.err)
	default:
		out := &asyncHandle[U]{done: make(chan struct{})}
		go func() {
			<-v.async.done
			if v.async.err != nil {
				out.err = v.async.err
				close(out.done)
				return
			}
			inner := f(v.async.result)
			u, err := inner.Get(context.Background())
			out.result, out.err = u, err
			close(out.done)
		}()
		return Value[U]{state: valueAsync, async: out}
	}
}

// Recover converts an error outcome into any other Value[T]; it is not invoked for a successful
// Value.
func (v Value[T]) Recover(f func(error) Value[T]) Value[T] {
	switch v.state {
	case valueSync:
		return v
	case valueSyncError:
		return f(v.err)
	default:
		out := &asyncHandle[T]{done: make(chan struct{})}
		go func() {
			<-v.async.done
			if v.async.err == nil {
				out.result, out.err = v.async.result, nil
				close(out.done)
				return
			}
			recovered := f(v.async.err)
			out.result, out.err = recovered.Get(context.Background())
			close(out.done)
		}()
		return Value[T]{state: valueAsync, async: out}
	}
}

// ThenApply always invokes f, with either (value, nil) or (zero, err); unlike Map/FlatMap it is
// never skipped on error, matching the spec's "callbacks may not be skipped" contract.
func ThenApply[T, U any](v Value[T], f func(T, error) (U, error)) Value[U] {
	switch v.state {
	case valueSync:
		u, err := f(v.v, nil)
		if err != nil {
			return Err[U](err)
		}
		return Sync(u)
	case valueSyncError:
		var zero T
		u, err := f(zero, v.err)
		if err != nil {
			return Err[U](err)
		}
		return Sync(u)
	default:
		out := &asyncHandle[U]{done: make(chan struct{})}
		go func() {
			<-v.async.done
			u, err := f(v.async.result, v.async.err)
			out.result, out.err = u, err
			close(out.done)
		}()
		return Value[U]{state: valueAsync, async: out}
	}
}

// ThenCompose is ThenApply for a callback that returns a Value.
func ThenCompose[T, U any](v Value[T], f func(T, error) Value[U]) Value[U] {
	switch v.state {
	case valueSync:
		return f(v.v, nil)
	case valueSyncError:
		var zero T
		return f(zero, v.err)
	default:
		out := &asyncHandle[U]{done: make(chan struct{})}
		go func() {
			<-v.async.done
			inner := f(v.async.result, v.async.err)
			u, err := inner.Get(context.Background())
			out.result, out.err = u, err
			close(out.done)
		}()
		return Value[U]{state: valueAsync, async: out}
	}
}

// WaitAll joins a slice of homogeneous Values into one Value of their results in order. It biases
// toward returning Sync when every input already is: only genuinely pending inputs spawn a
// goroutine.
func WaitAll[T any](values []Value[T]) Value[[]T] {
	results := make([]T, len(values))

	pendingIdx := make([]int, 0, len(values))
	for i, v := range values {
		switch v.state {
		case valueSync:
			results[i] = v.v
		case valueSyncError:
			return Err[[]T](v.err)
		default:
			pendingIdx = append(pendingIdx, i)
		}
	}

	if len(pendingIdx) == 0 {
		return Sync(results)
	}

	out := &asyncHandle[[]T]{done: make(chan struct{})}
	go func() {
		var (
			mu       sync.Mutex
			firstErr error
		)
		var wg sync.WaitGroup
		wg.Add(len(pendingIdx))
		for _, idx := range pendingIdx {
			idx := idx
			go func() {
				defer wg.Done()
				v, err := values[idx].Get(context.Background())
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
				results[idx] = v
			}()
		}
		wg.Wait()
		out.result, out.err = results, firstErr
		close(out.done)
	}()
	return Value[[]T]{state: valueAsync, async: out}
}
