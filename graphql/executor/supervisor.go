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
	"errors"

	"github.com/botobag/viaduct/concurrent"
	"golang.org/x/sync/errgroup"
)

// ErrRequestScopeCancelled is the cancellation cause a RequestSupervisor applies to its context once
// the request it governs has finished, successfully or not (spec.md §5 "RequestScopeCancellationException").
var ErrRequestScopeCancelled = errors.New("executor: request scope cancelled")

// RequestSupervisor is the task-tree root for a single request (spec.md §5): every child plan
// launch, lazy resolution and nested fetch_object runs under it. It never fails the request from a
// child task's error -- those are captured inside the Value each launch returns -- it only tracks
// the task tree so it can be cancelled and joined in one place when the request is done.
type RequestSupervisor struct {
	executor concurrent.Executor

	ctx    context.Context
	cancel context.CancelCauseFunc

	group *errgroup.Group
}

// NewRequestSupervisor creates a RequestSupervisor whose tasks run on executor and whose context is
// derived from parent.
func NewRequestSupervisor(parent context.Context, executor concurrent.Executor) *RequestSupervisor {
	ctx, cancel := context.WithCancelCause(parent)
	group, ctx := errgroup.WithContext(ctx)
	return &RequestSupervisor{
		executor: executor,
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
	}
}

// Context returns the supervisor's request-scoped context; descendants derive their own contexts
// from it so a single Cancel reaches every in-flight task.
func (s *RequestSupervisor) Context() context.Context {
	return s.ctx
}

// Launch submits fn as an async Value scheduled on the supervisor's executor and tracked for Join.
// Per spec.md §5, the task's own error (if any) is carried inside the returned Value, never
// propagated to the supervisor itself.
func Launch[T any](s *RequestSupervisor, fn func(ctx context.Context) (T, error)) Value[T] {
	v := NewAsyncValue(s.ctx, s.executor, fn)
	s.group.Go(func() error {
		_, _ = v.Get(s.ctx)
		return nil
	})
	return v
}

// Cancel marks the request scope cancelled; in-flight tasks observe ctx.Err() via their own
// context checks the next time they'd suspend.
func (s *RequestSupervisor) Cancel() {
	s.cancel(ErrRequestScopeCancelled)
}

// Join blocks until every task Launch'd under this supervisor has finished.
func (s *RequestSupervisor) Join() {
	_ = s.group.Wait()
}
