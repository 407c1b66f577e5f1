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
)

// ObjectEngineResultKey identifies one Cell within an ObjectEngineResult: a response key together
// with the coerced argument values that produced it (two selections with the same field name but
// different arguments -- possible via aliasing -- get distinct Cells).
type ObjectEngineResultKey struct {
	ResponseKey string
	ArgsDigest  string
}

// ObjectEngineResult (OER) is the per-resolved-object memoization table described in spec.md §3: a
// map from ObjectEngineResultKey to Cell, built lazily and populated at most once per key no matter
// how many selections (direct, RSS-driven, or checker-driven) reach the same field.
type ObjectEngineResult struct {
	mu    sync.Mutex
	cells map[ObjectEngineResultKey]*Cell
}

// NewObjectEngineResult allocates an empty OER for one resolved object.
func NewObjectEngineResult() *ObjectEngineResult {
	return &ObjectEngineResult{cells: map[ObjectEngineResultKey]*Cell{}}
}

// ComputeIfAbsent returns the existing Cell for key, or calls build exactly once to create it. The
// at-most-once guarantee holds across concurrent callers: the second caller to race into
// ComputeIfAbsent for the same key blocks on the mutex and observes the first caller's Cell, never
// invoking build itself. build must not call back into ComputeIfAbsent on the same OER (it would
// deadlock); nested field resolution that needs another key registers its own async Value instead
// of blocking here.
func (oer *ObjectEngineResult) ComputeIfAbsent(key ObjectEngineResultKey, build func() *Cell) *Cell {
	oer.mu.Lock()
	defer oer.mu.Unlock()

	if cell, ok := oer.cells[key]; ok {
		return cell
	}
	cell := build()
	oer.cells[key] = cell
	return cell
}

// Peek returns the Cell for key if it has already been created, without creating one.
func (oer *ObjectEngineResult) Peek(key ObjectEngineResultKey) (*Cell, bool) {
	oer.mu.Lock()
	defer oer.mu.Unlock()
	cell, ok := oer.cells[key]
	return cell, ok
}

// FieldResolutionState is a Value that resolves once every Cell currently registered on oer has
// produced a raw value, successfully or not (spec.md §3's "field_resolution_state"). It lets a
// caller wait for "this object's direct fields are all in" without polling: the Value is built from
// Cell.RawValue.Done() channels via WaitAll, so the wait is a select, never a poll loop. Cells added
// to oer after this snapshot is taken are not included; callers that need every field (e.g.
// FieldCompleter) instead wait on each CollectedField's own Cell as they walk the selection, which
// is always complete for the keys that selection can name.
func (oer *ObjectEngineResult) FieldResolutionState() Value[struct{}] {
	oer.mu.Lock()
	cells := make([]*Cell, 0, len(oer.cells))
	for _, c := range oer.cells {
		cells = append(cells, c)
	}
	oer.mu.Unlock()

	raws := make([]Value[FieldResolutionResult], len(cells))
	for i, c := range cells {
		raws[i] = c.RawValue
	}
	return Map(WaitAll(raws), func([]FieldResolutionResult) (struct{}, error) { return struct{}{}, nil })
}

// LazyEngineObjectData wraps an OER that may itself still be in flight -- e.g. the object being
// descended into is the result of an async field resolution -- so that dependents (an RSS proxy, a
// child plan) can register for "object is ready" without the resolver that's producing it having to
// block. It has no direct teacher analogue: the teacher's single-pass ResultNode tree never needed
// to expose a not-yet-resolved object to a second, concurrent consumer of the same field.
type LazyEngineObjectData struct {
	ready Value[*ObjectEngineResult]
}

// NewLazyEngineObjectData wraps an already-resolved OER.
func NewLazyEngineObjectData(oer *ObjectEngineResult) *LazyEngineObjectData {
	return &LazyEngineObjectData{ready: Sync(oer)}
}

// NewPendingLazyEngineObjectData wraps a Value that will eventually produce the OER (e.g. the tail
// of an async FetchObject call).
func NewPendingLazyEngineObjectData(v Value[*ObjectEngineResult]) *LazyEngineObjectData {
	return &LazyEngineObjectData{ready: v}
}

// Get blocks (without polling; see Value.Done) until the underlying object has been fetched and
// returns its OER.
func (l *LazyEngineObjectData) Get(ctx context.Context) (*ObjectEngineResult, error) {
	return l.ready.Get(ctx)
}
