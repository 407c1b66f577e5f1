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
	"fmt"
)

// ProxyEngineObjectData implements EngineObjectDataAccessor over an already-fetched
// ObjectEngineResult, letting a resolver's or variable resolver's RSS read back the data its own
// child plan populated. Get blocks (via Value.Get, never by polling) until the requested field's
// cell has resolved.
type ProxyEngineObjectData struct {
	ctx context.Context
	oer *ObjectEngineResult
}

// NewProxyEngineObjectData wraps oer for RSS access under ctx.
func NewProxyEngineObjectData(ctx context.Context, oer *ObjectEngineResult) *ProxyEngineObjectData {
	return &ProxyEngineObjectData{ctx: ctx, oer: oer}
}

// Get implements EngineObjectDataAccessor. It propagates the field's own resolution error, if any.
func (p *ProxyEngineObjectData) Get(responseKey string) (interface{}, error) {
	cell, err := lookupCellByResponseKey(p.oer, responseKey)
	if err != nil {
		return nil, err
	}
	result, err := cell.RawValue.Get(p.ctx)
	if err != nil {
		return nil, err
	}
	return unwrapRSSValue(result.Value), nil
}

// CheckerProxyEngineObjectData is ProxyEngineObjectData's counterpart for checker RSS access: since
// a checker runs to decide whether a field's value is visible at all, it must be able to read RSS
// data even when that data's own checker denied it (bypassChecksDuringCompletion's rationale,
// spec.md §4.6) -- only the raw fetch outcome matters here, never the checker slot.
type CheckerProxyEngineObjectData struct {
	ctx context.Context
	oer *ObjectEngineResult
}

// NewCheckerProxyEngineObjectData wraps oer for checker RSS access under ctx.
func NewCheckerProxyEngineObjectData(ctx context.Context, oer *ObjectEngineResult) *CheckerProxyEngineObjectData {
	return &CheckerProxyEngineObjectData{ctx: ctx, oer: oer}
}

// Get implements EngineObjectDataAccessor.
func (p *CheckerProxyEngineObjectData) Get(responseKey string) (interface{}, error) {
	cell, err := lookupCellByResponseKey(p.oer, responseKey)
	if err != nil {
		return nil, err
	}
	result, err := cell.RawValue.Get(p.ctx)
	if err != nil {
		return nil, err
	}
	return unwrapRSSValue(result.Value), nil
}

func lookupCellByResponseKey(oer *ObjectEngineResult, responseKey string) (*Cell, error) {
	oer.mu.Lock()
	defer oer.mu.Unlock()
	for key, cell := range oer.cells {
		if key.ResponseKey == responseKey {
			return cell, nil
		}
	}
	return nil, fmt.Errorf("executor: RSS field %q was not resolved before being read", responseKey)
}

// unwrapRSSValue strips the ResolvedValue wrapper FieldResolver leaves in a Cell's raw slot,
// handing an RSS consumer the plain value a resolver or checker actually expects -- a leaf scalar,
// nil for a null position, or the resolver's own verbatim value for a parent-managed field. RSS
// fields are selected for the data they carry (ordinarily leaves), never for their list/object
// completion shape, so a List or Object position is passed through as-is for a caller that declared
// such a field in its RSS to handle itself.
func unwrapRSSValue(value interface{}) interface{} {
	rv, ok := value.(ResolvedValue)
	if !ok {
		return value
	}
	if rv.Null {
		return nil
	}
	if rv.Object != nil || rv.List != nil {
		return rv
	}
	return rv.Leaf
}
