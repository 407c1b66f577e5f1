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

import "github.com/botobag/viaduct/graphql"

// FieldResolutionResult is what a Cell's raw slot resolves to: the fetched (uncompleted) value for
// one field, paired with the concrete object type it should be completed against when the field's
// own type is abstract or the field is itself an object (nil otherwise).
type FieldResolutionResult struct {
	Value interface{}

	// ResolvedType is set when the field's static type is abstract and a TypeResolver has already
	// determined the concrete type; FieldCompleter uses it instead of invoking the resolver again.
	ResolvedType graphql.Object
}

// Cell is the two-slot memoization unit backing ObjectEngineResult, per spec.md §3. RawValue holds
// the field-resolver pipeline's outcome; CheckerValue holds the outcome of whichever field or type
// checker gated this field (nil Value if no checker applies). Both slots are Value[T], so a reader
// blocks on Cell.RawValue.Get/CheckerValue.Get exactly the way it would block on any other Value --
// there is no separate cell-specific wait primitive.
type Cell struct {
	RawValue     Value[FieldResolutionResult]
	CheckerValue Value[*CheckerResult]

	// HasChecker reports whether CheckerValue carries a meaningful result. FieldResolver sets it on
	// every Cell it builds; for a field with no checker, CheckerValue resolves to a nil
	// *CheckerResult.
	HasChecker bool

	// overall backs FieldDispatch.Overall (field_resolver.go): it resolves once RawValue is ready AND
	// any nested fetch_object/lazy-data resolution launched for this field has also finished. It is
	// set exactly once, by whichever ComputeIfAbsent caller builds the Cell.
	overall    Value[struct{}]
	hasOverall bool
}

// SetOverall records the Value that tracks this Cell's nested/lazy work, if any. It must be called
// at most once, by the same build closure that constructs the Cell inside ComputeIfAbsent.
func (c *Cell) SetOverall(v Value[struct{}]) {
	c.overall = v
	c.hasOverall = true
}

// Overall returns the Value tracking this Cell's full resolution -- RawValue plus whatever nested
// object traversal or lazy resolution it spawned. Cells with no nested work (leaves, fields that
// failed before producing an engine_result) fall back to RawValue's own completion.
func (c *Cell) Overall() Value[struct{}] {
	if c.hasOverall {
		return c.overall
	}
	return Map(c.RawValue, func(FieldResolutionResult) (struct{}, error) { return struct{}{}, nil })
}
