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

	"github.com/botobag/viaduct/graphql"
)

// AccessCheckRunner runs field and type checkers and combines their verdicts, per spec.md §4.3.
type AccessCheckRunner struct{}

// FieldCheck runs the field checker registered for (objectType, field), if any. dfe exposes the
// field's own RSS data to the checker.
func (AccessCheckRunner) FieldCheck(
	ctx context.Context,
	registry DispatcherRegistry,
	objectType graphql.Object,
	field graphql.Field,
	arguments graphql.ArgumentValues,
	dfe EngineObjectDataAccessor,
	gqlContext interface{},
) Value[*CheckerResult] {
	dispatcher := registry.GetFieldCheckerDispatcher(objectType, field)
	if dispatcher == nil {
		return Sync[*CheckerResult](nil)
	}
	return dispatcher.Check(ctx, arguments, dfe, gqlContext)
}

// TypeCheck runs the type checker registered for concreteType against an already-resolved object
// value, exposed to the checker via dfe.
func (AccessCheckRunner) TypeCheck(
	ctx context.Context,
	registry DispatcherRegistry,
	concreteType graphql.Object,
	arguments graphql.ArgumentValues,
	dfe EngineObjectDataAccessor,
	gqlContext interface{},
) Value[*CheckerResult] {
	dispatcher := registry.GetTypeCheckerDispatcher(concreteType)
	if dispatcher == nil {
		return Sync[*CheckerResult](nil)
	}
	return dispatcher.Check(ctx, arguments, dfe, gqlContext)
}

// CombineWithTypeCheck folds a field checker's verdict with any applicable type checker verdict for
// the field's resolved (possibly abstract, now-concrete) output type. Policy per spec.md §4.3: if
// either denies, the combined result denies and the first denial wins.
func (r AccessCheckRunner) CombineWithTypeCheck(
	ctx context.Context,
	registry DispatcherRegistry,
	fieldCheckerResult Value[*CheckerResult],
	concreteObjectType graphql.Object,
	arguments graphql.ArgumentValues,
	dfe EngineObjectDataAccessor,
	gqlContext interface{},
) Value[*CheckerResult] {
	if concreteObjectType == nil {
		return fieldCheckerResult
	}

	typeCheckerResult := r.TypeCheck(ctx, registry, concreteObjectType, arguments, dfe, gqlContext)

	return FlatMap(fieldCheckerResult, func(field *CheckerResult) Value[*CheckerResult] {
		return Map(typeCheckerResult, func(typ *CheckerResult) (*CheckerResult, error) {
			return combineCheckerResults(field, typ), nil
		})
	})
}

// combineCheckerResults implements the "first denial wins" merge policy.
func combineCheckerResults(results ...*CheckerResult) *CheckerResult {
	for _, r := range results {
		if r.Denies() {
			return r
		}
	}
	for _, r := range results {
		if r != nil {
			return r
		}
	}
	return nil
}
