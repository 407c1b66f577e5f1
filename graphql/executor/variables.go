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

	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/internal/value"
)

// VariablesResolveContext is threaded through a VariableResolver.Resolve call: the already-resolved
// values of any variables this one depends on, plus RSS-backed engine data when the resolver
// declared a RequiredSelectionSet.
type VariablesResolveContext struct {
	Ctx context.Context

	// Resolved holds the raw (pre-coercion) values of every variable resolved earlier in the fold,
	// keyed by name.
	Resolved map[string]interface{}

	// ObjectData is the current-object-typed RSS data, nil when the resolver declared no RSS or its
	// RSS is evaluated against the query root only.
	ObjectData EngineObjectDataAccessor

	// QueryData is the query-root-typed RSS data, nil when the resolver's RSS targets the current
	// object instead.
	QueryData EngineObjectDataAccessor

	GqlContext interface{}
	Locale     string
}

// VariablesResolver resolves a QueryPlan's declared VariableResolvers (spec.md §4.5), folding them
// left-to-right over raw is the externally-supplied (uncoerced) variable input, then runs schema
// input coercion once over the combined map.
//
// No dispatcher registry method currently surfaces custom variable resolvers (DispatcherRegistry,
// dispatcher.go, only exposes field/type/node resolution), so QueryPlan.VariableResolvers is always
// empty in this revision; the fold below still runs -- at zero cost -- so that a future registry
// extension point has somewhere to plug in without changing this function's contract.
func ResolveVariables(
	ctx context.Context,
	schema graphql.Schema,
	plan *QueryPlan,
	raw map[string]interface{},
	gqlContext interface{},
	locale string,
) (graphql.VariableValues, error) {
	merged := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		merged[k] = v
	}

	for _, resolver := range plan.VariableResolvers {
		vctx := &VariablesResolveContext{
			Ctx:        ctx,
			Resolved:   merged,
			GqlContext: gqlContext,
			Locale:     locale,
		}
		v, err := resolver.Resolve(vctx)
		if err != nil {
			return graphql.NoVariableValues(), fmt.Errorf("executor: resolving variable %q: %w", resolver.Name, err)
		}
		merged[resolver.Name] = v
	}

	coerced, errs := value.CoerceVariableValues(schema, plan.VariableDefinitions, merged)
	if errs.HaveOccurred() {
		return graphql.NoVariableValues(), errs.Errors[0]
	}
	return coerced, nil
}
