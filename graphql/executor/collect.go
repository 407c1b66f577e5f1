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
	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
	"github.com/botobag/viaduct/graphql/internal/value"
	"github.com/modern-go/concurrent"
)

// CollectCache memoizes CollectFields results keyed by the *identity* of the SelectionSetNode and
// the concrete object type it is collected against (spec.md §4.2's "CollectCache keys by selection
// set identity" note). It is shared across a whole request via Constants.CollectCache so that
// reaching the same selection set twice -- once from the operation, once again via an RSS that
// happens to overlap -- does a single merge pass.
type CollectCache struct {
	m *concurrent.Map
}

type collectCacheKey struct {
	node *SelectionSetNode
	typ  string
}

// NewCollectCache returns an empty CollectCache.
func NewCollectCache() *CollectCache {
	return &CollectCache{m: concurrent.NewMap()}
}

// CollectFields performs GraphQL field collection (the grouping, merging and conditional-execution
// pass described in spec.md §4.2) over node against concreteType, resolving FragmentSpreadSelection
// entries via plan.Fragments. The result is cached by (node, concreteType) identity.
func CollectFields(
	schema graphql.Schema,
	plan *QueryPlan,
	cache *CollectCache,
	node *SelectionSetNode,
	concreteType graphql.Object,
	vars graphql.VariableValues,
) ([]CollectedField, error) {
	key := collectCacheKey{node: node, typ: concreteType.Name()}
	if cached, ok := cache.m.Load(key); ok {
		return cached.([]CollectedField), nil
	}

	order := []string{}
	byKey := map[string]*CollectedField{}

	if err := collectInto(schema, plan, node, concreteType, vars, &order, byKey); err != nil {
		return nil, err
	}

	out := make([]CollectedField, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}

	cache.m.Store(key, out)
	return out, nil
}

func collectInto(
	schema graphql.Schema,
	plan *QueryPlan,
	node *SelectionSetNode,
	concreteType graphql.Object,
	vars graphql.VariableValues,
	order *[]string,
	byKey map[string]*CollectedField,
) error {
	for _, sel := range node.Selections {
		switch sel := sel.(type) {
		case *FieldSelection:
			directiveArgs, err := directiveArgsOf(schema, sel.AST.Directives, vars)
			if err != nil {
				return err
			}
			if sel.Constraints.Solve(directiveArgs, concreteType.Name()) == Drop {
				continue
			}

			existing, ok := byKey[sel.ResultKey]
			if !ok {
				existing = &CollectedField{
					ResponseKey:         sel.ResultKey,
					SelectionSet:        sel.SelectionSet,
					ChildPlans:          sel.ChildPlans,
					FieldTypeChildPlans: sel.FieldTypeChildPlans,
					Metadata: FieldMetadata{
						ResolverCoordinate: Coordinate{TypeName: concreteType.Name(), FieldName: sel.AST.Name.Value()},
					},
				}
				byKey[sel.ResultKey] = existing
				*order = append(*order, sel.ResultKey)
			} else if sel.SelectionSet != nil {
				// §4.2 "later merging": concatenate sub-selection-sets under the same response key and
				// let a subsequent CollectFields pass over the merged node re-run naturally.
				existing.SelectionSet = mergeSelectionSetNodes(existing.SelectionSet, sel.SelectionSet)
			}
			existing.MergedField = append(existing.MergedField, sel.AST)

		case *InlineFragmentSelection:
			directiveArgs, err := directiveArgsOf(schema, sel.Directives, vars)
			if err != nil {
				return err
			}
			if sel.Constraints.Solve(directiveArgs, concreteType.Name()) == Drop {
				continue
			}
			if err := collectInto(schema, plan, sel.SelectionSet, concreteType, vars, order, byKey); err != nil {
				return err
			}

		case *FragmentSpreadSelection:
			directiveArgs, err := directiveArgsOf(schema, sel.Directives, vars)
			if err != nil {
				return err
			}
			if sel.Constraints.Solve(directiveArgs, concreteType.Name()) == Drop {
				continue
			}
			frag, ok := plan.Fragments[sel.Name]
			if !ok {
				continue
			}
			if err := collectInto(schema, plan, frag.SelectionSet, concreteType, vars, order, byKey); err != nil {
				return err
			}
		}
	}
	return nil
}

// mergeSelectionSetNodes concatenates two selection sets' Selections into a freshly-allocated node,
// per the "concatenate sub-selection-sets" Open Question decision recorded in DESIGN.md.
func mergeSelectionSetNodes(a, b *SelectionSetNode) *SelectionSetNode {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	merged := make([]Selection, 0, len(a.Selections)+len(b.Selections))
	merged = append(merged, a.Selections...)
	merged = append(merged, b.Selections...)
	return &SelectionSetNode{Selections: merged}
}

// directiveArgsOf evaluates every directive attached to an AST node into the per-directive
// ArgumentValues map that Constraints.Solve expects, consulting the schema for each directive's
// argument definitions (so default values and variable references are honored).
func directiveArgsOf(schema graphql.Schema, directives ast.Directives, vars graphql.VariableValues) (map[string]graphql.ArgumentValues, error) {
	if len(directives) == 0 {
		return nil, nil
	}
	out := make(map[string]graphql.ArgumentValues, len(directives))
	for _, d := range directives {
		name := d.Name.Value()
		def := schema.Directives().Lookup(name)
		if def == nil {
			continue
		}
		args, err := value.DirectiveValues(def, directives, vars)
		if err != nil {
			return nil, err
		}
		out[name] = args
	}
	return out, nil
}

