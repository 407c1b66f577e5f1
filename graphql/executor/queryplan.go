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
	"fmt"

	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
)

// VariableResolver resolves one query variable's value, optionally depending on its own RSS.
type VariableResolver struct {
	Name string

	// RequiredSelectionSet is non-nil when this resolver needs data fetched via a child plan before
	// it can run (§4.5).
	RequiredSelectionSet *RequiredSelectionSet

	// Resolve computes the raw (pre-coercion) value. ctx.Resolved holds the values of any variables this
	// resolver itself depends on (already resolved, possibly via a nested VariableResolver).
	Resolve func(ctx *VariablesResolveContext) (interface{}, error)
}

// FragmentInfo is a fragment's already-expanded selection set plus its originating AST definition,
// memoized once per QueryPlan per spec.md §4.1 step 4.
type FragmentInfo struct {
	SelectionSet *SelectionSetNode
	ASTDef       *ast.FragmentDefinition
}

// QueryPlan is an immutable, cacheable execution plan: a merged selection set together with
// everything needed to resolve it without consulting the AST or schema again.
type QueryPlan struct {
	SelectionSet *SelectionSetNode

	Fragments map[string]FragmentInfo

	VariableDefinitions []*ast.VariableDefinition
	VariableResolvers   []*VariableResolver

	ParentType graphql.Type // Object, Interface or Union

	// ChildPlans must be fully resolved before any field in SelectionSet is resolved (built from RSS
	// and variable-resolver RSS at every coordinate reachable from this plan).
	ChildPlans []*ChildPlan

	ExecutionCondition func(vars graphql.VariableValues) bool

	Attribution string
}

// planBuilder carries the state threaded through one QueryPlan.build recursion: the schema,
// dispatcher registry, and the SeenRSS identity set used to break RSS cycles (spec.md §9).
type planBuilder struct {
	schema               graphql.Schema
	registry             DispatcherRegistry
	executeChecksInPlan  bool
	seenRSS              map[*RequiredSelectionSet]bool
}

// BuildQueryPlan constructs a QueryPlan for operation's selection set against parentType. It is the
// uncached entry point; PlanCache.GetOrBuild (plancache.go) is the one callers should normally use.
func BuildQueryPlan(
	schema graphql.Schema,
	registry DispatcherRegistry,
	parentType graphql.Type,
	selectionSet ast.SelectionSet,
	fragmentDefs map[string]*ast.FragmentDefinition,
	executeAccessChecksInModstrat bool,
	attribution string,
) (*QueryPlan, error) {
	b := &planBuilder{
		schema:              schema,
		registry:            registry,
		executeChecksInPlan: executeAccessChecksInModstrat,
		seenRSS:             map[*RequiredSelectionSet]bool{},
	}

	var childPlans []*ChildPlan
	node, err := b.buildSelectionSet(parentType, selectionSet, fragmentDefs, &childPlans)
	if err != nil {
		return nil, err
	}

	fragments := map[string]FragmentInfo{}
	if err := b.collectFragments(selectionSet, fragmentDefs, fragments, &childPlans); err != nil {
		return nil, err
	}

	return &QueryPlan{
		SelectionSet:       node,
		Fragments:          fragments,
		ChildPlans:         childPlans,
		ParentType:         parentType,
		ExecutionCondition: Always,
		Attribution:        attribution,
	}, nil
}

func (b *planBuilder) collectFragments(
	set ast.SelectionSet,
	fragmentDefs map[string]*ast.FragmentDefinition,
	out map[string]FragmentInfo,
	childPlans *[]*ChildPlan,
) error {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.FragmentSpread:
			name := sel.Name.Value()
			if _, ok := out[name]; ok {
				continue
			}
			def, ok := fragmentDefs[name]
			if !ok {
				return fmt.Errorf("queryplan: unknown fragment %q", name)
			}
			parentType := namedTypeOf(b.schema, def.TypeCondition)
			node, err := b.buildSelectionSet(parentType, def.SelectionSet, fragmentDefs, childPlans)
			if err != nil {
				return err
			}
			out[name] = FragmentInfo{SelectionSet: node, ASTDef: def}
			if err := b.collectFragments(def.SelectionSet, fragmentDefs, out, childPlans); err != nil {
				return err
			}

		case *ast.InlineFragment:
			if err := b.collectFragments(sel.SelectionSet, fragmentDefs, out, childPlans); err != nil {
				return err
			}

		case *ast.Field:
			if err := b.collectFragments(sel.SelectionSet, fragmentDefs, out, childPlans); err != nil {
				return err
			}
		}
	}
	return nil
}

// buildSelectionSet implements spec.md §4.1 step 2-4: walk the AST, narrow constraints, look up
// RSS's and build child plans for them, and recurse.
func (b *planBuilder) buildSelectionSet(
	parentType graphql.Type,
	set ast.SelectionSet,
	fragmentDefs map[string]*ast.FragmentDefinition,
	childPlans *[]*ChildPlan,
) (*SelectionSetNode, error) {
	node := &SelectionSetNode{}

	possible := possibleObjectTypes(b.schema, parentType)

	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			fieldConstraints := AlwaysConstraints().WithDirectives(sel.Directives).Narrow(possible)

			resultKey := sel.Name.Value()
			if sel.Alias.Token != nil {
				resultKey = sel.Alias.Value()
			}

			var subSet *SelectionSetNode
			fieldDef := lookupField(parentType, sel.Name.Value())

			var fieldChildPlans []*ChildPlan
			fieldTypeChildPlans := map[string]func() *QueryPlan{}

			if fieldDef != nil {
				if err := b.addFieldRSS(parentType, fieldDef, sel, &fieldChildPlans); err != nil {
					return nil, err
				}
				b.addFieldTypeChildPlans(fieldDef, sel, fragmentDefs, fieldTypeChildPlans)

				if len(sel.SelectionSet) > 0 {
					fieldResultType := unwrapForSelection(fieldDef.Type())
					s, err := b.buildSelectionSet(fieldResultType, sel.SelectionSet, fragmentDefs, childPlans)
					if err != nil {
						return nil, err
					}
					subSet = s
				}
			}

			*childPlans = append(*childPlans, fieldChildPlans...)

			node.Selections = append(node.Selections, &FieldSelection{
				ResultKey:           resultKey,
				Constraints:         fieldConstraints,
				AST:                 sel,
				SelectionSet:        subSet,
				ChildPlans:          fieldChildPlans,
				FieldTypeChildPlans: fieldTypeChildPlans,
			})

		case *ast.InlineFragment:
			constraints := AlwaysConstraints().WithDirectives(sel.Directives)
			fragParentType := parentType
			if sel.HasTypeCondition() {
				fragParentType = namedTypeOf(b.schema, sel.TypeCondition)
				constraints = constraints.Narrow(possibleObjectTypes(b.schema, fragParentType))
			}
			subSet, err := b.buildSelectionSet(fragParentType, sel.SelectionSet, fragmentDefs, childPlans)
			if err != nil {
				return nil, err
			}
			node.Selections = append(node.Selections, &InlineFragmentSelection{
				SelectionSet: subSet,
				Constraints:  constraints,
				Directives:   sel.Directives,
			})

		case *ast.FragmentSpread:
			node.Selections = append(node.Selections, &FragmentSpreadSelection{
				Name:        sel.Name.Value(),
				Constraints: AlwaysConstraints().WithDirectives(sel.Directives),
				Directives:  sel.Directives,
			})
		}
	}

	return node, nil
}

// addFieldRSS looks up the resolver RSS and the checker RSS (when execute_access_checks_in_modstrat
// requests it even absent a resolver RSS) of a field whose parent type is an Object, building one
// child QueryPlan per distinct RSS, guarded by SeenRSS to break cycles. A field selected on an
// interface or union parent type gets no RSS child plans.
func (b *planBuilder) addFieldRSS(
	parentType graphql.Type,
	fieldDef graphql.Field,
	astField *ast.Field,
	out *[]*ChildPlan,
) error {
	objType, isObject := parentType.(graphql.Object)
	if !isObject {
		return nil
	}

	for _, rss := range b.registry.GetFieldResolverRequiredSelectionSets(objType, fieldDef) {
		if err := b.appendRSSChildPlan(rss, false, out); err != nil {
			return err
		}
	}

	if b.executeChecksInPlan {
		for _, rss := range b.registry.GetFieldCheckerRequiredSelectionSets(objType, fieldDef, true) {
			if err := b.appendRSSChildPlan(rss, true, out); err != nil {
				return err
			}
		}
	}

	return nil
}

func (b *planBuilder) appendRSSChildPlan(rss *RequiredSelectionSet, forChecker bool, out *[]*ChildPlan) error {
	if rss == nil {
		return nil
	}
	if b.seenRSS[rss] {
		// Already expanded on this path; the resolver still runs once, its RSS is not re-planned.
		return nil
	}
	b.seenRSS[rss] = true

	selSet, ok := rss.Selections.(ast.SelectionSet)
	if !ok {
		return fmt.Errorf("queryplan: RSS selections must be an ast.SelectionSet")
	}

	plan, err := BuildQueryPlan(b.schema, b.registry, rss.Type, selSet, map[string]*ast.FragmentDefinition{},
		b.executeChecksInPlan, "rss:"+rss.Source)
	if err != nil {
		return err
	}

	*out = append(*out, &ChildPlan{
		Plan:               plan,
		ExecutionCondition:  Always,
		ForChecker:          forChecker,
	})
	return nil
}

// addFieldTypeChildPlans registers, per possible concrete field-result type, a lazily-built child
// plan backing that type's checker RSS (spec.md §4.1 step 2, §9 "deferred" decision).
func (b *planBuilder) addFieldTypeChildPlans(
	fieldDef graphql.Field,
	astField *ast.Field,
	fragmentDefs map[string]*ast.FragmentDefinition,
	out map[string]func() *QueryPlan,
) {
	resultType := unwrapForSelection(fieldDef.Type())
	for _, concrete := range possibleObjectTypes(b.schema, resultType) {
		concrete := concrete
		rssList := b.registry.GetTypeCheckerRequiredSelectionSets(concrete, b.executeChecksInPlan)
		if len(rssList) == 0 {
			continue
		}
		out[concrete.Name()] = func() *QueryPlan {
			var childPlans []*ChildPlan
			for _, rss := range rssList {
				_ = b.appendRSSChildPlan(rss, true, &childPlans)
			}
			if len(childPlans) == 0 {
				return nil
			}
			return childPlans[0].Plan
		}
	}
}

// possibleObjectTypes returns the concrete object types a given composite type could narrow to:
// itself for an Object, or schema.PossibleTypes for an abstract type.
func possibleObjectTypes(schema graphql.Schema, t graphql.Type) []graphql.Object {
	switch t := t.(type) {
	case graphql.Object:
		return []graphql.Object{t}
	case graphql.AbstractType:
		set := schema.PossibleTypes(t)
		var result []graphql.Object
		// PossibleTypeSet only exposes membership via Contains in this snapshot; the schema's own
		// TypeMap is consulted so we can still enumerate members for narrowing purposes.
		for _, named := range schema.TypeMap().Types() {
			if obj, ok := named.(graphql.Object); ok && set.Contains(obj) {
				result = append(result, obj)
			}
		}
		return result
	default:
		return nil
	}
}

// unwrapForSelection strips NonNull/List wrappers to reach the composite or leaf type a nested
// selection set would apply to.
func unwrapForSelection(t graphql.Type) graphql.Type {
	for {
		switch w := t.(type) {
		case *graphql.NonNull:
			t = w.ElementType()
		case graphql.List:
			t = w.ElementType()
		default:
			return t
		}
	}
}

func namedTypeOf(schema graphql.Schema, t ast.NamedType) graphql.Type {
	return schema.TypeMap().Lookup(t.Name.Value())
}

// lookupField resolves a selection's field definition, special-casing the implicit introspection
// meta-fields (spec.md §6 SUPPLEMENTED FEATURES: meta-fields route through the same
// DispatcherRegistry/DefaultFieldResolver path as any schema-defined field, per
// graphql/meta_fields.go) before falling back to the composite type's own field map.
func lookupField(parentType graphql.Type, name string) graphql.Field {
	switch name {
	case graphql.TypenameMetaFieldName:
		return graphql.TypenameMetaFieldDef()
	case graphql.SchemaMetaFieldName:
		return graphql.SchemaMetaFieldDef()
	case graphql.TypeMetaFieldName:
		return graphql.TypeMetaFieldDef()
	}

	switch t := parentType.(type) {
	case graphql.Object:
		return t.Fields()[name]
	case graphql.Interface:
		return t.Fields()[name]
	}
	return nil
}
