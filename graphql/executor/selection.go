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
)

// SelectionSetNode wraps an ordered list of Selections behind a pointer so that two selection sets
// can be compared for *identity* (pointer equality) rather than structural equality. CollectCache
// relies on this: the QueryPlan builder allocates exactly one SelectionSetNode per AST selection
// set it processes, so the same source selection set always yields the same SelectionSetNode.
type SelectionSetNode struct {
	Selections []Selection
}

// Selection is one entry of a QueryPlan's (or a SelectionSetNode's) selection list.
type Selection interface {
	selectionNode()
}

// FieldMetadata carries engine bookkeeping about a Field selection's resolver coordinate.
type FieldMetadata struct {
	ResolverCoordinate Coordinate
}

// Coordinate identifies a field definition in the schema by (type name, field name).
type Coordinate struct {
	TypeName  string
	FieldName string
}

// FieldSelection is a single, possibly-conditional field selection as it appears directly in the
// operation (before CollectFields merges same-response-key selections together).
type FieldSelection struct {
	ResultKey    string
	Constraints  Constraints
	AST          *ast.Field
	SelectionSet *SelectionSetNode // nil for leaf fields

	ChildPlans         []*ChildPlan
	FieldTypeChildPlans map[string]func() *QueryPlan // keyed by concrete type name, built lazily

	Metadata FieldMetadata
}

func (*FieldSelection) selectionNode() {}

// InlineFragmentSelection mirrors ast.InlineFragment, narrowed to the plan's Constraints model.
type InlineFragmentSelection struct {
	SelectionSet *SelectionSetNode
	Constraints  Constraints
	Directives   ast.Directives
}

func (*InlineFragmentSelection) selectionNode() {}

// FragmentSpreadSelection mirrors ast.FragmentSpread; the referenced fragment's expanded selection
// set lives in QueryPlan.Fragments, keyed by Name.
type FragmentSpreadSelection struct {
	Name        string
	Constraints Constraints
	Directives  ast.Directives
}

func (*FragmentSpreadSelection) selectionNode() {}

// CollectedField is the CollectFields output: an already-merged, unconditional selection against a
// concrete object type.
type CollectedField struct {
	ResponseKey string

	// MergedField is every ast.Field contributing to this response key, in encounter order; per
	// §4.2 the first position is used for AST-ordering purposes and the sub-selection sets are
	// concatenated across all of them (see CollectFields's "later merging" note).
	MergedField []*ast.Field

	SelectionSet *SelectionSetNode // concatenated sub-selection-set, or nil for leaves

	ChildPlans          []*ChildPlan
	FieldTypeChildPlans map[string]func() *QueryPlan

	Metadata FieldMetadata
}

func (*CollectedField) selectionNode() {}

// ChildPlan pairs a QueryPlan that must run before its owner's field(s) with the gate that decides
// whether it runs at all for a given request.
type ChildPlan struct {
	Plan              *QueryPlan
	ExecutionCondition func(vars graphql.VariableValues) bool
	// ForChecker is true when this child plan backs a checker RSS (as opposed to a resolver RSS or a
	// variable-resolver RSS). It is recorded for inspection only; no code in this package reads it.
	ForChecker bool
}

// Always is the ExecutionCondition used for unconditional child plans.
func Always(graphql.VariableValues) bool { return true }
