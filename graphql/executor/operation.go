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

	"github.com/botobag/viaduct/concurrent"
	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
)

// LegacyResolverRegistry is a DispatcherRegistry that declares no dispatchers and no RSS's for any
// coordinate, sending every field through FieldResolver's fallback path
// (resolveWithLegacyFieldResolver in field_resolver.go): the field's own graphql.Field.Resolver(),
// or DefaultFieldResolver when unset. It lets a schema built the teacher's way -- resolvers attached
// directly to graphql.Field -- run on this engine without writing a DispatcherRegistry at all; it is
// the zero value used by Prepare when PrepareParams.Registry is nil.
type LegacyResolverRegistry struct {
	// DefaultFieldResolver is used in place of the built-in property/method lookup resolver when a
	// field declares none of its own. Left nil to use the built-in DefaultFieldResolver.
	DefaultFieldResolver graphql.FieldResolver
}

func (LegacyResolverRegistry) GetFieldResolverDispatcher(graphql.Object, graphql.Field) FieldResolverDispatcher {
	return nil
}

func (LegacyResolverRegistry) GetFieldCheckerDispatcher(graphql.Object, graphql.Field) CheckerDispatcher {
	return nil
}

func (LegacyResolverRegistry) GetTypeCheckerDispatcher(graphql.Object) CheckerDispatcher {
	return nil
}

func (LegacyResolverRegistry) GetNodeResolverDispatcher(graphql.Object) NodeResolverDispatcher {
	return nil
}

func (LegacyResolverRegistry) GetFieldResolverRequiredSelectionSets(graphql.Object, graphql.Field) []*RequiredSelectionSet {
	return nil
}

func (LegacyResolverRegistry) GetFieldCheckerRequiredSelectionSets(graphql.Object, graphql.Field, bool) []*RequiredSelectionSet {
	return nil
}

func (LegacyResolverRegistry) GetTypeCheckerRequiredSelectionSets(graphql.Object, bool) []*RequiredSelectionSet {
	return nil
}

var _ DispatcherRegistry = LegacyResolverRegistry{}

// PrepareParams bundles what Prepare needs to select and validate one operation out of a parsed
// Document and bind it to a schema, mirroring the shape of the teacher's own PrepareParams
// (prepared_operation.go) so callers upgrading from the old PreparedOperation model change only
// their import, not their call sites.
type PrepareParams struct {
	Schema   graphql.Schema
	Document ast.Document

	// OperationName selects which operation in Document to prepare; required when Document defines
	// more than one.
	OperationName string

	// DefaultFieldResolver is used by LegacyResolverRegistry when Registry is nil; ignored otherwise.
	DefaultFieldResolver graphql.FieldResolver

	// Registry supplies field/type dispatchers and their RSS's; defaults to LegacyResolverRegistry.
	Registry DispatcherRegistry

	// PlanCache memoizes QueryPlan construction across Prepare calls for the same operation; defaults
	// to a fresh, unshared PlanCache (so repeated Prepare calls for the *same* query text should share
	// one PlanCache explicitly to benefit from spec.md §4.1's caching).
	PlanCache *PlanCache

	// Instrumentation is forwarded to ExecutionStrategy.Execute; defaults to NoopInstrumentation.
	Instrumentation Instrumentation

	// Runner schedules the async work FieldResolver launches; defaults to running inline.
	Runner concurrent.Executor

	// SchemaVersion distinguishes cached plans across schema hot-swaps sharing one PlanCache.
	SchemaVersion string

	// ExecuteAccessChecksInPlan is forwarded to BuildQueryPlan (spec.md §4.1).
	ExecuteAccessChecksInPlan bool
}

// PreparedOperation is a Document bound to one of its operations, ready to Execute repeatedly
// (with different variables/root values/contexts) against the same schema. It does the operation
// selection and fragment collection the teacher's PreparedOperation.Prepare did; everything past
// that point runs through ExecutionStrategy.
type PreparedOperation struct {
	schema        graphql.Schema
	document      ast.Document
	operation     *ast.OperationDefinition
	fragmentDefs  map[string]*ast.FragmentDefinition
	operationName string

	registry                  DispatcherRegistry
	planCache                 *PlanCache
	instrumentation           Instrumentation
	runner                    concurrent.Executor
	schemaVersion             string
	executeAccessChecksInPlan bool
}

// Prepare selects params.OperationName (or the document's sole operation) out of params.Document
// and returns a PreparedOperation bound to params.Schema. Errors are returned, never panicked, for
// an unknown operation name, an ambiguous anonymous document, or a document with zero operations.
func Prepare(params PrepareParams) (*PreparedOperation, graphql.Errors) {
	operation, fragmentDefs, err := selectOperation(params.Document, params.OperationName)
	if err != nil {
		return nil, graphql.ErrorsOf(err)
	}

	registry := params.Registry
	if registry == nil {
		registry = LegacyResolverRegistry{DefaultFieldResolver: params.DefaultFieldResolver}
	}

	planCache := params.PlanCache
	if planCache == nil {
		planCache = NewPlanCache()
	}

	instrumentation := params.Instrumentation
	if instrumentation == nil {
		instrumentation = NoopInstrumentation{}
	}

	return &PreparedOperation{
		schema:                    params.Schema,
		document:                  params.Document,
		operation:                 operation,
		fragmentDefs:              fragmentDefs,
		operationName:             params.OperationName,
		registry:                  registry,
		planCache:                 planCache,
		instrumentation:           instrumentation,
		runner:                    params.Runner,
		schemaVersion:             params.SchemaVersion,
		executeAccessChecksInPlan: params.ExecuteAccessChecksInPlan,
	}, graphql.Errors{}
}

// selectOperation finds the ast.OperationDefinition named name in document (or the document's only
// operation, if name is empty and there is exactly one) and collects every ast.FragmentDefinition
// it contains, by name.
func selectOperation(
	document ast.Document,
	name string,
) (*ast.OperationDefinition, map[string]*ast.FragmentDefinition, error) {
	fragmentDefs := map[string]*ast.FragmentDefinition{}
	var (
		found      *ast.OperationDefinition
		operations int
	)

	for _, def := range document.Definitions {
		switch def := def.(type) {
		case *ast.OperationDefinition:
			operations++
			if name == "" {
				if found == nil {
					found = def
				}
			} else if def.Name.Token != nil && def.Name.Value() == name {
				found = def
			}
		case *ast.FragmentDefinition:
			fragmentDefs[def.Name.Value()] = def
		}
	}

	if name == "" && operations > 1 {
		return nil, nil, errAmbiguousOperation{}
	}
	if found == nil {
		if name != "" {
			return nil, nil, errUnknownOperationName(name)
		}
		if operations == 0 {
			return nil, nil, errNoOperations{}
		}
		return nil, nil, errAmbiguousOperation{}
	}
	return found, fragmentDefs, nil
}

type errUnknownOperationName string

func (e errUnknownOperationName) Error() string {
	return `executor: unknown operation named "` + string(e) + `"`
}

type errNoOperations struct{}

func (errNoOperations) Error() string { return "executor: document contains no operations" }

type errAmbiguousOperation struct{}

func (errAmbiguousOperation) Error() string {
	return "executor: must provide an operation name when the document defines more than one operation"
}

// ExecuteParams carries the per-call inputs that vary across repeated executions of the same
// PreparedOperation: variables, the root value, and the application-supplied context object.
type ExecuteParams struct {
	VariableValues map[string]interface{}
	RootValue      interface{}
	AppContext     interface{}
	Locale         string
}

// ExecuteOption mutates an ExecuteParams being assembled by Execute; mirrors the teacher's
// functional-options convenience for callers (e.g. LLHandler's RequestMiddleware chain) that build
// up execution parameters incrementally rather than in one struct literal.
type ExecuteOption func(*ExecuteParams)

// WithVariableValues sets the operation's variable values.
func WithVariableValues(values map[string]interface{}) ExecuteOption {
	return func(p *ExecuteParams) { p.VariableValues = values }
}

// WithRootValue sets the operation's root value.
func WithRootValue(value interface{}) ExecuteOption {
	return func(p *ExecuteParams) { p.RootValue = value }
}

// WithAppContext sets the application-specific context object surfaced to resolvers.
func WithAppContext(value interface{}) ExecuteOption {
	return func(p *ExecuteParams) { p.AppContext = value }
}

// Execute runs the prepared operation once to completion. opts let callers build up ExecuteParams
// incrementally (handler middleware); a single ExecuteParams value may also be supplied as the sole
// option via WithParams.
func (op *PreparedOperation) Execute(ctx context.Context, opts ...ExecuteOption) *ExecutionResult {
	var params ExecuteParams
	for _, opt := range opts {
		opt(&params)
	}

	strategy := ExecutionStrategy{}
	return strategy.Execute(ctx, StrategyParams{
		Schema:                    op.schema,
		Registry:                  op.registry,
		Document:                  op.document,
		Operation:                 op.operation,
		FragmentDefs:              op.fragmentDefs,
		OperationName:             op.operationName,
		SchemaVersion:             op.schemaVersion,
		RootValue:                 params.RootValue,
		GqlContext:                params.AppContext,
		Locale:                    params.Locale,
		RawVariableValues:         params.VariableValues,
		Runner:                    op.runner,
		PlanCache:                 op.planCache,
		Instrumentation:           op.instrumentation,
		ExecuteAccessChecksInPlan: op.executeAccessChecksInPlan,
	})
}

// WithParams replaces the whole ExecuteParams in one step; convenient for callers (like
// enum_test.go's executeQueryWithParams) that assemble ExecuteParams as a single struct literal
// rather than composing ExecuteOptions.
func WithParams(params ExecuteParams) ExecuteOption {
	return func(p *ExecuteParams) { *p = params }
}
