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
	"time"

	"github.com/botobag/viaduct/concurrent"
	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
)

// inlineExecutor runs every submitted task synchronously on the caller's own goroutine. It backs
// ExecutionStrategy when a caller has no concurrent.Executor of their own to offer (e.g. a test, or
// a single-request CLI tool), trading concurrency for zero setup -- the engine's Value[T]/Launch
// machinery works identically either way since NewAsyncValue only requires Submit to eventually run
// the task, never that it run on another goroutine.
type inlineExecutor struct{}

type inlineTaskHandle struct {
	result interface{}
	err    error
}

func (h *inlineTaskHandle) Cancel() error { return nil }

func (h *inlineTaskHandle) AwaitResult(timeout time.Duration) (interface{}, error) {
	return h.result, h.err
}

func (inlineExecutor) Submit(task concurrent.Task) (concurrent.TaskHandle, error) {
	result, err := task.Run()
	return &inlineTaskHandle{result: result, err: err}, nil
}

func (inlineExecutor) Shutdown() (<-chan bool, error) {
	ch := make(chan bool, 1)
	ch <- true
	return ch, nil
}

// StrategyParams bundles the inputs ExecutionStrategy.Execute needs to run a single prepared
// operation: everything PlanCache.GetOrBuild, ResolveVariables and the root ExecutionParameters
// require, gathered in one place the way the teacher's ExecuteParams (prepared_operation.go) did
// for the old model.
type StrategyParams struct {
	Schema   graphql.Schema
	Registry DispatcherRegistry

	Document      ast.Document
	Operation     *ast.OperationDefinition
	FragmentDefs  map[string]*ast.FragmentDefinition
	OperationName string
	SchemaVersion string

	RootValue  interface{}
	GqlContext interface{}
	Locale     string

	RawVariableValues map[string]interface{}

	// Runner schedules the async work FieldResolver launches; inlineExecutor is used when nil.
	Runner concurrent.Executor

	PlanCache       *PlanCache
	Instrumentation Instrumentation

	// ExecuteAccessChecksInPlan controls whether the plan builder plans field-checker RSS as child
	// plans (spec.md §4.1's "access checks executed in the same pass as the main selection" mode).
	// When false no field-checker RSS child plan is built, and AccessCheckRunner launches none of its
	// own. Forwarded verbatim to BuildQueryPlan.
	ExecuteAccessChecksInPlan bool
}

// ExecutionStrategy is the engine's top-level entry point (spec.md §4.7): obtain a QueryPlan,
// resolve variables, fetch and complete the root object, and assemble the final ExecutionResult.
// Mutation root fields run serially (FetchObjectSerially); query and subscription root fields run
// concurrently (FetchObject).
type ExecutionStrategy struct {
	FieldResolver  FieldResolver
	FieldCompleter FieldCompleter
}

// Execute runs one prepared operation to completion and returns its ExecutionResult. The supervisor
// backing the request is always cancelled and joined before returning, whether the operation
// succeeded, partially failed, or the context was cancelled out from under it.
func (s ExecutionStrategy) Execute(ctx context.Context, p StrategyParams) *ExecutionResult {
	errAcc := NewErrorAccumulator()

	rootType, err := rootObjectType(p.Schema, p.Operation)
	if err != nil {
		errAcc.Add(asEngineError(err))
		return &ExecutionResult{Errors: errAcc.Errors()}
	}

	instrumentation := p.Instrumentation
	if instrumentation == nil {
		instrumentation = NoopInstrumentation{}
	}

	runner := p.Runner
	if runner == nil {
		runner = inlineExecutor{}
	}

	plan, err := p.PlanCache.GetOrBuild(
		PlanCacheKey{DocumentKey: p.OperationName, OperationName: p.OperationName, SchemaVersion: p.SchemaVersion},
		p.Schema,
		p.Registry,
		rootType,
		p.Operation.SelectionSet,
		p.FragmentDefs,
		p.ExecuteAccessChecksInPlan,
	)
	if err != nil {
		errAcc.Add(asEngineError(err))
		return &ExecutionResult{Errors: errAcc.Errors()}
	}

	supervisor := NewRequestSupervisor(ctx, runner)
	defer func() {
		supervisor.Cancel()
		supervisor.Join()
	}()

	variables, err := ResolveVariables(supervisor.Context(), p.Schema, plan, p.RawVariableValues, p.GqlContext, p.Locale)
	if err != nil {
		errAcc.Add(asEngineError(err))
		return &ExecutionResult{Errors: errAcc.Errors()}
	}

	rootOER := NewObjectEngineResult()

	constants := &Constants{
		Schema:          p.Schema,
		Registry:        p.Registry,
		Document:        p.Document,
		Operation:       p.Operation,
		RootValue:       p.RootValue,
		GqlContext:      p.GqlContext,
		Locale:          p.Locale,
		Variables:       variables,
		CollectCache:    NewCollectCache(),
		Supervisor:      supervisor,
		Instrumentation: instrumentation,
		Errors:          errAcc,
	}

	// Mutation (and subscription) root fields may declare query-root RSS's independent of their own
	// parent type; give them a second OER rooted at the schema's query type, per spec.md §4.6's
	// "query value" concept. A query operation's own root doubles as this value.
	if p.Operation.OperationType() == ast.OperationTypeQuery {
		constants.QueryObjectType = rootType
		constants.QueryRootValue = p.RootValue
		constants.QueryOER = rootOER
	} else if queryType := p.Schema.Query(); queryType != nil {
		constants.QueryObjectType = queryType
		constants.QueryRootValue = p.RootValue
		constants.QueryOER = NewObjectEngineResult()
	}

	rootParams := ExecutionParameters{
		Constants:  constants,
		Plan:       plan,
		ObjectType: rootType,
		Source:     p.RootValue,
		OER:        rootOER,
		Path:       graphql.ResponsePath{},
	}

	var fetchErr error
	if p.Operation.OperationType() == ast.OperationTypeMutation {
		_, fetchErr = s.FieldResolver.FetchObjectSerially(supervisor.Context(), rootParams)
	} else {
		_, fetchErr = s.FieldResolver.FetchObject(supervisor.Context(), rootParams)
	}

	if fetchErr != nil {
		errAcc.Add(asEngineError(fetchErr))
		return &ExecutionResult{Errors: errAcc.Errors()}
	}

	data, completionErr := s.FieldCompleter.CompleteObject(supervisor.Context(), rootParams)
	if completionErr != nil {
		// The root object itself had to bubble null: per spec.md §4.6 the whole response's "data"
		// becomes null, with whatever field errors already accumulated still reported.
		return &ExecutionResult{Errors: errAcc.Errors()}
	}

	return &ExecutionResult{Data: data, Errors: errAcc.Errors()}
}

// rootObjectType extracts the schema's root type for operation's kind, mirroring
// PreparedOperation.Prepare's root-type selection.
func rootObjectType(schema graphql.Schema, operation *ast.OperationDefinition) (graphql.Object, error) {
	switch operation.OperationType() {
	case ast.OperationTypeQuery:
		if rootType := schema.Query(); rootType != nil {
			return rootType, nil
		}
		return nil, NewFatalEngineError(errRootTypeMissing("query"))

	case ast.OperationTypeMutation:
		if rootType := schema.Mutation(); rootType != nil {
			return rootType, nil
		}
		return nil, NewFatalEngineError(errRootTypeMissing("mutation"))

	case ast.OperationTypeSubscription:
		if rootType := schema.Subscription(); rootType != nil {
			return rootType, nil
		}
		return nil, NewFatalEngineError(errRootTypeMissing("subscription"))

	default:
		return nil, NewFatalEngineError(errUnknownOperationType(string(operation.OperationType())))
	}
}

// asEngineError adapts any error into a *graphql.Error, leaving one that already is untouched
// rather than double-wrapping it and losing its EngineErrorCode/locations.
func asEngineError(err error) *graphql.Error {
	if ge, ok := err.(*graphql.Error); ok {
		return ge
	}
	return NewFatalEngineError(err)
}

type errRootTypeMissing string

func (e errRootTypeMissing) Error() string {
	return "executor: schema does not define a root type for " + string(e) + " operations"
}

type errUnknownOperationType string

func (e errUnknownOperationType) Error() string {
	return "executor: unknown operation type " + string(e)
}
