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

// Constants holds the values that are fixed for the lifetime of one request and shared, read-only,
// by every ExecutionParameters derived from it (spec.md §4.6). It is built once by
// ExecutionStrategy.Execute and never copied.
type Constants struct {
	Schema   graphql.Schema
	Registry DispatcherRegistry
	Document ast.Document
	Operation *ast.OperationDefinition

	RootValue  interface{}
	GqlContext interface{}
	Locale     string

	Variables graphql.VariableValues

	// CollectCache is shared across the whole request so that the same SelectionSetNode always
	// yields the same []CollectedField slice no matter how many times it is reached.
	CollectCache *CollectCache

	// Supervisor is the owning RequestSupervisor; FieldResolver submits async work through it rather
	// than reaching for a raw concurrent.Executor.
	Supervisor *RequestSupervisor

	// Instrumentation receives lifecycle callbacks; never nil (defaults to NoopInstrumentation).
	Instrumentation Instrumentation

	// Errors accumulates every non-fatal error produced anywhere during the request, guarded by its
	// own mutex so concurrent field resolutions can append to it freely (spec.md §7).
	Errors *ErrorAccumulator

	// QueryObjectType, QueryRootValue and QueryOER back the "query value"/"query selection set" half
	// of a FieldResolverDispatcher.Resolve call (dispatcher.go): a resolver running anywhere in the
	// operation -- including under a mutation's top-level fields -- may declare an RSS against the
	// schema's query root independent of whatever object it is itself resolving on. For a query
	// operation these are simply the root OER/value/type; for a mutation or subscription operation
	// ExecutionStrategy allocates a second, independent OER rooted at Schema.Query().
	QueryObjectType graphql.Object
	QueryRootValue  interface{}
	QueryOER        *ObjectEngineResult
}

// ExecutionParameters is the per-descent context threaded through FieldResolver, FieldCompleter,
// AccessCheckRunner and ExecutionStrategy. It is cheap to derive: WithNode
// returns a shallow copy with the per-node fields replaced, mirroring how the teacher's ExecutionContext is
// threaded through executor/execute.go's recursive completion, just generalized to operate over a
// QueryPlan/OER pair instead of a single mutable ResultNode tree.
type ExecutionParameters struct {
	*Constants

	// Plan is the QueryPlan being executed at this node.
	Plan *QueryPlan

	// ObjectType is the concrete object type of Source (resolved already, e.g. via a type resolver).
	ObjectType graphql.Object

	// Source is the resolved parent value that field resolvers on Plan.SelectionSet run against.
	Source interface{}

	// OER memoizes per-(field, args) resolution results for Source so repeated reaches (e.g. via an
	// RSS and the operation's own selection) share one resolution.
	OER *ObjectEngineResult

	// Path is the response path of Source itself (empty at the root).
	Path graphql.ResponsePath
}

// WithNode derives ExecutionParameters for a child object reached by descending into one field.
func (p ExecutionParameters) WithNode(plan *QueryPlan, objectType graphql.Object, source interface{}, oer *ObjectEngineResult, path graphql.ResponsePath) ExecutionParameters {
	p.Plan = plan
	p.ObjectType = objectType
	p.Source = source
	p.OER = oer
	p.Path = path
	return p
}
