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

// RequiredSelectionSet (RSS) is a resolver's or checker's declared data dependency, expressed as a
// selection set against a composite type. The engine resolves every RSS child plan before running
// the owner that declared it.
type RequiredSelectionSet struct {
	// Type is the composite type the selection set is evaluated against.
	Type graphql.Type

	// Source is the raw GraphQL selection-set text/AST that the RSS was parsed from; schema code
	// generators are expected to have already validated it against Type.
	Source string

	// Selections is the parsed selection set. Left as an opaque AST fragment (rather than a full
	// Document) because RSS's are defined by schema/resolver authors, not by the operation.
	Selections interface{}
}

// FieldResolverDispatcher locates and invokes the user-provided resolver for one schema
// coordinate.
type FieldResolverDispatcher interface {
	// ObjectSelectionSet is the RSS evaluated against the field's parent object type, or nil.
	ObjectSelectionSet() *RequiredSelectionSet

	// QuerySelectionSet is the RSS evaluated against the schema's query root type, or nil.
	QuerySelectionSet() *RequiredSelectionSet

	// HasRequiredSelectionSets reports whether either RSS above is non-nil.
	HasRequiredSelectionSets() bool

	// ResolverMetadata is an opaque, resolver-author-supplied value surfaced to instrumentation.
	ResolverMetadata() interface{}

	// Resolve invokes the user resolver. objectValue/queryValue are typed accessors over the current
	// object's and the query root's resolved RSS data (nil when the corresponding selection set is
	// nil); selections describes the field's own requested sub-selection, when any.
	Resolve(
		ctx context.Context,
		arguments graphql.ArgumentValues,
		objectValue EngineObjectDataAccessor,
		queryValue EngineObjectDataAccessor,
		selections []CollectedField,
		gqlContext interface{},
	) (interface{}, error)
}

// EngineObjectDataAccessor exposes fields resolved by an RSS child plan to the resolver or checker
// that declared it. ProxyEngineObjectData and CheckerProxyEngineObjectData (rss.go) implement
// this over an OER.
type EngineObjectDataAccessor interface {
	// Get returns the already-resolved value for the given response key. It MUST only be called for
	// keys that appear in the RSS; the engine guarantees those cells are populated before Resolve is
	// invoked.
	Get(responseKey string) (interface{}, error)
}

// CheckerResultKind distinguishes an allow/deny/error CheckerResult.
type CheckerResultKind uint8

// Enumeration of CheckerResultKind.
const (
	CheckerResultOk CheckerResultKind = iota
	CheckerResultDenied
	CheckerResultError
)

// CheckerResult is the outcome of running a field or type checker.
type CheckerResult struct {
	Kind  CheckerResultKind
	Error error
}

// Denies reports whether this result should prevent (or override) field resolution.
func (r *CheckerResult) Denies() bool {
	return r != nil && (r.Kind == CheckerResultDenied || r.Kind == CheckerResultError)
}

// CheckerDispatcher locates and invokes a field or type checker.
type CheckerDispatcher interface {
	// RequiredSelectionSets maps a role name (e.g. "field", "type") to the RSS it needs, if any.
	RequiredSelectionSets() map[string]*RequiredSelectionSet

	// Check runs the checker and produces a CheckerResult.
	Check(
		ctx context.Context,
		arguments graphql.ArgumentValues,
		dfe EngineObjectDataAccessor,
		gqlContext interface{},
	) Value[*CheckerResult]
}

// NodeResolverDispatcher resolves a global object ID ("node") back to a concrete value; exposed for
// dispatcher registries that implement the Relay Node interface convention. The core engine never
// calls this itself -- it is surfaced purely so DispatcherRegistry's shape matches the full
// external interface described for embedding applications.
type NodeResolverDispatcher interface {
	ResolveNode(ctx context.Context, id string, gqlContext interface{}) (interface{}, error)
}

// DispatcherRegistry is the engine's sole door into schema-author-provided business logic: field
// resolvers, checkers and their RSS's. It is supplied once per schema and is treated as read-only,
// shareable across concurrent requests.
type DispatcherRegistry interface {
	GetFieldResolverDispatcher(t graphql.Object, field graphql.Field) FieldResolverDispatcher
	GetFieldCheckerDispatcher(t graphql.Object, field graphql.Field) CheckerDispatcher
	GetTypeCheckerDispatcher(t graphql.Object) CheckerDispatcher
	GetNodeResolverDispatcher(t graphql.Object) NodeResolverDispatcher

	GetFieldResolverRequiredSelectionSets(t graphql.Object, field graphql.Field) []*RequiredSelectionSet
	GetFieldCheckerRequiredSelectionSets(t graphql.Object, field graphql.Field, executeAccessChecks bool) []*RequiredSelectionSet
	GetTypeCheckerRequiredSelectionSets(t graphql.Object, executeAccessChecks bool) []*RequiredSelectionSet
}
