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
	"sync"

	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
)

// ErrorAccumulator collects the non-fatal errors produced while executing a single request.
// FieldResolver, FieldCompleter and AccessCheckRunner all run concurrently against the same
// request, so appends are serialized behind a mutex; the reader (ExecutionStrategy.Execute, at the
// very end) calls Errors() once every in-flight field has completed.
type ErrorAccumulator struct {
	mu   sync.Mutex
	errs graphql.Errors
}

// NewErrorAccumulator returns an empty ErrorAccumulator.
func NewErrorAccumulator() *ErrorAccumulator {
	return &ErrorAccumulator{errs: graphql.NoErrors()}
}

// Add appends err, if non-nil, to the accumulated errors.
func (a *ErrorAccumulator) Add(err error) {
	if err == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errs.Append(err)
}

// Errors returns a snapshot of every error added so far.
func (a *ErrorAccumulator) Errors() graphql.Errors {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := graphql.NoErrors()
	out.AppendErrors(a.errs)
	return out
}

// EngineErrorCode distinguishes the six error kinds named by the engine's error taxonomy. It rides
// along in a graphql.Error's Extensions under the "code" key; graphql.Error's own Kind field keeps
// its existing parse/validate/execute/internal axis (ErrKind in graphql/error.go), which the
// engine sets to the closest of those four, since the two axes answer different questions (phase
// of the pipeline vs. the more detailed reason within execution).
type EngineErrorCode string

// Enumeration of EngineErrorCode.
const (
	// CodeFieldFetching: anything thrown or surfaced from a data fetcher.
	CodeFieldFetching EngineErrorCode = "FIELD_FETCHING"
	// CodeInternalEngine: bugs or precondition violations in the engine itself.
	CodeInternalEngine EngineErrorCode = "INTERNAL_ENGINE"
	// CodeAccessCheck: a CheckerResult carrying an error.
	CodeAccessCheck EngineErrorCode = "ACCESS_CHECK"
	// CodeFieldCompletion: coercion or non-null violations collected during completion.
	CodeFieldCompletion EngineErrorCode = "FIELD_COMPLETION"
	// CodeNonNullPropagation: a structural null-bubbling signal, not user-visible on its own.
	CodeNonNullPropagation EngineErrorCode = "NON_NULL_PROPAGATION"
	// CodeFatalEngine: anything else at the top level; fails the operation entirely.
	CodeFatalEngine EngineErrorCode = "FATAL_ENGINE"
)

func withCode(code EngineErrorCode, path graphql.ResponsePath, err error) *graphql.Error {
	e := graphql.NewError(err.Error(), path, graphql.ErrorExtensions{"code": string(code)}, err).(*graphql.Error)
	switch code {
	case CodeInternalEngine, CodeFatalEngine:
		e.Kind = graphql.ErrKindInternal
	default:
		e.Kind = graphql.ErrKindExecution
	}
	return e
}

// NewFieldFetchingError wraps an error surfaced by a data fetcher with the field's path and, when
// available, its AST location.
func NewFieldFetchingError(path graphql.ResponsePath, node ast.Node, err error) *graphql.Error {
	e := withCode(CodeFieldFetching, path, err)
	if node != nil {
		e.Locations = []graphql.ErrorLocation{graphql.ErrorLocationOfASTNode(node)}
	}
	return e
}

// NewInternalEngineError wraps an engine-internal precondition violation.
func NewInternalEngineError(path graphql.ResponsePath, err error) *graphql.Error {
	return withCode(CodeInternalEngine, path, err)
}

// NewAccessCheckError wraps a CheckerResult's error as a field-level error.
func NewAccessCheckError(path graphql.ResponsePath, err error) *graphql.Error {
	return withCode(CodeAccessCheck, path, err)
}

// NewFieldCompletionError wraps a coercion or null-bubbling violation found during completion.
func NewFieldCompletionError(path graphql.ResponsePath, node ast.Node, err error) *graphql.Error {
	e := withCode(CodeFieldCompletion, path, err)
	if node != nil {
		e.Locations = []graphql.ErrorLocation{graphql.ErrorLocationOfASTNode(node)}
	}
	return e
}

// NonNullableFieldWasNullError signals that a non-null field resolved to null with no underlying
// error; it is meant to be caught by the nearest nullable ancestor during completion and never
// surfaced to the user directly (the caller decides what, if anything, to add to the errors list).
type NonNullableFieldWasNullError struct {
	Path graphql.ResponsePath
}

func (e *NonNullableFieldWasNullError) Error() string {
	return "Cannot return null for non-nullable field at " + e.Path.String()
}

// NonNullableFieldWithError pairs the underlying error with the non-null violation it triggered.
// FieldResolver records UnderlyingError in the errors list when it builds this value; completion
// re-throws NonNullError to bubble.
type NonNullableFieldWithError struct {
	UnderlyingError error
	NonNullError    *NonNullableFieldWasNullError
}

func (e *NonNullableFieldWithError) Error() string {
	return e.UnderlyingError.Error()
}

func (e *NonNullableFieldWithError) Unwrap() error {
	return e.UnderlyingError
}

// NewFatalEngineError wraps an error that is not recognized as any of the above and fails the
// whole operation.
func NewFatalEngineError(err error) *graphql.Error {
	return withCode(CodeFatalEngine, graphql.ResponsePath{}, err)
}
