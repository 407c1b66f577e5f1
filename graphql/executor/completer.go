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
	"errors"

	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/jsonwriter"
)

// ResponseObject is an ordered string-keyed map, the shape FieldCompleter produces for every
// GraphQL object position in the response. Keys preserve the order CollectFields emitted them in
// (the operation's own field order), mirroring how the teacher's ResultNode/jsonwriter pairing
// always walked fields in collection order rather than map iteration order.
type ResponseObject struct {
	keys   []string
	values map[string]interface{}
}

// NewResponseObject returns an empty ResponseObject.
func NewResponseObject() *ResponseObject {
	return &ResponseObject{values: map[string]interface{}{}}
}

// Set records key's value, appending key to the iteration order the first time it is seen.
func (o *ResponseObject) Set(key string, value interface{}) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under key, if any.
func (o *ResponseObject) Get(key string) (interface{}, bool) {
	v, ok := o.values[key]
	return v, ok
}

var _ jsonwriter.ValueMarshaler = (*ResponseObject)(nil)

// MarshalJSONTo implements jsonwriter.ValueMarshaler.
func (o *ResponseObject) MarshalJSONTo(stream *jsonwriter.Stream) error {
	if o == nil {
		stream.WriteNil()
		return nil
	}
	stream.WriteObjectStart()
	for i, key := range o.keys {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(key)
		writeResponseValue(stream, o.values[key])
	}
	stream.WriteObjectEnd()
	return stream.Error()
}

// writeResponseValue writes one completed field value, recursing through []interface{} (list
// positions) and *ResponseObject (object positions); anything else is handed to
// jsonwriter.Stream.WriteInterface, which already knows leaf scalars, enums and nil.
func writeResponseValue(stream *jsonwriter.Stream, v interface{}) {
	switch v := v.(type) {
	case nil:
		stream.WriteNil()
	case *ResponseObject:
		stream.WriteValue(v)
	case []interface{}:
		stream.WriteArrayStart()
		for i, elem := range v {
			if i > 0 {
				stream.WriteMore()
			}
			writeResponseValue(stream, elem)
		}
		stream.WriteArrayEnd()
	default:
		stream.WriteInterface(v)
	}
}

// FieldCompleter drives spec.md §4.6's completion pipeline: it walks an already-populated OER tree
// (waiting on each Cell's Value rather than polling, per the "completion does not busy-wait"
// testable property) and produces the response tree plus the request's accumulated errors.
type FieldCompleter struct{}

// CompleteObject completes every field collected from p.Plan.SelectionSet against p.ObjectType,
// reading from p.OER. A non-nil returned error is either a CollectFields failure, returned as is, or
// a *NonNullableFieldWasNullError: the
// structural null-bubbling signal meaning the entire object at this position must become null (and,
// if this object's own field is itself non-null, bubble further still).
func (fc FieldCompleter) CompleteObject(ctx context.Context, p ExecutionParameters) (*ResponseObject, error) {
	ic := p.Instrumentation.BeginCompleteObject(ctx, p.ObjectType, p.Path)
	ic.OnDispatched()

	collected, err := CollectFields(p.Schema, p.Plan, p.CollectCache, p.Plan.SelectionSet, p.ObjectType, p.Variables)
	if err != nil {
		ic.OnCompleted(nil, err)
		return nil, err
	}

	out := NewResponseObject()
	for _, cf := range collected {
		fieldPath := p.Path.Clone()
		fieldPath.AppendFieldName(cf.ResponseKey)

		icField := p.Instrumentation.BeginFieldCompletion(ctx, lookupCompletionField(p.ObjectType, cf), fieldPath)
		icField.OnDispatched()

		value, bubbleErr := fc.completeField(ctx, p, cf, fieldPath)
		if bubbleErr != nil {
			icField.OnCompleted(nil, bubbleErr)
			ic.OnCompleted(nil, bubbleErr)
			return nil, bubbleErr
		}

		icField.OnCompleted(value, nil)
		out.Set(cf.ResponseKey, value)
	}

	ic.OnCompleted(out, nil)
	return out, nil
}

// completeField waits on cf's Cell (registered by FieldResolver.FetchObject for the same key) and
// turns its outcome into a response value, applying checker denial and null-bubbling.
func (fc FieldCompleter) completeField(
	ctx context.Context,
	p ExecutionParameters,
	cf CollectedField,
	fieldPath graphql.ResponsePath,
) (interface{}, error) {
	key := ObjectEngineResultKey{ResponseKey: cf.ResponseKey, ArgsDigest: argsDigest(cf.MergedField[0])}
	cell, ok := p.OER.Peek(key)
	if !ok {
		// FieldResolver.FetchObject registers a Cell for every CollectedField before returning, so this
		// only happens if completion races ahead of a FetchObject call that has not run yet -- a bug in
		// the caller, not a user-visible condition. Report it as a field error rather than panicking.
		err := NewInternalEngineError(fieldPath, errNoCellRegistered(cf.ResponseKey))
		p.Errors.Add(err)
		return nil, &NonNullableFieldWasNullError{Path: fieldPath}
	}

	frr, rawErr := cell.RawValue.Get(ctx)
	if rawErr != nil {
		var nn *NonNullableFieldWasNullError
		if errors.As(rawErr, &nn) {
			return nil, nn
		}
		var nnwe *NonNullableFieldWithError
		if errors.As(rawErr, &nnwe) {
			return nil, nnwe.NonNullError
		}
		// Any other error reaching here (e.g. an internal error surfaced while waiting on the field's
		// RSS child plans) was already recorded by FieldResolver's own build closure; completion only
		// needs to decide whether it must bubble further, from the field's static type.
		if fieldDef := lookupCompletionField(p.ObjectType, cf); fieldDef != nil {
			if _, isNN := fieldDef.Type().(*graphql.NonNull); isNN {
				return nil, &NonNullableFieldWasNullError{Path: fieldPath}
			}
		}
		return nil, nil
	}

	if cell.HasChecker {
		checkResult, checkErr := cell.CheckerValue.Get(ctx)
		if checkErr == nil && checkResult.Denies() {
			p.Errors.Add(NewAccessCheckError(fieldPath, deniedErr(checkResult)))
			if fieldDef := lookupCompletionField(p.ObjectType, cf); fieldDef != nil {
				if _, isNN := fieldDef.Type().(*graphql.NonNull); isNN {
					return nil, &NonNullableFieldWasNullError{Path: fieldPath}
				}
			}
			return nil, nil
		}
	}

	rv, ok := frr.Value.(ResolvedValue)
	if !ok {
		// A field with no selection set (or one that failed before producing a ResolvedValue) has
		// nothing further to complete.
		return frr.Value, nil
	}
	return fc.completeChild(ctx, p, cf, rv, fieldPath)
}

// completeChild completes one child position -- a field's own value, or a list element -- and
// applies GraphQL's null-bubbling stop rule: a completion failure discovered underneath this
// position (e.g. a non-null violation deep inside a nested object, only known once that object's
// own fields finish completing) keeps propagating to the caller only if this position's own static
// type was non-null; otherwise it stops here, with this position resolving to null.
func (fc FieldCompleter) completeChild(
	ctx context.Context,
	p ExecutionParameters,
	cf CollectedField,
	rv ResolvedValue,
	path graphql.ResponsePath,
) (interface{}, error) {
	value, err := fc.completeResolvedValue(ctx, p, cf, rv, path)
	if err == nil {
		return value, nil
	}
	if rv.NonNull {
		return nil, err
	}
	return nil, nil
}

// completeResolvedValue turns the FieldResolutionResult.Value a field's Cell produced (always a
// ResolvedValue, see field_resolver.go) into a JSON-ready response value, recursing through lists
// and descending into nested objects by waiting on their own Ready signal and then re-entering
// CompleteObject against their OER.
func (fc FieldCompleter) completeResolvedValue(
	ctx context.Context,
	p ExecutionParameters,
	cf CollectedField,
	value interface{},
	path graphql.ResponsePath,
) (interface{}, error) {
	rv, ok := value.(ResolvedValue)
	if !ok {
		// A field with no selection set (or one that failed before producing a ResolvedValue) has
		// nothing further to complete.
		return value, nil
	}

	if rv.Null {
		return nil, nil
	}

	if rv.ParentManaged {
		return rv.Leaf, nil
	}

	if rv.Object != nil {
		return fc.completeNestedObject(ctx, p, cf, rv.Object, path)
	}

	if rv.List != nil {
		icList := p.Instrumentation.BeginFieldListCompletion(ctx, lookupCompletionField(p.ObjectType, cf), path)
		icList.OnDispatched()

		out := make([]interface{}, len(rv.List))
		for i, elem := range rv.List {
			elemPath := path.Clone()
			elemPath.AppendIndex(i)

			elemValue, bubbleErr := fc.completeChild(ctx, p, cf, elem, elemPath)
			if bubbleErr != nil {
				// elem's own type was non-null: per GraphQL's list-completion rule the violation keeps
				// propagating past the whole list (the caller, completeField or an outer
				// completeResolvedValue, decides from there whether it stops at the list itself).
				icList.OnCompleted(nil, bubbleErr)
				return nil, bubbleErr
			}
			out[i] = elemValue
		}
		icList.OnCompleted(out, nil)
		return out, nil
	}

	// Leaf (scalar/enum), already coerced by FieldResolver.completeRaw.
	return rv.Leaf, nil
}

// completeNestedObject waits for a NestedObject's direct selection (and any type-checker RSS) to
// finish registering, then completes it by recursing into its own OER. It must re-derive the same
// child plan launchNestedObject fetched against (childQueryPlanForSelection(p.Plan, cf.SelectionSet,
// nested.Type)), not reuse p.Plan verbatim: cf's own sub-selection was collected and Constraints-
// narrowed against cf's parent type at build time, so collecting p.Plan.SelectionSet straight
// against nested.Type here would solve every field's Constraints to Drop and complete to "{}".
func (fc FieldCompleter) completeNestedObject(
	ctx context.Context,
	p ExecutionParameters,
	cf CollectedField,
	nested *NestedObject,
	path graphql.ResponsePath,
) (interface{}, error) {
	if _, err := nested.Ready.Get(ctx); err != nil {
		wrapped := NewInternalEngineError(path, err)
		p.Errors.Add(wrapped)
		return nil, &NonNullableFieldWasNullError{Path: path}
	}

	childPlan := childQueryPlanForSelection(p.Plan, cf.SelectionSet, nested.Type)
	childParams := p.WithNode(childPlan, nested.Type, nested.Value, nested.OER, path)
	return fc.CompleteObject(ctx, childParams)
}

// lookupCompletionField resolves cf's schema field definition against objectType, for
// instrumentation and for deciding a generic error's NonNull bubbling.
func lookupCompletionField(objectType graphql.Object, cf CollectedField) graphql.Field {
	if objectType == nil || len(cf.MergedField) == 0 {
		return nil
	}
	return objectType.Fields()[cf.MergedField[0].Name.Value()]
}

type noCellRegisteredError string

func (e noCellRegisteredError) Error() string {
	return "executor: no cell registered for " + string(e)
}

func errNoCellRegistered(responseKey string) error {
	return noCellRegisteredError(responseKey)
}
