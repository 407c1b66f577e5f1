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
	"reflect"
	"sync"

	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
	"github.com/botobag/viaduct/graphql/internal/value"
)

// ResolutionPolicy tags how a resolved field's Value should be treated downstream.
type ResolutionPolicy uint8

// Enumeration of ResolutionPolicy.
const (
	// ResolutionPolicyNormal is completed by type-directed recursion over the field's static type.
	ResolutionPolicyNormal ResolutionPolicy = iota

	// ResolutionPolicyParentManaged marks a value that must be passed through unchanged; the resolver
	// that produced it has already shaped it into a response-ready value.
	ResolutionPolicyParentManaged
)

// ParentManagedValue lets a data fetcher opt a field's result out of the engine's usual
// type-directed completion: whatever Value holds is emitted into the response as-is, with no
// list/object recursion or leaf coercion applied.
type ParentManagedValue struct {
	Value interface{}
}

// DataFetcherResult lets a data fetcher return side-channel data alongside its primary value. It has
// no teacher analogue -- the teacher's field resolvers always return a bare value -- so its shape is
// grounded purely in the textual description of the fields a data fetcher result container may
// carry.
type DataFetcherResult struct {
	// Data is the field's actual resolved value, subject to the same unboxing and type-directed
	// completion as a bare return value would be.
	Data interface{}

	// Errors are recorded against the field's path and do not, on their own, null out the field;
	// NonNull propagation still applies if Data is nil for a non-nullable field.
	Errors []error

	// LocalContext and Extensions are accepted for interface compatibility but are otherwise inert:
	// the engine has no per-field local-context propagation mechanism (DispatcherRegistry resolvers
	// receive gqlContext, not a per-field local context) and no additional place to merge ad hoc
	// extensions besides the field's own recorded error.
	LocalContext interface{}
	Extensions   graphql.ErrorExtensions
}

// ResolvedValue is the shape FieldResolver leaves behind for a field completer to walk: a tree that
// mirrors the field's static GraphQL type (List/Object/leaf) but with every Object position already
// resolved to a concrete type and, where applicable, already dispatched as a nested object fetch.
type ResolvedValue struct {
	// Null marks a position that resolved to GraphQL null (only valid where the static type is
	// nullable; FieldResolver never lets a Null ResolvedValue reach a NonNull position).
	Null bool

	// ParentManaged marks a position produced by ParentManagedValue: Leaf holds the resolver's value
	// verbatim and downstream completion must skip coercion/recursion for it.
	ParentManaged bool

	// Object is set when this position is a (possibly former-abstract, now concrete) object value.
	Object *NestedObject

	// List is set when this position is a list; each element is itself a ResolvedValue.
	List []ResolvedValue

	// Leaf is the coerced scalar/enum value, meaningful only when Object and List are both nil and
	// Null/ParentManaged are both false (or when ParentManaged is true, in which case it is the raw
	// passthrough value).
	Leaf interface{}

	// NonNull marks that this exact position's static GraphQL type was wrapped in NonNull. A field
	// completer uses it to decide, once this position's value is in hand, whether a completion
	// failure discovered underneath it (after fetch time, e.g. deep inside a nested object) must keep
	// propagating past this position or stop here with this position resolving to null.
	NonNull bool
}

// NestedObject pairs an already-resolved concrete object value with the ObjectEngineResult backing
// its own fields, so a field completer can descend into it without re-resolving the type or
// refetching.
type NestedObject struct {
	Type  graphql.Object
	Value interface{}
	OER   *ObjectEngineResult

	// Ready resolves once every field (direct selection and type-checker RSS alike) has been
	// registered in OER; completion waits on it before walking OER's cells.
	Ready Value[struct{}]
}

// FieldResolver drives the engine's object-fetching phase: given an already-collected field list and
// a parent object's OER, it populates one Cell per field, each Cell's raw slot eventually holding a
// FieldResolutionResult. It is stateless, like AccessCheckRunner; all request-scoped state lives in
// ExecutionParameters.
type FieldResolver struct {
	AccessCheckRunner AccessCheckRunner
}

// FetchObject registers and dispatches every field collected from p.Plan.SelectionSet against
// p.ObjectType, concurrently. It returns once every field's Cell has been registered in p.OER;
// Cells themselves resolve independently and are awaited by whoever needs their value.
func (fr FieldResolver) FetchObject(ctx context.Context, p ExecutionParameters) ([]CollectedField, error) {
	ic := p.Instrumentation.BeginFetchObject(ctx, p.ObjectType, p.Path)
	ic.OnDispatched()

	collected, err := CollectFields(p.Schema, p.Plan, p.CollectCache, p.Plan.SelectionSet, p.ObjectType, p.Variables)
	if err != nil {
		ic.OnCompleted(nil, err)
		return nil, err
	}

	for _, cf := range collected {
		cf := cf
		key := ObjectEngineResultKey{ResponseKey: cf.ResponseKey, ArgsDigest: argsDigest(cf.MergedField[0])}
		p.OER.ComputeIfAbsent(key, func() *Cell {
			return fr.resolveField(ctx, p, cf, false)
		})
	}

	ic.OnCompleted(collected, nil)
	return collected, nil
}

// FetchObjectSerially is FetchObject's counterpart for top-level mutation fields: each field's Cell
// is fully resolved (Overall, not just registered) before the next field's Cell is even built, so
// side-effecting mutations run in the order the operation named them.
func (fr FieldResolver) FetchObjectSerially(ctx context.Context, p ExecutionParameters) ([]CollectedField, error) {
	ic := p.Instrumentation.BeginFetchObject(ctx, p.ObjectType, p.Path)
	ic.OnDispatched()

	collected, err := CollectFields(p.Schema, p.Plan, p.CollectCache, p.Plan.SelectionSet, p.ObjectType, p.Variables)
	if err != nil {
		ic.OnCompleted(nil, err)
		return nil, err
	}

	for _, cf := range collected {
		cf := cf
		key := ObjectEngineResultKey{ResponseKey: cf.ResponseKey, ArgsDigest: argsDigest(cf.MergedField[0])}
		cell := p.OER.ComputeIfAbsent(key, func() *Cell {
			return fr.resolveField(ctx, p, cf, true)
		})
		// Block for this field's full resolution (raw value plus any nested fetch it spawned)
		// before moving on to the next top-level field, so two mutation fields never run
		// concurrently. The field's own error, if any, is already recorded in p.Errors.
		_, _ = cell.Overall().Get(ctx)
	}

	ic.OnCompleted(collected, nil)
	return collected, nil
}

// argsDigest produces a stable-enough per-selection argument fingerprint for
// ObjectEngineResultKey. Two occurrences of the same field name with literal (non-variable)
// arguments that render to the same source text collide on purpose -- they are the same fetch.
func argsDigest(field *ast.Field) string {
	if len(field.Arguments) == 0 {
		return ""
	}
	digest := ""
	for _, arg := range field.Arguments {
		digest += arg.Name.Value() + "=" + fmt.Sprintf("%v", arg.Value) + ";"
	}
	return digest
}

// combinedEngineObjectData tries an object-scoped accessor first and falls back to a query-scoped
// one, letting a single dfe value answer a checker that declared either (or both) kinds of RSS.
type combinedEngineObjectData struct {
	primary  EngineObjectDataAccessor
	fallback EngineObjectDataAccessor
}

func (c *combinedEngineObjectData) Get(responseKey string) (interface{}, error) {
	if c.primary != nil {
		if v, err := c.primary.Get(responseKey); err == nil {
			return v, nil
		}
	}
	if c.fallback != nil {
		return c.fallback.Get(responseKey)
	}
	return nil, fmt.Errorf("executor: RSS field %q was not resolved before being read", responseKey)
}

// fetchOutcome carries a concurrently-launched fetchField result back to the field's Launch closure
// without racing the fetch's own return against the checker's.
type fetchOutcome struct {
	data interface{}
	err  error
}

func deniedErr(r *CheckerResult) error {
	if r != nil && r.Error != nil {
		return r.Error
	}
	return fmt.Errorf("executor: access denied")
}

// resolveField builds the Cell for one CollectedField: it is the single build closure ever passed to
// p.OER.ComputeIfAbsent for this field, so everything that only needs to happen once per field
// (argument coercion, RSS launch, dispatch) lives here. topLevelSerial selects which of the two
// documented sequencing modes the field checker runs under: true sequences the checker strictly
// before the fetcher (top-level mutation/subscription fields, so a denial prevents the
// side-effecting fetch from running at all); false runs the checker alongside the fetcher and only
// overrides the field's value on denial, so a slow checker never stalls the fetch.
func (fr FieldResolver) resolveField(ctx context.Context, p ExecutionParameters, cf CollectedField, topLevelSerial bool) *Cell {
	path := p.Path.Clone()
	path.AppendFieldName(cf.ResponseKey)

	astField := cf.MergedField[0]
	fieldDef := lookupField(p.ObjectType, astField.Name.Value())
	if fieldDef == nil {
		err := NewInternalEngineError(path, fmt.Errorf("executor: unknown field %s.%s", p.ObjectType.Name(), astField.Name.Value()))
		p.Errors.Add(err)
		cell := &Cell{RawValue: Sync(FieldResolutionResult{}), CheckerValue: Sync[*CheckerResult](nil), HasChecker: true}
		cell.SetOverall(Sync(struct{}{}))
		return cell
	}

	icExec := p.Instrumentation.BeginFieldExecution(ctx, fieldDef, path)
	icExec.OnDispatched()

	arguments, err := value.ArgumentValues(fieldDef, astField, p.Variables)
	if err != nil {
		wrapped := NewFieldFetchingError(path, astField, err)
		p.Errors.Add(wrapped)
		icExec.OnCompleted(nil, wrapped)
		cell := &Cell{RawValue: Sync(FieldResolutionResult{}), CheckerValue: Sync[*CheckerResult](nil), HasChecker: true}
		cell.SetOverall(Sync(struct{}{}))
		return cell
	}

	childrenReady := fr.launchFieldChildPlans(ctx, p, cf)

	objectDFE := NewCheckerProxyEngineObjectData(ctx, p.OER)
	var queryDFE EngineObjectDataAccessor
	if p.QueryOER != nil {
		queryDFE = NewCheckerProxyEngineObjectData(ctx, p.QueryOER)
	}
	checkerDFE := &combinedEngineObjectData{primary: objectDFE, fallback: queryDFE}

	fieldChecker := fr.AccessCheckRunner.FieldCheck(ctx, p.Registry, p.ObjectType, fieldDef, arguments, checkerDFE, p.GqlContext)

	var (
		nestedMu sync.Mutex
		nested   []Value[struct{}]
	)

	frame := completionFrame{p: p, fieldDef: fieldDef, arguments: arguments, cf: cf}

	raw := Launch(p.Supervisor, func(ctx context.Context) (FieldResolutionResult, error) {
		if _, err := childrenReady.Get(ctx); err != nil {
			wrapped := NewInternalEngineError(path, fmt.Errorf("executor: required selection set for %s.%s: %w", p.ObjectType.Name(), fieldDef.Name(), err))
			p.Errors.Add(wrapped)
			icExec.OnCompleted(nil, wrapped)
			return FieldResolutionResult{}, wrapped
		}

		icCheck := p.Instrumentation.InstrumentAccessCheck(ctx, path)
		icCheck.OnDispatched()

		var (
			rawData  interface{}
			fetchErr error
		)
		if topLevelSerial {
			// Top-level mutation/subscription field: the checker must decide before the
			// side-effecting fetcher is ever allowed to run.
			checkResult, checkErr := fieldChecker.Get(ctx)
			icCheck.OnCompleted(checkResult, checkErr)
			if checkErr == nil && checkResult.Denies() {
				// The denial error itself is recorded once, by FieldCompleter, from CheckerValue.
				icExec.OnCompleted(nil, nil)
				return FieldResolutionResult{}, nil
			}
			rawData, fetchErr = fr.fetchField(ctx, p, fieldDef, arguments, cf, path, astField)
		} else {
			// Ordinary field: the checker runs alongside the fetcher instead of gating it, so a
			// checker that waits on its own RSS never stalls the fetch; only the field's final
			// value is held back if the checker ends up denying.
			fetched := Launch(p.Supervisor, func(ctx context.Context) (fetchOutcome, error) {
				data, err := fr.fetchField(ctx, p, fieldDef, arguments, cf, path, astField)
				return fetchOutcome{data: data, err: err}, nil
			})

			checkResult, checkErr := fieldChecker.Get(ctx)
			icCheck.OnCompleted(checkResult, checkErr)

			outcome, _ := fetched.Get(ctx)
			rawData, fetchErr = outcome.data, outcome.err

			if checkErr == nil && checkResult.Denies() {
				// The denial error itself is recorded once, by FieldCompleter, from CheckerValue.
				icExec.OnCompleted(nil, nil)
				return FieldResolutionResult{}, nil
			}
		}

		frr, nestedWork, completionErr := fr.complete(ctx, frame, rawData, fetchErr, path)
		if nestedWork != nil {
			nestedMu.Lock()
			nested = append(nested, nestedWork)
			nestedMu.Unlock()
		}

		icExec.OnCompleted(frr.Value, completionErr)
		return frr, completionErr
	})

	checkerValue := FlatMap(raw, func(frr FieldResolutionResult) Value[*CheckerResult] {
		var concrete graphql.Object
		if rv, ok := frr.Value.(ResolvedValue); ok && rv.Object != nil {
			concrete = rv.Object.Type
		}
		return fr.AccessCheckRunner.CombineWithTypeCheck(ctx, p.Registry, fieldChecker, concrete, arguments, checkerDFE, p.GqlContext)
	})

	overall := FlatMap(Map(raw, func(FieldResolutionResult) (struct{}, error) { return struct{}{}, nil }), func(struct{}) Value[struct{}] {
		nestedMu.Lock()
		ws := append([]Value[struct{}]{}, nested...)
		nestedMu.Unlock()
		if len(ws) == 0 {
			return Sync(struct{}{})
		}
		return Map(WaitAll(ws), func([]struct{}) (struct{}, error) { return struct{}{}, nil })
	})

	cell := &Cell{RawValue: raw, CheckerValue: checkerValue, HasChecker: true}
	cell.SetOverall(overall)
	return cell
}

// launchFieldChildPlans launches cf's RSS child plans (both resolver and checker RSS) and returns a
// Value that resolves once every one of them has fully resolved -- this is what makes RSS precedence
// hold regardless of whether the dispatcher invoked below happens to call
// EngineObjectDataAccessor.Get itself.
func (fr FieldResolver) launchFieldChildPlans(ctx context.Context, p ExecutionParameters, cf CollectedField) Value[struct{}] {
	if len(cf.ChildPlans) == 0 {
		return Sync(struct{}{})
	}

	waits := make([]Value[struct{}], 0, len(cf.ChildPlans))
	for _, cp := range cf.ChildPlans {
		cp := cp
		if !cp.ExecutionCondition(p.Variables) {
			continue
		}
		waits = append(waits, fr.launchChildPlan(ctx, p, cp))
	}
	if len(waits) == 0 {
		return Sync(struct{}{})
	}
	return Map(WaitAll(waits), func([]struct{}) (struct{}, error) { return struct{}{}, nil })
}

// launchChildPlan runs one RSS child plan to completion against whichever OER its declared type
// names: the current object (the common case) or the schema's query root (cross-cutting query-root
// RSS's, even from within a mutation's top-level fields).
func (fr FieldResolver) launchChildPlan(ctx context.Context, p ExecutionParameters, cp *ChildPlan) Value[struct{}] {
	targetOER := p.OER
	targetObjectType := p.ObjectType
	targetSource := p.Source

	if p.QueryObjectType != nil && cp.Plan.ParentType == graphql.Type(p.QueryObjectType) {
		targetOER = p.QueryOER
		targetObjectType = p.QueryObjectType
		targetSource = p.QueryRootValue
	}

	childParams := p.WithNode(cp.Plan, targetObjectType, targetSource, targetOER, p.Path)

	return Launch(p.Supervisor, func(ctx context.Context) (struct{}, error) {
		if _, err := fr.FetchObject(ctx, childParams); err != nil {
			return struct{}{}, err
		}
		if _, err := targetOER.FieldResolutionState().Get(ctx); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
}

// collectedSubSelections pre-collects the field's own requested sub-selection against its static
// (non-abstract) result object type, handing a resolver dispatcher the shape of what is actually
// being asked for. Left nil when the result type is abstract (the concrete type is not known until
// after the resolver itself returns) or the field has no sub-selection.
func (fr FieldResolver) collectedSubSelections(p ExecutionParameters, fieldDef graphql.Field, cf CollectedField) []CollectedField {
	if cf.SelectionSet == nil {
		return nil
	}
	obj, ok := unwrapForSelection(fieldDef.Type()).(graphql.Object)
	if !ok {
		return nil
	}
	selections, err := CollectFields(p.Schema, p.Plan, p.CollectCache, cf.SelectionSet, obj, p.Variables)
	if err != nil {
		return nil
	}
	return selections
}

// fetchField invokes the field's dispatcher (or the legacy graphql.FieldResolver fallback) and
// unwraps a DataFetcherResult if one came back.
func (fr FieldResolver) fetchField(
	ctx context.Context,
	p ExecutionParameters,
	fieldDef graphql.Field,
	arguments graphql.ArgumentValues,
	cf CollectedField,
	path graphql.ResponsePath,
	astField *ast.Field,
) (interface{}, error) {
	icFetch := p.Instrumentation.BeginFieldFetching(ctx, fieldDef, path)
	icFetch.OnDispatched()
	icDF := p.Instrumentation.InstrumentDataFetcher(ctx, fieldDef, path)
	icDF.OnDispatched()

	dispatcher := p.Registry.GetFieldResolverDispatcher(p.ObjectType, fieldDef)

	var (
		result interface{}
		err    error
	)
	if dispatcher != nil {
		objectDFE := NewProxyEngineObjectData(ctx, p.OER)
		var queryDFE EngineObjectDataAccessor
		if p.QueryOER != nil {
			queryDFE = NewProxyEngineObjectData(ctx, p.QueryOER)
		}
		result, err = dispatcher.Resolve(ctx, arguments, objectDFE, queryDFE, fr.collectedSubSelections(p, fieldDef, cf), p.GqlContext)
	} else {
		result, err = fr.resolveWithLegacyFieldResolver(ctx, p, fieldDef, cf, path, arguments)
	}

	icDF.OnCompleted(result, err)
	icFetch.OnCompleted(result, err)

	if err != nil {
		wrapped := NewFieldFetchingError(path, astField, err)
		p.Errors.Add(wrapped)
		return nil, wrapped
	}

	if dfr, ok := result.(*DataFetcherResult); ok {
		for _, e := range dfr.Errors {
			p.Errors.Add(NewFieldFetchingError(path, astField, e))
		}
		return dfr.Data, nil
	}

	return result, nil
}

// resolveWithLegacyFieldResolver falls back to the field's own graphql.FieldResolver (or, if unset,
// the LegacyResolverRegistry's DefaultFieldResolver, or failing that DefaultFieldResolver's
// reflection-based property/method lookup) for schemas that were not wired up through
// DispatcherRegistry.
func (fr FieldResolver) resolveWithLegacyFieldResolver(
	ctx context.Context,
	p ExecutionParameters,
	fieldDef graphql.Field,
	cf CollectedField,
	path graphql.ResponsePath,
	arguments graphql.ArgumentValues,
) (interface{}, error) {
	resolver := fieldDef.Resolver()
	if legacy, ok := p.Registry.(LegacyResolverRegistry); ok && resolver == nil && legacy.DefaultFieldResolver != nil {
		resolver = legacy.DefaultFieldResolver
	}
	if resolver == nil {
		resolver = &DefaultFieldResolver{
			UnresolvedAsError:   true,
			ScanAnonymousFields: true,
			ScanMethods:         true,
			FieldTagName:        "graphql",
		}
	}

	info := &engineResolveInfo{
		params:      p,
		field:       fieldDef,
		mergedField: cf.MergedField,
		path:        path,
		args:        arguments,
	}
	return resolver.Resolve(ctx, p.Source, info)
}

// completionFrame bundles the values that stay constant while FieldResolver.complete recurses
// through a field's static type (List/NonNull layers share the same field, arguments and
// sub-selection).
type completionFrame struct {
	p         ExecutionParameters
	fieldDef  graphql.Field
	arguments graphql.ArgumentValues
	cf        CollectedField
}

// complete turns a field's raw fetched value (or fetch error) into a FieldResolutionResult: unwrapping
// DataFetcherResult/ParentManagedValue, applying NonNull propagation, and recursively resolving
// List/Object/AbstractType/LeafType positions. It returns a Value tracking any nested object fetch it
// launched (nil if none), to be folded into the owning Cell's Overall.
func (fr FieldResolver) complete(
	ctx context.Context,
	frame completionFrame,
	raw interface{},
	fetchErr error,
	path graphql.ResponsePath,
) (FieldResolutionResult, Value[struct{}], error) {
	fieldType := frame.fieldDef.Type()

	if fetchErr != nil {
		if _, isNN := fieldType.(*graphql.NonNull); isNN {
			err := &NonNullableFieldWithError{UnderlyingError: fetchErr, NonNullError: &NonNullableFieldWasNullError{Path: path}}
			return FieldResolutionResult{}, nil, err
		}
		return FieldResolutionResult{Value: ResolvedValue{Null: true}}, nil, nil
	}

	if pmv, ok := raw.(*ParentManagedValue); ok {
		return FieldResolutionResult{Value: ResolvedValue{ParentManaged: true, Leaf: pmv.Value}}, nil, nil
	}

	var nested []Value[struct{}]
	rv, err := fr.completeRaw(ctx, frame, fieldType, raw, path, &nested)
	if err != nil {
		if nn, ok := err.(*NonNullableFieldWasNullError); ok {
			return FieldResolutionResult{}, nil, nn
		}
		wrapped := NewFieldCompletionError(path, frame.cf.MergedField[0], err)
		frame.p.Errors.Add(wrapped)
		if _, isNN := fieldType.(*graphql.NonNull); isNN {
			return FieldResolutionResult{}, nil, &NonNullableFieldWithError{UnderlyingError: err, NonNullError: &NonNullableFieldWasNullError{Path: path}}
		}
		return FieldResolutionResult{Value: ResolvedValue{Null: true}}, nil, nil
	}

	var nestedWork Value[struct{}]
	if len(nested) > 0 {
		nestedWork = Map(WaitAll(nested), func([]struct{}) (struct{}, error) { return struct{}{}, nil })
	}
	return FieldResolutionResult{Value: rv}, nestedWork, nil
}

// completeRaw is the type-directed recursive transform at the heart of completion: it walks
// fieldType's wrapping layers (NonNull, List) and, at a named type, either coerces a leaf, resolves an
// abstract type to a concrete Object, or launches a nested object fetch for an Object value.
func (fr FieldResolver) completeRaw(
	ctx context.Context,
	frame completionFrame,
	t graphql.Type,
	v interface{},
	path graphql.ResponsePath,
	nested *[]Value[struct{}],
) (ResolvedValue, error) {
	if nn, ok := t.(*graphql.NonNull); ok {
		if v == nil {
			return ResolvedValue{}, &NonNullableFieldWasNullError{Path: path}
		}
		inner, err := fr.completeRaw(ctx, frame, nn.ElementType(), v, path, nested)
		if err != nil {
			return ResolvedValue{}, err
		}
		if inner.Null {
			return ResolvedValue{}, &NonNullableFieldWasNullError{Path: path}
		}
		inner.NonNull = true
		return inner, nil
	}

	if v == nil {
		return ResolvedValue{Null: true}, nil
	}

	switch tt := t.(type) {
	case graphql.List:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return ResolvedValue{}, fmt.Errorf("executor: field value is not a list: %T", v)
		}
		elemType := tt.ElementType()
		_, elemNonNull := elemType.(*graphql.NonNull)
		elems := make([]ResolvedValue, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elemPath := path.Clone()
			elemPath.AppendIndex(i)
			elem, err := fr.completeRaw(ctx, frame, elemType, rv.Index(i).Interface(), elemPath, nested)
			if err != nil {
				if _, ok := err.(*NonNullableFieldWasNullError); ok {
					// elemType was non-null and the violation originated at or under this element: per
					// GraphQL's list-completion rule it keeps propagating past the whole list.
					return ResolvedValue{}, err
				}
				// A plain completion error (e.g. a scalar coercion failure) at this element: record it
				// once and null out just this position, unless the element's own type is non-null.
				wrapped := NewFieldCompletionError(elemPath, frame.cf.MergedField[0], err)
				frame.p.Errors.Add(wrapped)
				if elemNonNull {
					return ResolvedValue{}, &NonNullableFieldWasNullError{Path: elemPath}
				}
				elems[i] = ResolvedValue{Null: true}
				continue
			}
			elems[i] = elem
		}
		return ResolvedValue{List: elems}, nil

	case graphql.Object:
		obj, err := fr.launchNestedObject(ctx, frame, tt, v, path, nested)
		if err != nil {
			return ResolvedValue{}, err
		}
		return ResolvedValue{Object: obj}, nil

	case graphql.AbstractType:
		concrete, err := fr.resolveAbstractType(ctx, frame, tt, v, path)
		if err != nil {
			return ResolvedValue{}, err
		}
		obj, err := fr.launchNestedObject(ctx, frame, concrete, v, path, nested)
		if err != nil {
			return ResolvedValue{}, err
		}
		return ResolvedValue{Object: obj}, nil

	case graphql.LeafType:
		coerced, err := tt.CoerceResultValue(v)
		if err != nil {
			return ResolvedValue{}, err
		}
		return ResolvedValue{Leaf: coerced}, nil

	default:
		return ResolvedValue{}, fmt.Errorf("executor: unsupported field type %T", t)
	}
}

// resolveAbstractType invokes the schema-declared TypeResolver for an Interface/Union value. It is
// the one call site in the engine that unavoidably needs a full graphql.ResolveInfo (see
// resolveinfo.go); every other resolution path goes through DispatcherRegistry directly.
func (fr FieldResolver) resolveAbstractType(
	ctx context.Context,
	frame completionFrame,
	abstractType graphql.AbstractType,
	v interface{},
	path graphql.ResponsePath,
) (graphql.Object, error) {
	resolver := abstractType.TypeResolver()
	if resolver == nil {
		return nil, fmt.Errorf("executor: abstract type %q has no type resolver", abstractType.Name())
	}

	info := &engineResolveInfo{
		params:      frame.p,
		field:       frame.fieldDef,
		mergedField: frame.cf.MergedField,
		path:        path,
		args:        frame.arguments,
	}

	objPtr, err := resolver.Resolve(ctx, v, info)
	if err != nil {
		return nil, err
	}
	if objPtr == nil || *objPtr == nil {
		return nil, fmt.Errorf("executor: type resolver for %q could not determine a concrete type", abstractType.Name())
	}
	return *objPtr, nil
}

// childQueryPlanForSelection derives a QueryPlan for a nested object: same Fragments (collected once
// per top-level plan) and Attribution as parent, a different SelectionSet/ParentType.
func childQueryPlanForSelection(parent *QueryPlan, sel *SelectionSetNode, parentType graphql.Type) *QueryPlan {
	return &QueryPlan{
		SelectionSet:       sel,
		Fragments:          parent.Fragments,
		ParentType:         parentType,
		ExecutionCondition: Always,
		Attribution:        parent.Attribution,
	}
}

// launchNestedObject allocates a fresh OER for a just-resolved object value and launches (under the
// request's RequestSupervisor) both its direct field selection and any type-checker RSS registered
// for its concrete type, merged into the same OER via ComputeIfAbsent's per-key dedup.
func (fr FieldResolver) launchNestedObject(
	ctx context.Context,
	frame completionFrame,
	concrete graphql.Object,
	v interface{},
	path graphql.ResponsePath,
	nested *[]Value[struct{}],
) (*NestedObject, error) {
	p := frame.p
	cf := frame.cf

	nestedOER := NewObjectEngineResult()

	ready := Launch(p.Supervisor, func(ctx context.Context) (struct{}, error) {
		if cf.SelectionSet != nil {
			childPlan := childQueryPlanForSelection(p.Plan, cf.SelectionSet, concrete)
			childParams := p.WithNode(childPlan, concrete, v, nestedOER, path)
			if _, err := fr.FetchObject(ctx, childParams); err != nil {
				return struct{}{}, err
			}
		}
		if builder, ok := cf.FieldTypeChildPlans[concrete.Name()]; ok {
			if typePlan := builder(); typePlan != nil {
				typeParams := p.WithNode(typePlan, concrete, v, nestedOER, path)
				if _, err := fr.FetchObject(ctx, typeParams); err != nil {
					return struct{}{}, err
				}
			}
		}
		return struct{}{}, nil
	})

	*nested = append(*nested, ready)

	return &NestedObject{Type: concrete, Value: v, OER: nestedOER, Ready: ready}, nil
}
