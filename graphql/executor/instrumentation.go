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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func attributePath(path graphql.ResponsePath) attribute.KeyValue {
	return attribute.String("graphql.path", path.String())
}

// InstrumentationContext is returned by every Instrumentation hook below. OnCompleted MUST be
// called exactly once per hook invocation (spec.md §6); callers call it explicitly once the hooked
// work has finished.
type InstrumentationContext interface {
	OnDispatched()
	OnCompleted(value interface{}, err error)
}

// Instrumentation is the engine's observability seam (spec.md §6): a hook per pipeline stage that
// returns a context object bracketing that stage's execution.
type Instrumentation interface {
	BeginFetchObject(ctx context.Context, objectType graphql.Object, path graphql.ResponsePath) InstrumentationContext
	BeginCompleteObject(ctx context.Context, objectType graphql.Object, path graphql.ResponsePath) InstrumentationContext
	BeginFieldExecution(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext
	BeginFieldFetching(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext
	BeginFieldCompletion(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext
	BeginFieldListCompletion(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext
	InstrumentDataFetcher(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext
	InstrumentAccessCheck(ctx context.Context, path graphql.ResponsePath) InstrumentationContext
}

type noopInstrumentationContext struct{}

func (noopInstrumentationContext) OnDispatched()                      {}
func (noopInstrumentationContext) OnCompleted(interface{}, error) {}

// NoopInstrumentation discards every hook; it is Constants.Instrumentation's default.
type NoopInstrumentation struct{}

func (NoopInstrumentation) BeginFetchObject(context.Context, graphql.Object, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) BeginCompleteObject(context.Context, graphql.Object, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) BeginFieldExecution(context.Context, graphql.Field, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) BeginFieldFetching(context.Context, graphql.Field, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) BeginFieldCompletion(context.Context, graphql.Field, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) BeginFieldListCompletion(context.Context, graphql.Field, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) InstrumentDataFetcher(context.Context, graphql.Field, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}
func (NoopInstrumentation) InstrumentAccessCheck(context.Context, graphql.ResponsePath) InstrumentationContext {
	return noopInstrumentationContext{}
}

// otelInstrumentationContext backs a span for the duration between OnDispatched and OnCompleted.
type otelInstrumentationContext struct {
	span trace.Span
}

func (c *otelInstrumentationContext) OnDispatched() {}

func (c *otelInstrumentationContext) OnCompleted(value interface{}, err error) {
	if err != nil {
		c.span.RecordError(err)
	}
	c.span.End()
}

// OTelInstrumentation reports every hook as an OpenTelemetry span, named after the stage and the
// response path it covers.
type OTelInstrumentation struct {
	Tracer trace.Tracer
}

// NewOTelInstrumentation builds an OTelInstrumentation using the global TracerProvider under the
// given instrumentation name.
func NewOTelInstrumentation(name string) OTelInstrumentation {
	return OTelInstrumentation{Tracer: otel.Tracer(name)}
}

func (o OTelInstrumentation) span(ctx context.Context, stage string, path graphql.ResponsePath) InstrumentationContext {
	_, span := o.Tracer.Start(ctx, "graphql."+stage, trace.WithAttributes(
		attributePath(path),
	))
	return &otelInstrumentationContext{span: span}
}

func (o OTelInstrumentation) BeginFetchObject(ctx context.Context, objectType graphql.Object, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "fetch_object", path)
}
func (o OTelInstrumentation) BeginCompleteObject(ctx context.Context, objectType graphql.Object, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "complete_object", path)
}
func (o OTelInstrumentation) BeginFieldExecution(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "field_execution", path)
}
func (o OTelInstrumentation) BeginFieldFetching(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "field_fetching", path)
}
func (o OTelInstrumentation) BeginFieldCompletion(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "field_completion", path)
}
func (o OTelInstrumentation) BeginFieldListCompletion(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "field_list_completion", path)
}
func (o OTelInstrumentation) InstrumentDataFetcher(ctx context.Context, field graphql.Field, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "data_fetcher", path)
}
func (o OTelInstrumentation) InstrumentAccessCheck(ctx context.Context, path graphql.ResponsePath) InstrumentationContext {
	return o.span(ctx, "access_check", path)
}
