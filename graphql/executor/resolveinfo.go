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

// engineResolveInfo is the bridge between the dispatcher-centric engine and the two call sites that
// still require a graphql.ResolveInfo: a schema's own graphql.TypeResolver (abstract type
// resolution, which the teacher's type_definitions.go defines entirely in terms of ResolveInfo) and
// DefaultFieldResolver (default_field_resolver.go), used as the fallback when DispatcherRegistry has
// no FieldResolverDispatcher registered for a coordinate. Every other resolution path in this engine
// goes through DispatcherRegistry directly and never touches this type.
//
// It embeds graphql.DataLoaderManagerBase so a resolver reached through the fallback path can still
// batch through a *dataloader.DataLoader the way the teacher's execution_context.go wired it.
type engineResolveInfo struct {
	graphql.DataLoaderManagerBase

	params      ExecutionParameters
	field       graphql.Field
	mergedField []*ast.Field
	path        graphql.ResponsePath
	args        graphql.ArgumentValues
}

var _ graphql.ResolveInfo = (*engineResolveInfo)(nil)

func (i *engineResolveInfo) Schema() graphql.Schema                 { return i.params.Schema }
func (i *engineResolveInfo) Document() ast.Document                 { return i.params.Document }
func (i *engineResolveInfo) Operation() *ast.OperationDefinition    { return i.params.Operation }
func (i *engineResolveInfo) DataLoaderManager() graphql.DataLoaderManager {
	return &i.DataLoaderManagerBase
}
func (i *engineResolveInfo) RootValue() interface{}            { return i.params.RootValue }
func (i *engineResolveInfo) AppContext() interface{}            { return i.params.GqlContext }
func (i *engineResolveInfo) VariableValues() graphql.VariableValues { return i.params.Variables }

// ParentFieldSelection has no engine analogue (the dispatcher model never builds a FieldSelectionInfo
// chain); resolvers reached through the fallback path that need it must migrate to a
// FieldResolverDispatcher.
func (i *engineResolveInfo) ParentFieldSelection() graphql.FieldSelectionInfo { return nil }

func (i *engineResolveInfo) Object() graphql.Object            { return i.params.ObjectType }
func (i *engineResolveInfo) FieldDefinitions() []*ast.Field    { return i.mergedField }
func (i *engineResolveInfo) Field() graphql.Field              { return i.field }
func (i *engineResolveInfo) Path() graphql.ResponsePath        { return i.path }
func (i *engineResolveInfo) Args() graphql.ArgumentValues      { return i.args }
