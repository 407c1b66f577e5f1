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

package executor_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/botobag/viaduct/concurrent"
	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
	"github.com/botobag/viaduct/graphql/executor"
	"github.com/botobag/viaduct/graphql/parser"
	"github.com/botobag/viaduct/graphql/token"
	"github.com/botobag/viaduct/internal/testutil"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// parseSelectionSet parses body (a full operation, e.g. "{ firstName lastName }") and returns its
// selection set, for use as a RequiredSelectionSet's Selections.
func parseSelectionSet(body string) ast.SelectionSet {
	document, err := parser.Parse(token.NewSource(&token.SourceConfig{
		Body: token.SourceBody([]byte(body)),
	}), parser.ParseOptions{})
	Expect(err).ShouldNot(HaveOccurred())
	op, ok := document.Definitions[0].(*ast.OperationDefinition)
	Expect(ok).Should(BeTrue())
	return op.SelectionSet
}

// denyingCheckerDispatcher is a CheckerDispatcher that always denies with reason.
type denyingCheckerDispatcher struct {
	reason error
}

func (d *denyingCheckerDispatcher) RequiredSelectionSets() map[string]*executor.RequiredSelectionSet {
	return nil
}

func (d *denyingCheckerDispatcher) Check(
	ctx context.Context,
	arguments graphql.ArgumentValues,
	dfe executor.EngineObjectDataAccessor,
	gqlContext interface{},
) executor.Value[*executor.CheckerResult] {
	return executor.Sync(&executor.CheckerResult{Kind: executor.CheckerResultDenied, Error: d.reason})
}

// singleFieldRegistry is a DispatcherRegistry that overrides the field resolver dispatcher and/or
// checker dispatcher for exactly one (type, field) coordinate, deferring everything else to
// LegacyResolverRegistry's all-nil defaults.
type singleFieldRegistry struct {
	executor.LegacyResolverRegistry

	checkerType  graphql.Object
	checkerField graphql.Field
	checker      executor.CheckerDispatcher

	resolverType  graphql.Object
	resolverField graphql.Field
	resolver      executor.FieldResolverDispatcher
	resolverRSS   []*executor.RequiredSelectionSet
}

func (r *singleFieldRegistry) GetFieldCheckerDispatcher(t graphql.Object, field graphql.Field) executor.CheckerDispatcher {
	if r.checker != nil && t == r.checkerType && field == r.checkerField {
		return r.checker
	}
	return nil
}

func (r *singleFieldRegistry) GetFieldResolverDispatcher(t graphql.Object, field graphql.Field) executor.FieldResolverDispatcher {
	if r.resolver != nil && t == r.resolverType && field == r.resolverField {
		return r.resolver
	}
	return nil
}

func (r *singleFieldRegistry) GetFieldResolverRequiredSelectionSets(t graphql.Object, field graphql.Field) []*executor.RequiredSelectionSet {
	if r.resolver != nil && t == r.resolverType && field == r.resolverField {
		return r.resolverRSS
	}
	return nil
}

// fullNameDispatcher resolves User.fullName by reading its RSS ({ firstName lastName }) off the
// object accessor the engine hands it, rather than touching the source value directly -- this is
// what exercises unwrapRSSValue.
type fullNameDispatcher struct {
	rss *executor.RequiredSelectionSet
}

func (d *fullNameDispatcher) ObjectSelectionSet() *executor.RequiredSelectionSet { return d.rss }
func (d *fullNameDispatcher) QuerySelectionSet() *executor.RequiredSelectionSet  { return nil }
func (d *fullNameDispatcher) HasRequiredSelectionSets() bool                     { return true }
func (d *fullNameDispatcher) ResolverMetadata() interface{}                     { return nil }

func (d *fullNameDispatcher) Resolve(
	ctx context.Context,
	arguments graphql.ArgumentValues,
	objectValue executor.EngineObjectDataAccessor,
	queryValue executor.EngineObjectDataAccessor,
	selections []executor.CollectedField,
	gqlContext interface{},
) (interface{}, error) {
	first, err := objectValue.Get("firstName")
	if err != nil {
		return nil, err
	}
	last, err := objectValue.Get("lastName")
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("%s %s", first, last), nil
}

var _ = DescribeExecute("Engine end-to-end execution", func(runner concurrent.Executor) {

	It("resolves a simple scalar field", func() {
		queryType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"hello": {
					Type: graphql.T(graphql.String()),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						return "world", nil
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		schema, err := graphql.NewSchema(&graphql.SchemaConfig{Query: queryType})
		Expect(err).ShouldNot(HaveOccurred())

		result := parseAndExecute(schema, "{ hello }", nil, runner, nil)
		Expect(result.Errors.HaveOccurred()).Should(BeFalse())
		Expect(result).Should(MatchResultInJSON(`{"data": {"hello": "world"}}`))
	})

	It("bubbles a non-null field's fetch error all the way to the response root", func() {
		innerType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Inner",
			Fields: graphql.Fields{
				"value": {
					Type: graphql.T(graphql.MustNewNonNullOfType(graphql.Int())),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						return nil, errors.New("boom")
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		queryType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"inner": {
					Type: graphql.T(graphql.MustNewNonNullOfType(innerType)),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						return struct{}{}, nil
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		schema, err := graphql.NewSchema(&graphql.SchemaConfig{Query: queryType})
		Expect(err).ShouldNot(HaveOccurred())

		result := parseAndExecute(schema, "{ inner { value } }", nil, runner, nil)

		Expect(result.Data).Should(BeNil())
		Expect(result.Errors).Should(testutil.ConsistOfGraphQLErrors(
			testutil.MatchGraphQLError(
				testutil.MessageEqual("boom"),
				testutil.PathEqual("inner.value"),
				testutil.KindIs(graphql.ErrKindExecution),
			),
		))
	})

	It("nulls only the list element that fails to coerce, keeping its siblings", func() {
		queryType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"xs": {
					Type: graphql.T(graphql.MustNewListOfType(graphql.Int())),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						return []interface{}{1, 2, struct{}{}, 4}, nil
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		schema, err := graphql.NewSchema(&graphql.SchemaConfig{Query: queryType})
		Expect(err).ShouldNot(HaveOccurred())

		result := parseAndExecute(schema, "{ xs }", nil, runner, nil)

		Expect(result).Should(MatchResultInJSON(`{"data": {"xs": [1, 2, null, 4]}}`))
		Expect(result.Errors).Should(testutil.ConsistOfGraphQLErrors(
			testutil.MatchGraphQLError(
				testutil.PathEqual("xs[2]"),
				testutil.KindIs(graphql.ErrKindExecution),
			),
		))
	})

	It("denies a mutation's top-level field before its fetcher ever runs", func() {
		var fetchCount int32

		mutationType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"setName": {
					Type: graphql.T(graphql.String()),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						atomic.AddInt32(&fetchCount, 1)
						return "updated", nil
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		queryType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"noop": {Type: graphql.T(graphql.String())},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		schema, err := graphql.NewSchema(&graphql.SchemaConfig{Query: queryType, Mutation: mutationType})
		Expect(err).ShouldNot(HaveOccurred())

		registry := &singleFieldRegistry{
			checkerType:  mutationType,
			checkerField: mutationType.Fields()["setName"],
			checker:      &denyingCheckerDispatcher{reason: errors.New("not allowed")},
		}

		result := parseAndExecute(schema, "mutation { setName }", registry, runner, nil)

		Expect(atomic.LoadInt32(&fetchCount)).Should(BeEquivalentTo(0))
		Expect(result).Should(MatchResultInJSON(`{"data": {"setName": null}}`))
		Expect(result.Errors).Should(testutil.ConsistOfGraphQLErrors(
			testutil.MatchGraphQLError(
				testutil.MessageEqual("not allowed"),
				testutil.PathEqual("setName"),
			),
		))
	})

	Describe("a resolver whose data dependency is declared as a required selection set", func() {
		var (
			schema        graphql.Schema
			userType      *graphql.Object
			firstNameHits int32
			lastNameHits  int32
		)

		BeforeEach(func() {
			atomic.StoreInt32(&firstNameHits, 0)
			atomic.StoreInt32(&lastNameHits, 0)

			source := map[string]interface{}{"id": 1, "firstName": "Ada", "lastName": "Lovelace"}

			var err error
			userType, err = graphql.NewObject(&graphql.ObjectConfig{
				Name: "User",
				Fields: graphql.Fields{
					"id": {Type: graphql.T(graphql.Int())},
					"firstName": {
						Type: graphql.T(graphql.String()),
						Resolver: graphql.FieldResolverFunc(func(ctx context.Context, src interface{}, info graphql.ResolveInfo) (interface{}, error) {
							atomic.AddInt32(&firstNameHits, 1)
							return src.(map[string]interface{})["firstName"], nil
						}),
					},
					"lastName": {
						Type: graphql.T(graphql.String()),
						Resolver: graphql.FieldResolverFunc(func(ctx context.Context, src interface{}, info graphql.ResolveInfo) (interface{}, error) {
							atomic.AddInt32(&lastNameHits, 1)
							return src.(map[string]interface{})["lastName"], nil
						}),
					},
					"fullName": {Type: graphql.T(graphql.String())},
				},
			})
			Expect(err).ShouldNot(HaveOccurred())

			queryType, err := graphql.NewObject(&graphql.ObjectConfig{
				Name: "Query",
				Fields: graphql.Fields{
					"user": {
						Type: graphql.T(userType),
						Resolver: graphql.FieldResolverFunc(func(ctx context.Context, src interface{}, info graphql.ResolveInfo) (interface{}, error) {
							return source, nil
						}),
					},
				},
			})
			Expect(err).ShouldNot(HaveOccurred())

			schema, err = graphql.NewSchema(&graphql.SchemaConfig{Query: queryType})
			Expect(err).ShouldNot(HaveOccurred())
		})

		registryFor := func() executor.DispatcherRegistry {
			return &singleFieldRegistry{
				resolverType:  userType,
				resolverField: userType.Fields()["fullName"],
				resolver: &fullNameDispatcher{
					rss: &executor.RequiredSelectionSet{
						Type:       userType,
						Source:     "{ firstName lastName }",
						Selections: parseSelectionSet("{ firstName lastName }"),
					},
				},
				resolverRSS: []*executor.RequiredSelectionSet{{
					Type:       userType,
					Source:     "{ firstName lastName }",
					Selections: parseSelectionSet("{ firstName lastName }"),
				}},
			}
		}

		It("computes the derived field from its RSS data", func() {
			result := parseAndExecute(schema, "{ user { fullName } }", registryFor(), runner, nil)
			Expect(result.Errors.HaveOccurred()).Should(BeFalse())
			Expect(result).Should(MatchResultInJSON(`{"data": {"user": {"fullName": "Ada Lovelace"}}}`))
		})

		It("fetches a field referenced by both a direct selection and a sibling's RSS exactly once", func() {
			result := parseAndExecute(schema, "{ user { firstName lastName fullName } }", registryFor(), runner, nil)
			Expect(result.Errors.HaveOccurred()).Should(BeFalse())
			Expect(result).Should(MatchResultInJSON(`{
				"data": {"user": {"firstName": "Ada", "lastName": "Lovelace", "fullName": "Ada Lovelace"}}
			}`))
			Expect(atomic.LoadInt32(&firstNameHits)).Should(BeEquivalentTo(1))
			Expect(atomic.LoadInt32(&lastNameHits)).Should(BeEquivalentTo(1))
		})
	})

	It("produces identical results for a nested object whether or not fields run on a worker pool", func() {
		innerType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Inner",
			Fields: graphql.Fields{
				"value": {
					Type: graphql.T(graphql.Int()),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						return 42, nil
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		queryType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"inner": {
					Type: graphql.T(innerType),
					Resolver: graphql.FieldResolverFunc(func(ctx context.Context, source interface{}, info graphql.ResolveInfo) (interface{}, error) {
						return struct{}{}, nil
					}),
				},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		schema, err := graphql.NewSchema(&graphql.SchemaConfig{Query: queryType})
		Expect(err).ShouldNot(HaveOccurred())

		result := parseAndExecute(schema, "{ inner { value } }", nil, runner, nil)
		Expect(result.Errors.HaveOccurred()).Should(BeFalse())
		Expect(result).Should(MatchResultInJSON(`{"data": {"inner": {"value": 42}}}`))
	})
})

var _ = Describe("PlanCache", func() {
	It("returns the identical QueryPlan for repeated builds of the same key", func() {
		queryType, err := graphql.NewObject(&graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"hello": {Type: graphql.T(graphql.String())},
			},
		})
		Expect(err).ShouldNot(HaveOccurred())

		schema, err := graphql.NewSchema(&graphql.SchemaConfig{Query: queryType})
		Expect(err).ShouldNot(HaveOccurred())

		selectionSet := parseSelectionSet("{ hello }")
		fragmentDefs := map[string]*ast.FragmentDefinition{}
		registry := executor.LegacyResolverRegistry{}

		key := executor.PlanCacheKey{DocumentKey: "q1", OperationName: "q1", SchemaVersion: "v1"}

		cache := executor.NewPlanCache()
		first, err := cache.GetOrBuild(key, schema, registry, queryType, selectionSet, fragmentDefs, false)
		Expect(err).ShouldNot(HaveOccurred())

		second, err := cache.GetOrBuild(key, schema, registry, queryType, selectionSet, fragmentDefs, false)
		Expect(err).ShouldNot(HaveOccurred())

		Expect(second).Should(BeIdenticalTo(first))
	})
})
