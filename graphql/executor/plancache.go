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
	"fmt"

	"github.com/botobag/viaduct/graphql"
	"github.com/botobag/viaduct/graphql/ast"
	"github.com/modern-go/concurrent"
	"golang.org/x/sync/singleflight"
)

// PlanCacheKey identifies a cached QueryPlan: the document's own identity (callers are expected to
// key documentKey off of something stable -- the raw query text's hash, or a persisted-query ID),
// the operation name within it (multi-operation documents), and the schema's identity (so two
// schema versions served from the same process never share a plan).
type PlanCacheKey struct {
	DocumentKey   string
	OperationName string
	SchemaVersion string
}

// PlanCache memoizes BuildQueryPlan by PlanCacheKey across requests, per spec.md §4.1's "plans are
// cached and reused across requests for the same operation" requirement. A singleflight.Group
// collapses concurrent cache misses for the same key into a single BuildQueryPlan call, the way the
// teacher's PreparedOperation cache (execute.go) relies on its caller to serialize parsing -- here
// made explicit and safe for concurrent callers instead.
type PlanCache struct {
	m     *concurrent.Map
	group singleflight.Group
}

// NewPlanCache returns an empty PlanCache.
func NewPlanCache() *PlanCache {
	return &PlanCache{m: concurrent.NewMap()}
}

// GetOrBuild returns the cached QueryPlan for key, building it with BuildQueryPlan (and caching the
// result) on a miss.
func (c *PlanCache) GetOrBuild(
	key PlanCacheKey,
	schema graphql.Schema,
	registry DispatcherRegistry,
	parentType graphql.Type,
	selectionSet ast.SelectionSet,
	fragmentDefs map[string]*ast.FragmentDefinition,
	executeAccessChecksInModstrat bool,
) (*QueryPlan, error) {
	if cached, ok := c.m.Load(key); ok {
		return cached.(*QueryPlan), nil
	}

	groupKey := fmt.Sprintf("%s/%s/%s", key.SchemaVersion, key.DocumentKey, key.OperationName)
	v, err, _ := c.group.Do(groupKey, func() (interface{}, error) {
		if cached, ok := c.m.Load(key); ok {
			return cached.(*QueryPlan), nil
		}
		plan, err := BuildQueryPlan(schema, registry, parentType, selectionSet, fragmentDefs, executeAccessChecksInModstrat, key.OperationName)
		if err != nil {
			return nil, err
		}
		c.m.Store(key, plan)
		return plan, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*QueryPlan), nil
}

// Invalidate drops a single cached plan (e.g. because its schema version rotated).
func (c *PlanCache) Invalidate(key PlanCacheKey) {
	c.m.Delete(key)
}
