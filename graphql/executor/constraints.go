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

// SolveResult is the outcome of evaluating a Constraints against a concrete type and a set of
// variable values.
type SolveResult uint8

// Enumeration of SolveResult.
const (
	Keep SolveResult = iota
	Drop
)

// directiveCondition is a single @skip/@include-shaped conditional: IfArgument names the boolean
// argument ("if") and KeepWhenTrue reports whether the directive keeps the selection when that argument
// evaluates to true (@include) or to false (@skip).
type directiveCondition struct {
	DirectiveName string
	IfArgument    string
	KeepWhenTrue  bool
}

// Constraints is a normalized conjunction of directive conditions and an allowed-concrete-type set,
// as described in spec.md Design Notes. Constraints are immutable; And/Narrow/WithDirectives return
// a new value.
type Constraints struct {
	directives     []directiveCondition
	allowedTypes   map[string]bool // nil means "no narrowing applied", i.e. all types allowed
}

// AlwaysConstraints is the identity Constraints: always Keep, no type narrowing.
func AlwaysConstraints() Constraints {
	return Constraints{}
}

// And returns the conjunction of two Constraints.
func (c Constraints) And(other Constraints) Constraints {
	result := c
	result.directives = append(append([]directiveCondition{}, c.directives...), other.directives...)
	result.allowedTypes = intersectTypeSets(c.allowedTypes, other.allowedTypes)
	return result
}

// Narrow intersects the Constraints' allowed concrete types with possible.
func (c Constraints) Narrow(possible []graphql.Object) Constraints {
	set := make(map[string]bool, len(possible))
	for _, t := range possible {
		set[t.Name()] = true
	}
	result := c
	result.allowedTypes = intersectTypeSets(c.allowedTypes, set)
	return result
}

func intersectTypeSets(a, b map[string]bool) map[string]bool {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	out := make(map[string]bool)
	for name := range a {
		if b[name] {
			out[name] = true
		}
	}
	return out
}

// WithDirectives folds @skip/@include (and, in principle, any other boolean-argument conditional
// directive) found on an AST node's directive list into the Constraints.
func (c Constraints) WithDirectives(directives ast.Directives) Constraints {
	result := c
	result.directives = append([]directiveCondition{}, c.directives...)
	for _, d := range directives {
		name := d.Name.Value()
		switch name {
		case "skip":
			result.directives = append(result.directives, directiveCondition{
				DirectiveName: name, IfArgument: "if", KeepWhenTrue: false,
			})
		case "include":
			result.directives = append(result.directives, directiveCondition{
				DirectiveName: name, IfArgument: "if", KeepWhenTrue: true,
			})
		}
	}
	return result
}

// Solve evaluates the Constraints against variables and, when relevant, the concrete type actually
// observed. concreteType may be "" when no type-narrowing check is needed at this call site.
func (c Constraints) Solve(directiveArgs map[string]graphql.ArgumentValues, concreteType string) SolveResult {
	if c.allowedTypes != nil && concreteType != "" && !c.allowedTypes[concreteType] {
		return Drop
	}

	for _, cond := range c.directives {
		args := directiveArgs[cond.DirectiveName]
		v, _ := args.Lookup(cond.IfArgument)
		flag, _ := v.(bool)
		if flag != cond.KeepWhenTrue {
			return Drop
		}
	}

	return Keep
}
