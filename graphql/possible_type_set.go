/**
 * Copyright (c) 2018, The Artemis Authors.
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

package graphql

// PossibleTypeSet tracks the concrete Object types that implement an Interface or belong to a
// Union. Schema.PossibleTypes and Union.PossibleTypes return one of these; membership is tested
// with Contains, and the full set can be walked with Types when every member is needed (e.g. to
// narrow a QueryPlan's Constraints against every concrete type an abstract field could return).
type PossibleTypeSet struct {
	types map[Object]bool
}

// NewPossibleTypeSet creates an empty PossibleTypeSet.
func NewPossibleTypeSet() PossibleTypeSet {
	return PossibleTypeSet{types: map[Object]bool{}}
}

// Add inserts t into the set.
func (set PossibleTypeSet) Add(t Object) {
	set.types[t] = true
}

// Contains reports whether t is a member of the set.
func (set PossibleTypeSet) Contains(t Object) bool {
	return set.types[t]
}

// Len returns the number of member types.
func (set PossibleTypeSet) Len() int {
	return len(set.types)
}

// Types returns every member Object, in no particular order.
func (set PossibleTypeSet) Types() []Object {
	types := make([]Object, 0, len(set.types))
	for t := range set.types {
		types = append(types, t)
	}
	return types
}
