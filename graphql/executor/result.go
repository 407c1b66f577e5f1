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
	"github.com/botobag/viaduct/jsonwriter"
)

// ExecutionResult is what ExecutionStrategy.Execute returns: the completed response tree alongside
// every error accumulated while producing it. Data is nil only when the operation failed before (or
// during) producing a root object -- a *ResponseObject with no fields set is a distinct, valid
// "object with nothing requested" result.
type ExecutionResult struct {
	Data   *ResponseObject
	Errors graphql.Errors
}

var _ jsonwriter.ValueMarshaler = (*ExecutionResult)(nil)

// MarshalJSONTo implements jsonwriter.ValueMarshaler, writing "errors" before "data" per the
// response format note in the GraphQL specification.
func (result *ExecutionResult) MarshalJSONTo(stream *jsonwriter.Stream) error {
	stream.WriteObjectStart()

	if result.Errors.HaveOccurred() {
		stream.WriteObjectField("errors")
		stream.WriteArrayStart()
		for i, err := range result.Errors.Errors {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteInterface(err)
		}
		stream.WriteArrayEnd()
		if result.Data != nil {
			stream.WriteMore()
		}
	}

	if result.Data != nil {
		stream.WriteObjectField("data")
		stream.WriteValue(result.Data)
	}

	stream.WriteObjectEnd()
	return stream.Error()
}

// MarshalJSON lets ExecutionResult satisfy encoding/json.Marshaler directly, for callers (HTTP
// handlers, test assertions) that don't go through jsonwriter themselves.
func (result *ExecutionResult) MarshalJSON() ([]byte, error) {
	return jsonwriter.Marshal(result)
}
