// Package aasx decodes AASX package containers into entity lists.
//
// The decoder is a trusted collaborator: structural validation stops at
// container integrity and entity identity. Full IDTA schema conformance
// is out of scope; the import pipeline only needs the ordered entity
// lists and a malformed-or-not verdict.
package aasx

import (
	"context"

	"github.com/industrialdt/aashub/internal/aas"
)

// Decoder turns a raw package blob into its contained environment.
type Decoder interface {
	// Decode parses blob and returns the contained entities. Malformed
	// containers surface as errors.CodePackageMalformed; such failures
	// are terminal and must not be retried.
	Decode(ctx context.Context, blob []byte) (aas.Environment, error)
}
