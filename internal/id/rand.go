package id

import (
	"context"

	"github.com/dhruvilrpatil/urlshortner/internal/core"
)

// Generator implements core.CodeGenerator using random base62 codes.
type Generator struct{}

// NewGenerator creates a code generator producing CodeLength-character codes.
func NewGenerator() *Generator {
	return &Generator{}
}

// NewCode generates a new random code.
func (g *Generator) NewCode(_ context.Context) (string, error) {
	return RandomCode()
}

// Ensure *Generator satisfies the interface at compile-time.
var _ core.CodeGenerator = (*Generator)(nil)
