package replicate

import (
	"fmt"

	"github.com/google/uuid"
)

// mutate appends an inert variant trailer so each mutated replica carries a
// different checksum. Trailing bytes sit past the program image and are never
// executed — this models polymorphism as checksum variance only.
func mutate(data []byte) []byte {
	trailer := fmt.Sprintf("\n# replicant-variant %s (inert)\n", uuid.NewString())
	out := make([]byte, 0, len(data)+len(trailer))
	out = append(out, data...)
	return append(out, trailer...)
}
