// Package sluggen derives slugs from counter values. Generation is
// deterministic and counter-driven, never random: the same (n, minWidth)
// pair always produces the same slug, and slug length is monotone
// non-decreasing in n.
package sluggen

import "github.com/sundayezeilo/urlshortener/internal/domain"

// DefaultMinWidth is the minimum slug width used by LinkService when the
// caller does not override it.
const DefaultMinWidth = 5

// Generator derives a slug string from a reserved counter value.
// Implementations must be pure and safe for concurrent use.
type Generator interface {
	Derive(n uint64, minWidth int) string
}

// base62Generator implements Generator over domain.EncodeBase62.
type base62Generator struct{}

// NewBase62 returns the counter-driven base62 slug generator.
func NewBase62() Generator {
	return &base62Generator{}
}

// Derive encodes n in base62 and left-pads with '0' to at least minWidth
// characters. It never errors: EncodeBase62 is total over uint64, and
// padding a string that is already long enough is a no-op.
func (g *base62Generator) Derive(n uint64, minWidth int) string {
	return domain.PadLeft(domain.EncodeBase62(n), minWidth)
}
