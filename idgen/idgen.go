// Package idgen produces the short public codes players type to join a game.
package idgen

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DefaultLength is the number of characters in a game code.
	DefaultLength = 6
)

var alphabetSize = big.NewInt(int64(len(alphabet)))

// Generator draws fixed-length codes from an uppercase alphabet. Codes are not
// unique by construction; the registry rejects collisions.
type Generator struct {
	length int
}

func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Length returns the number of characters in generated codes.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a new random code.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic("idgen: crypto/rand failed: " + err.Error())
		}
		b.WriteByte(alphabet[n.Int64()])
	}
	return b.String()
}

// Valid reports whether code has the generator's length and alphabet,
// ignoring case and surrounding space.
func (g *Generator) Valid(code string) bool {
	code = Normalize(code)
	if len(code) != g.length {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Normalize upper-cases a user-typed code so lookups are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
