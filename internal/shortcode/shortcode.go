// Package shortcode generates compact, human-facing order codes such as "ORD-7KQ2M9XZ".
package shortcode

import (
	"errors"
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet omits characters that are easy to confuse when read aloud or over the phone (0/O, 1/I/L).
const Alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	DefaultPrefix = "ORD"
	DefaultLength = 8
	minLength     = 6
)

var ErrInvalidLength = errors.New("short code length must be at least 6")

type Generator struct {
	prefix string
	length int
}

// New returns a generator producing prefix + "-" + length random characters.
// An empty prefix yields bare codes.
func New(prefix string, length int) (*Generator, error) {
	if length < minLength {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, length)
	}
	return &Generator{prefix: strings.ToUpper(strings.TrimSpace(prefix)), length: length}, nil
}

func (g *Generator) Generate() (string, error) {
	suffix, err := gonanoid.Generate(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("generate short code: %w", err)
	}
	if g.prefix == "" {
		return suffix, nil
	}
	return g.prefix + "-" + suffix, nil
}
