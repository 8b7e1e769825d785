package schemadoc

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeLossy converts raw document bytes to a string without ever failing.
// Valid UTF-8 passes through unchanged; anything else is decoded as Latin-1,
// which maps every byte to a rune. Government schema docs are frequently
// published in Latin-1 with stray control bytes.
func DecodeLossy(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().String(string(b))
	if err != nil {
		// ISO 8859-1 decoding is total; this path is unreachable in practice,
		// but fall back to replacement-rune conversion just in case.
		return string([]rune(string(b)))
	}
	return s
}
