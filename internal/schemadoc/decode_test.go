package schemadoc

import "testing"

/*
TestDecodeLossy verifies that valid UTF-8 passes through untouched and that
arbitrary byte content decodes latin-1 style instead of failing.
*/
func TestDecodeLossy(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"ascii", []byte("plain text"), "plain text"},
		{"utf8", []byte("caf\xc3\xa9"), "café"},
		{"latin1", []byte("caf\xe9"), "café"},
		{"mixed junk", []byte{'a', 0xFF, 'b'}, "aÿb"},
		{"empty", nil, ""},
	}
	for _, tt := range tests {
		if got := DecodeLossy(tt.in); got != tt.want {
			t.Errorf("%s: DecodeLossy = %q, want %q", tt.name, got, tt.want)
		}
	}
}
