// Package carp assembles openCARP command lines.
//
// A command is an ordered list of key/value options. Values are scalar
// tokens rendered the way the simulator's helper scripts render them, so a
// command assembled here is byte-identical to one produced by hand.
package carp

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar type of a Token.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// Token is one scalar command-line value.
type Token struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// Str returns a string token.
func Str(s string) Token { return Token{kind: KindString, s: s} }

// Int returns an integer token.
func Int(i int64) Token { return Token{kind: KindInt, i: i} }

// Float returns a floating point token.
func Float(f float64) Token { return Token{kind: KindFloat, f: f} }

// Kind returns the token's scalar type.
func (t Token) Kind() Kind { return t.kind }

// String renders the token as a single argv element.
func (t Token) String() string {
	switch t.kind {
	case KindInt:
		return strconv.FormatInt(t.i, 10)
	case KindFloat:
		return FormatFloat(t.f)
	default:
		return t.s
	}
}

// FormatFloat renders f in shortest round-trip form. The result always
// carries a decimal point or an exponent, so 20 renders as "20.0" and
// 0.00001 as "1e-05".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
