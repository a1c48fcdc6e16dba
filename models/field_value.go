package models

import (
	"errors"
	"fmt"
	"strings"
)

// ValueKind discriminates the representations a protected field value can
// take before encryption and after decryption.
type ValueKind int

const (
	// KindAbsent represents NULL / not-set. Absent values are never
	// encrypted; they encode to a one-byte sentinel at the codec layer.
	KindAbsent ValueKind = 0

	// KindText is free-form UTF-8 text (notes, assessments).
	KindText ValueKind = 1

	// KindDecimal is an exact decimal number kept as its canonical string
	// form. Used for currency amounts where float rounding is unacceptable.
	KindDecimal ValueKind = 2
)

// ErrInvalidDecimal is returned by [NewDecimal] when the input is not a
// plain decimal number.
var ErrInvalidDecimal = errors.New("invalid decimal value")

// FieldValue is the typed plaintext of one protected field. The codec
// canonicalizes it to text before encryption and restores the exact same
// value (kind included) after decryption.
type FieldValue struct {
	Kind ValueKind

	// Raw holds the canonical textual form for KindText and KindDecimal.
	// Empty and meaningless for KindAbsent.
	Raw string
}

// Absent returns the NULL field value.
func Absent() FieldValue {
	return FieldValue{Kind: KindAbsent}
}

// Text wraps s as a free-form text value. Empty string is a legal text
// value and is distinct from Absent.
func Text(s string) FieldValue {
	return FieldValue{Kind: KindText, Raw: s}
}

// NewDecimal validates s as a plain decimal number and wraps it as a
// decimal field value. The canonical form is kept at full precision:
// an optional leading minus, one or more digits, and an optional fraction.
// A leading plus sign is stripped; nothing else is rewritten, so
// "5000000.00" survives a round trip byte for byte.
//
// Exponents, grouping separators and currency symbols are rejected.
func NewDecimal(s string) (FieldValue, error) {
	canonical := strings.TrimPrefix(s, "+")
	if !isCanonicalDecimal(canonical) {
		return FieldValue{}, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return FieldValue{Kind: KindDecimal, Raw: canonical}, nil
}

// MustDecimal is NewDecimal for trusted literals in tests and fixtures.
// Panics on invalid input.
func MustDecimal(s string) FieldValue {
	v, err := NewDecimal(s)
	if err != nil {
		panic(err)
	}
	return v
}

// IsAbsent reports whether the value represents NULL.
func (v FieldValue) IsAbsent() bool {
	return v.Kind == KindAbsent
}

// String returns the canonical textual form ("" for Absent).
func (v FieldValue) String() string {
	return v.Raw
}

func isCanonicalDecimal(s string) bool {
	if s == "" || s == "-" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if !allDigits(intPart) {
		return false
	}
	if hasFrac && !allDigits(fracPart) {
		return false
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
