// Package sig decodes compressed CLR metadata signatures (ECMA-335 II.23).
//
// The package provides a low-level cursor, Parser, with one method per
// primitive of the encoding (compressed integers, coded tokens, element
// type tags), and a field-level driver, DecodeFieldShape, that reduces a
// field signature blob to its shape: array, single-dimensional zero-based
// array, pointer, or anything else.
//
// Malformed input is an expected condition, not a bug: every decode step
// returns an error instead of panicking, and a failed step leaves the
// parser inspectable at the failure position. Callers treat any decode
// error as "this signature tells us nothing" and fall back to weaker
// resolution strategies.
package sig
