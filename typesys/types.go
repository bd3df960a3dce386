package typesys

import (
	"github.com/clrscope/clrscope/sig"
)

// Type is the capability surface the resolution core needs from a type
// descriptor. Types obtained from the same Catalog are canonical: two Type
// values are the same type iff they are the same pointer.
type Type interface {
	// ElemType returns the element type tag the descriptor was built from.
	ElemType() sig.ElemType

	// Name returns a display name for the type, if known.
	Name() string

	// Base returns the direct base type, or nil at the root of the
	// inheritance chain.
	Base() Type

	// Size returns the byte size of values of this type, or 0 if the
	// layout service has not assigned one.
	Size() uint64
}

// Depth returns the inheritance depth of t: the number of base links to the
// root. A type with no base has depth 0.
func Depth(t Type) int {
	d := 0
	for b := t.Base(); b != nil; b = b.Base() {
		d++
	}
	return d
}

// AnyRank is the rank sentinel for a zero-based array of unspecified rank.
const AnyRank = -1

// Catalog constructs and canonicalizes type descriptors. The resolution
// core only consumes this contract; how a catalog learns about the target's
// types (metadata tables, runtime data structures) is up to the
// implementation. All methods must be safe for concurrent use.
type Catalog interface {
	// BasicType returns the canonical type for a primitive, string, or
	// object tag. It never returns nil: unrecognized tags yield the
	// Unresolved sentinel.
	BasicType(tag sig.ElemType) Type

	// ArrayType returns the canonical array type with the given element
	// tag and rank. rank == AnyRank denotes a zero-based array of any
	// rank.
	ArrayType(elem sig.ElemType, rank int) Type

	// ObjectArrayType returns the canonical single-dimensional
	// zero-based array of object.
	ObjectArrayType() Type

	// PointerType returns the canonical pointer type wrapping inner.
	PointerType(inner Type, elem sig.ElemType) Type

	// TypeByToken resolves a metadata token within the given module, or
	// nil if no such type is known.
	TypeByToken(moduleID uint64, tok sig.Token) Type

	// TypeByMethodTable resolves a runtime method-table handle, or nil.
	// domainHint may be zero when the caller has no domain context.
	TypeByMethodTable(mt uint64, domainHint uint64) Type

	// ObjectTypeAt returns the dynamic type of the heap object whose
	// header starts at addr, or nil if addr does not hold an object the
	// catalog can identify.
	ObjectTypeAt(addr uint64) Type
}

// Layout computes sizes for resolved fields. Object layout reconstruction
// is outside the resolution core; it asks this service instead.
type Layout interface {
	// SizeOf returns the byte size of a field with the given resolved
	// type and element tag.
	SizeOf(t Type, tag sig.ElemType) uint64
}

// unresolvedType is the sentinel returned when no resolution strategy
// produced an answer. It compares equal only to itself.
type unresolvedType struct{}

func (unresolvedType) ElemType() sig.ElemType { return sig.ElemEnd }
func (unresolvedType) Name() string           { return "<unresolved>" }
func (unresolvedType) Base() Type             { return nil }
func (unresolvedType) Size() uint64           { return 0 }

// Unresolved is the canonical sentinel type. Callers detect it with
// IsUnresolved and must be able to ignore it without failing.
var Unresolved Type = unresolvedType{}

// IsUnresolved reports whether t is the unresolved sentinel (or nil).
func IsUnresolved(t Type) bool {
	return t == nil || t == Unresolved
}
