package typesys

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/clrscope/clrscope"
	"github.com/clrscope/clrscope/sig"
)

// FieldAttrs are the access and contract flags of a field definition
// (ECMA-335 II.23.1.5).
type FieldAttrs uint32

const (
	AccessMask FieldAttrs = 0x0007

	AccessCompilerControlled FieldAttrs = 0x0000
	AccessPrivate            FieldAttrs = 0x0001
	AccessFamANDAssem        FieldAttrs = 0x0002
	AccessAssembly           FieldAttrs = 0x0003
	AccessFamily             FieldAttrs = 0x0004
	AccessFamORAssem         FieldAttrs = 0x0005
	AccessPublic             FieldAttrs = 0x0006

	AttrStatic     FieldAttrs = 0x0010
	AttrInitOnly   FieldAttrs = 0x0020
	AttrLiteral    FieldAttrs = 0x0040
	AttrHasDefault FieldAttrs = 0x8000
)

// maxSigBytes bounds the owned copy of a field's raw signature. Real field
// signatures are a handful of bytes; anything larger is corrupt metadata.
const maxSigBytes = 4096

// Owner is the borrowed owning-type context of a field: the declaring
// type's metadata token and the module it lives in. A field never outlives
// its owner.
type Owner struct {
	Token  sig.Token
	Module clrscope.ModuleInfo
}

// FieldMeta is the raw metadata a field descriptor is built from.
type FieldMeta struct {
	Token   sig.Token
	Name    string
	Attrs   FieldAttrs
	Elem    sig.ElemType
	Sig     []byte // raw signature blob, copied
	Default []byte // constant value blob, copied; nil if none
	Offset  uint32 // byte offset within the storage region
}

// Field is an immutable field descriptor with a lazily resolved type.
//
// The identity portion (token, name, attributes, signature) is fixed at
// construction. The resolved type is computed on first request and then
// never changes, even if a later heuristic pass could observe different
// instances: re-resolution is deliberately forbidden.
type Field struct {
	Owner    *Owner
	Token    sig.Token
	Name     string
	Attrs    FieldAttrs
	Elem     sig.ElemType
	Offset   uint32
	rawSig   []byte
	defVal   []byte
	res      *Resolver
	resolved atomic.Pointer[typeBox]
}

// typeBox wraps the resolved type so the memoization cell can distinguish
// "not yet resolved" (nil box) from "resolved to the sentinel".
type typeBox struct {
	t Type
}

// NewField builds a field descriptor from raw metadata. The signature and
// default blobs are copied; owner is borrowed.
func (r *Resolver) NewField(owner *Owner, meta FieldMeta) *Field {
	rawSig := meta.Sig
	if len(rawSig) > maxSigBytes {
		rawSig = rawSig[:maxSigBytes]
	}
	f := &Field{
		Owner:  owner,
		Token:  meta.Token,
		Name:   meta.Name,
		Attrs:  meta.Attrs,
		Elem:   meta.Elem,
		Offset: meta.Offset,
		res:    r,
	}
	if len(rawSig) > 0 {
		f.rawSig = append([]byte(nil), rawSig...)
	}
	if len(meta.Default) > 0 {
		f.defVal = append([]byte(nil), meta.Default...)
	}
	return f
}

// ElemType returns the field's element type tag. Always available from
// metadata; no resolution happens.
func (f *Field) ElemType() sig.ElemType {
	return f.Elem
}

// ResolvedType returns the field's declared type, resolving it on first
// call. Resolution tries the signature decode, then heuristic instance
// sampling, then the basic-type fallback, and commits exactly one outcome:
// concurrent first calls may race but converge on a single stored type.
// It never fails; the worst case is the Unresolved sentinel.
func (f *Field) ResolvedType() Type {
	if box := f.resolved.Load(); box != nil {
		return box.t
	}
	box := &typeBox{t: f.resolve()}
	if !f.resolved.CompareAndSwap(nil, box) {
		box = f.resolved.Load()
	}
	return box.t
}

// Size returns the byte size of the field's value, resolving the type
// first if needed.
func (f *Field) Size() uint64 {
	return f.res.layout.SizeOf(f.ResolvedType(), f.Elem)
}

// HasDefault reports whether the field carries a constant default value.
func (f *Field) HasDefault() bool {
	return f.Attrs&AttrHasDefault != 0 && f.defVal != nil
}

// DefaultValue returns the raw constant blob, or nil.
func (f *Field) DefaultValue() []byte {
	return f.defVal
}

// IsStatic reports whether the field is a static field.
func (f *Field) IsStatic() bool {
	return f.Attrs&AttrStatic != 0
}

// IsLiteral reports whether the field is a compile-time constant.
func (f *Field) IsLiteral() bool {
	return f.Attrs&AttrLiteral != 0
}

// Access flags form a single enumerated value under AccessMask, so at most
// one of the visibility predicates is true; all four are false when the
// encoding is unrecognized.

// IsPublic reports whether the field is public.
func (f *Field) IsPublic() bool {
	return f.Attrs&AccessMask == AccessPublic
}

// IsPrivate reports whether the field is private.
func (f *Field) IsPrivate() bool {
	return f.Attrs&AccessMask == AccessPrivate
}

// IsInternal reports whether the field is assembly-visible.
func (f *Field) IsInternal() bool {
	return f.Attrs&AccessMask == AccessAssembly
}

// IsProtected reports whether the field is family-visible.
func (f *Field) IsProtected() bool {
	return f.Attrs&AccessMask == AccessFamily
}

// resolve runs the three resolution strategies in order. It is
// deterministic and side-effect-free: same metadata and same target image
// always produce the same answer, which is what makes the memoization race
// benign.
func (f *Field) resolve() Type {
	if t := f.resolveFromSignature(); t != nil {
		return t
	}
	if !f.Elem.IsPrimitive() && f.Elem != sig.ElemString {
		if t := f.resolveFromInstances(); t != nil {
			return t
		}
	}
	return f.res.catalog.BasicType(f.Elem)
}

// resolveFromSignature decodes the raw signature blob. Only array, SZArray,
// and pointer shapes yield a type here; plain class and generic fields
// carry too little information without full generic instantiation support.
func (f *Field) resolveFromSignature() Type {
	if len(f.rawSig) == 0 {
		return nil
	}
	shape, err := sig.DecodeFieldShape(f.rawSig)
	if err != nil {
		// Malformed signatures lose precision, never crash.
		f.res.log.Debug("field signature decode failed",
			zap.String("field", f.Name),
			zap.Stringer("token", f.Token),
			zap.Error(err))
		return nil
	}

	switch s := shape.(type) {
	case sig.ShapeArray:
		return f.res.catalog.ArrayType(s.Inner, int(s.Rank))

	case sig.ShapeSZArray:
		if s.Inner.IsObjectRef() {
			return f.res.catalog.ObjectArrayType()
		}
		return f.res.catalog.ArrayType(s.Inner, AnyRank)

	case sig.ShapePointer:
		var inner Type
		if !s.Token.IsNil() {
			inner = f.res.catalog.TypeByToken(f.moduleID(), s.Token)
		}
		if inner == nil {
			inner = f.res.catalog.BasicType(s.Inner)
		}
		return f.res.catalog.PointerType(inner, s.Inner)

	default:
		// Anything else resolves through the heuristic or basic
		// fallback.
		return nil
	}
}

// resolveFromInstances samples the field's current value in every known
// domain and asks the heap for the dynamic type of each non-null object it
// finds. Among the distinct candidates, the one with the smallest
// inheritance depth wins: a static field is often declared as an abstract
// base or interface, and the shallowest observed ancestor is the closest
// approximation of that declared type. Depth ties keep the first-seen
// candidate, which makes the answer deterministic for a fixed domain
// order but is otherwise arbitrary.
func (f *Field) resolveFromInstances() Type {
	var (
		best      Type
		bestDepth int
		seen      []Type
	)

	for _, domain := range f.res.runtime.Domains() {
		addr := f.res.statics.AddressIn(f, domain)
		if addr == 0 {
			continue
		}
		obj := f.res.statics.readPointer(addr)
		if obj == 0 {
			continue
		}
		t := f.res.catalog.ObjectTypeAt(obj)
		if t == nil {
			// The object header starts with the method table pointer;
			// a catalog that has not indexed this heap address may
			// still know the type by its handle.
			if mt := f.res.statics.readPointer(obj); mt != 0 {
				t = f.res.catalog.TypeByMethodTable(mt, domain)
			}
		}
		if t == nil {
			continue
		}
		if containsType(seen, t) {
			continue
		}
		seen = append(seen, t)

		d := Depth(t)
		if best == nil || d < bestDepth {
			best, bestDepth = t, d
		}
	}
	return best
}

func (f *Field) moduleID() uint64 {
	if f.Owner == nil {
		return 0
	}
	return f.Owner.Module.ID
}

func containsType(list []Type, t Type) bool {
	for _, c := range list {
		if c == t {
			return true
		}
	}
	return false
}
