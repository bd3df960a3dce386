package typesys

import (
	"fmt"
	"sync"

	"github.com/clrscope/clrscope/sig"
)

// elemSizes gives the value size in bytes for the self-describing tags.
// Reference and native-word tags are pointer sized; only 64-bit targets
// are supported.
var elemSizes = map[sig.ElemType]uint64{
	sig.ElemBoolean: 1,
	sig.ElemChar:    2,
	sig.ElemI1:      1,
	sig.ElemU1:      1,
	sig.ElemI2:      2,
	sig.ElemU2:      2,
	sig.ElemI4:      4,
	sig.ElemU4:      4,
	sig.ElemI8:      8,
	sig.ElemU8:      8,
	sig.ElemR4:      4,
	sig.ElemR8:      8,
	sig.ElemI:       8,
	sig.ElemU:       8,
	sig.ElemString:  8,
	sig.ElemObject:  8,
	sig.ElemClass:   8,
	sig.ElemSZArray: 8,
	sig.ElemArray:   8,
	sig.ElemPtr:     8,
	sig.ElemFnPtr:   8,
}

// basicType is a canonical primitive, string, or object descriptor.
type basicType struct {
	elem sig.ElemType
	name string
	size uint64
	base Type
}

func (t *basicType) ElemType() sig.ElemType { return t.elem }
func (t *basicType) Name() string           { return t.name }
func (t *basicType) Base() Type             { return t.base }
func (t *basicType) Size() uint64           { return t.size }

// arrayType describes an array by element tag and rank.
type arrayType struct {
	inner sig.ElemType
	name  string
	rank  int
	elem  sig.ElemType
	base  Type
}

func (t *arrayType) ElemType() sig.ElemType { return t.elem }
func (t *arrayType) Name() string           { return t.name }
func (t *arrayType) Base() Type             { return t.base }
func (t *arrayType) Size() uint64           { return 8 }

// InnerElem returns the element tag of the array elements.
func (t *arrayType) InnerElem() sig.ElemType { return t.inner }

// Rank returns the array rank, or AnyRank.
func (t *arrayType) Rank() int { return t.rank }

// pointerType wraps a pointee type.
type pointerType struct {
	inner Type
	name  string
	elem  sig.ElemType
}

func (t *pointerType) ElemType() sig.ElemType { return sig.ElemPtr }
func (t *pointerType) Name() string           { return t.name }
func (t *pointerType) Base() Type             { return nil }
func (t *pointerType) Size() uint64           { return 8 }

// Pointee returns the type the pointer points at.
func (t *pointerType) Pointee() Type { return t.inner }

// classType is a registered class or value type.
type classType struct {
	name string
	base Type
	size uint64
	elem sig.ElemType
}

func (t *classType) ElemType() sig.ElemType { return t.elem }
func (t *classType) Name() string           { return t.name }
func (t *classType) Base() Type             { return t.base }
func (t *classType) Size() uint64           { return t.size }

type arrayKey struct {
	elem sig.ElemType
	rank int
}

type ptrKey struct {
	inner Type
	elem  sig.ElemType
}

type tokenKey struct {
	module uint64
	tok    sig.Token
}

// MemoryCatalog is an in-memory Catalog. Array, pointer, and basic requests
// are canonicalized lazily; class types, method tables, and heap objects
// are registered explicitly by whatever layer populated the catalog.
//
// Safe for concurrent use.
type MemoryCatalog struct {
	mu       sync.RWMutex
	basics   map[sig.ElemType]Type
	arrays   map[arrayKey]Type
	pointers map[ptrKey]Type
	objArray Type
	byToken  map[tokenKey]Type
	byMT     map[uint64]Type
	objects  map[uint64]Type
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		basics:   make(map[sig.ElemType]Type),
		arrays:   make(map[arrayKey]Type),
		pointers: make(map[ptrKey]Type),
		byToken:  make(map[tokenKey]Type),
		byMT:     make(map[uint64]Type),
		objects:  make(map[uint64]Type),
	}
}

// BasicType implements Catalog. The same tag always returns the same
// pointer; unrecognized tags return the Unresolved sentinel.
func (c *MemoryCatalog) BasicType(tag sig.ElemType) Type {
	size, ok := elemSizes[tag]
	if !ok {
		return Unresolved
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.basics[tag]; ok {
		return t
	}
	t := &basicType{elem: tag, name: tag.String(), size: size}
	c.basics[tag] = t
	return t
}

// ArrayType implements Catalog.
func (c *MemoryCatalog) ArrayType(elem sig.ElemType, rank int) Type {
	key := arrayKey{elem: elem, rank: rank}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.arrays[key]; ok {
		return t
	}
	name := elem.String() + "[]"
	if rank > 1 {
		name = fmt.Sprintf("%s[%d]", elem.String(), rank)
	}
	t := &arrayType{inner: elem, rank: rank, elem: sig.ElemArray, name: name}
	c.arrays[key] = t
	return t
}

// ObjectArrayType implements Catalog.
func (c *MemoryCatalog) ObjectArrayType() Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.objArray == nil {
		c.objArray = &arrayType{
			inner: sig.ElemObject,
			rank:  AnyRank,
			elem:  sig.ElemSZArray,
			name:  "object[]",
		}
	}
	return c.objArray
}

// PointerType implements Catalog.
func (c *MemoryCatalog) PointerType(inner Type, elem sig.ElemType) Type {
	key := ptrKey{inner: inner, elem: elem}

	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.pointers[key]; ok {
		return t
	}
	name := "*"
	if inner != nil {
		name = inner.Name() + "*"
	}
	t := &pointerType{inner: inner, elem: elem, name: name}
	c.pointers[key] = t
	return t
}

// TypeByToken implements Catalog.
func (c *MemoryCatalog) TypeByToken(moduleID uint64, tok sig.Token) Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byToken[tokenKey{module: moduleID, tok: tok}]
}

// TypeByMethodTable implements Catalog. The domain hint is unused: a method
// table identifies a type process-wide.
func (c *MemoryCatalog) TypeByMethodTable(mt uint64, _ uint64) Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.byMT[mt]
}

// ObjectTypeAt implements Catalog.
func (c *MemoryCatalog) ObjectTypeAt(addr uint64) Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.objects[addr]
}

// ClassSpec describes a class or value type being registered.
type ClassSpec struct {
	Name        string
	Base        Type // nil for a root type
	Size        uint64
	Elem        sig.ElemType // ElemClass or ElemValueType; ElemClass if zero
	MethodTable uint64       // optional runtime handle
}

// RegisterClass adds a named type under (module, token) and returns it.
// Registering the same token again replaces the entry.
func (c *MemoryCatalog) RegisterClass(moduleID uint64, tok sig.Token, spec ClassSpec) Type {
	elem := spec.Elem
	if elem == 0 {
		elem = sig.ElemClass
	}
	t := &classType{name: spec.Name, base: spec.Base, size: spec.Size, elem: elem}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byToken[tokenKey{module: moduleID, tok: tok}] = t
	if spec.MethodTable != 0 {
		c.byMT[spec.MethodTable] = t
	}
	return t
}

// RegisterObject records that the heap object at addr has the given
// dynamic type.
func (c *MemoryCatalog) RegisterObject(addr uint64, t Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[addr] = t
}

// DefaultLayout sizes fields from the element tag alone, deferring to the
// resolved type for value types whose tag carries no width.
type DefaultLayout struct{}

// SizeOf implements Layout.
func (DefaultLayout) SizeOf(t Type, tag sig.ElemType) uint64 {
	if size, ok := elemSizes[tag]; ok {
		return size
	}
	if t != nil {
		return t.Size()
	}
	return 0
}
