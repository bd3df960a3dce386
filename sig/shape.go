package sig

// Shape is the decoded outline of a field signature. The shape set is
// closed, so it is modeled as a tagged variant rather than a type
// hierarchy: each shape has its own decode and address-resolution rule.
type Shape interface {
	isShape()

	// Elem returns the element type tag the shape was decoded from.
	Elem() ElemType
}

// ShapeArray is a multi-dimensional array of a known rank.
type ShapeArray struct {
	Inner ElemType // element type tag of the array elements
	Rank  uint32
}

// ShapeSZArray is a single-dimensional zero-based array.
type ShapeSZArray struct {
	Inner ElemType
}

// ShapePointer is an unmanaged pointer to a previously-defined type.
type ShapePointer struct {
	Inner ElemType
	Token Token // TypeDefOrRef token of the pointee, nil row if absent
}

// ShapeOther covers every tag with no special field-signature decode rule:
// primitives, strings, plain classes, value types, and generics. Resolution
// for these defers to the heuristic and basic-type fallbacks.
type ShapeOther struct {
	Tag ElemType
}

func (ShapeArray) isShape()   {}
func (ShapeSZArray) isShape() {}
func (ShapePointer) isShape() {}
func (ShapeOther) isShape()   {}

func (s ShapeArray) Elem() ElemType   { return ElemArray }
func (s ShapeSZArray) Elem() ElemType { return ElemSZArray }
func (s ShapePointer) Elem() ElemType { return ElemPtr }
func (s ShapeOther) Elem() ElemType   { return s.Tag }

// DecodeFieldShape decodes the outline of a single field signature:
// calling convention, custom modifiers, then the shape-determining element
// type. Any decode failure is returned as-is so the caller can fall back to
// weaker resolution; the blob is never required to be well formed.
func DecodeFieldShape(blob []byte) (Shape, error) {
	p := NewParser(blob)

	conv, err := p.ReadCallingConvention()
	if err != nil {
		return nil, err
	}
	// Only the field convention describes a field; anything else is a
	// caller error upstream, but the parser reports it rather than
	// asserting.
	if conv&0x0f != ConvField {
		return nil, ErrUnsupported
	}

	if err := p.SkipCustomModifiers(); err != nil {
		return nil, err
	}

	elem, err := p.ReadElemType()
	if err != nil {
		return nil, err
	}

	switch elem {
	case ElemArray:
		inner, err := p.PeekElemType()
		if err != nil {
			return nil, err
		}
		if err := p.SkipOne(); err != nil {
			return nil, err
		}
		rank, err := p.ReadCompressedUint()
		if err != nil {
			return nil, err
		}
		return ShapeArray{Inner: inner, Rank: rank}, nil

	case ElemSZArray:
		inner, err := p.PeekElemType()
		if err != nil {
			return nil, err
		}
		return ShapeSZArray{Inner: inner}, nil

	case ElemPtr:
		inner, err := p.ReadElemType()
		if err != nil {
			return nil, err
		}
		tok, err := p.ReadToken()
		if err != nil {
			// A pointer to a primitive has no trailing token; the
			// shape still resolves through the basic type for the
			// inner tag.
			return ShapePointer{Inner: inner}, nil
		}
		return ShapePointer{Inner: inner, Token: tok}, nil

	default:
		return ShapeOther{Tag: elem}, nil
	}
}
