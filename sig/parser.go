package sig

import "errors"

// Decode errors returned by Parser. Any error halts the current decode; the
// parser itself stays valid and its position reports how far it got.
var (
	ErrUnexpectedEOF = errors.New("sig: unexpected end of signature")
	ErrOverlongInt   = errors.New("sig: invalid compressed integer prefix")
	ErrBadToken      = errors.New("sig: invalid coded token tag")
	ErrTooDeep       = errors.New("sig: type encoding nested too deeply")
	ErrUnsupported   = errors.New("sig: unsupported type encoding")
)

// maxSkipDepth bounds recursion in SkipOne so malformed input cannot
// exhaust the stack.
const maxSkipDepth = 64

// Parser is a cursor over a compressed metadata signature blob. It never
// panics on malformed input: every read reports an error instead, and a
// failed read leaves the cursor where the failure occurred.
//
// A Parser does not own its blob; callers must not mutate the slice while
// parsing.
type Parser struct {
	data []byte
	pos  int
}

// NewParser creates a parser positioned at the start of blob.
func NewParser(blob []byte) *Parser {
	return &Parser{data: blob}
}

// Position returns the current byte offset into the blob.
func (p *Parser) Position() int {
	return p.pos
}

// Remaining returns the number of undecoded bytes.
func (p *Parser) Remaining() int {
	return len(p.data) - p.pos
}

func (p *Parser) readByte() (byte, error) {
	if p.pos >= len(p.data) {
		return 0, ErrUnexpectedEOF
	}
	b := p.data[p.pos]
	p.pos++
	return b, nil
}

// ReadCallingConvention reads the leading calling-convention byte. The
// parser does not validate the value; callers check it against ConvField.
func (p *Parser) ReadCallingConvention() (byte, error) {
	return p.readByte()
}

// ReadCompressedUint decodes one ECMA-335 compressed unsigned integer
// (II.23.2): one byte below 0x80, two bytes with a 0x80 prefix, four bytes
// with a 0xc0 prefix.
func (p *Parser) ReadCompressedUint() (uint32, error) {
	b0, err := p.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b0&0x80 == 0:
		return uint32(b0), nil
	case b0&0xc0 == 0x80:
		b1, err := p.readByte()
		if err != nil {
			return 0, err
		}
		return uint32(b0&0x3f)<<8 | uint32(b1), nil
	case b0&0xe0 == 0xc0:
		var v = uint32(b0 & 0x1f)
		for i := 0; i < 3; i++ {
			b, err := p.readByte()
			if err != nil {
				return 0, err
			}
			v = v<<8 | uint32(b)
		}
		return v, nil
	default:
		return 0, ErrOverlongInt
	}
}

// ReadToken decodes one TypeDefOrRefEncoded coded token and expands it to a
// full metadata token.
func (p *Parser) ReadToken() (Token, error) {
	v, err := p.ReadCompressedUint()
	if err != nil {
		return 0, err
	}
	return decodeTypeDefOrRef(v)
}

// ReadElemType consumes one element type tag.
func (p *Parser) ReadElemType() (ElemType, error) {
	v, err := p.ReadCompressedUint()
	if err != nil {
		return 0, err
	}
	return ElemType(v), nil
}

// PeekElemType returns the next element type tag without consuming it.
// Array and pointer decoding branch on the next tag before deciding how
// many bytes to skip.
func (p *Parser) PeekElemType() (ElemType, error) {
	save := p.pos
	e, err := p.ReadElemType()
	p.pos = save
	return e, err
}

// SkipCustomModifiers consumes zero or more custom-modifier entries
// (modifier tag plus coded token). Zero occurrences is success.
func (p *Parser) SkipCustomModifiers() error {
	for {
		e, err := p.PeekElemType()
		if err != nil {
			// Nothing left to modify; the caller's next read will
			// report the real failure if the signature is truncated.
			return nil
		}
		if e != ElemCModOpt && e != ElemCModReqd {
			return nil
		}
		if _, err := p.ReadElemType(); err != nil {
			return err
		}
		if _, err := p.ReadToken(); err != nil {
			return err
		}
	}
}

// SkipOne advances past exactly one fully-formed, possibly nested type
// encoding without materializing it.
func (p *Parser) SkipOne() error {
	return p.skipType(0)
}

func (p *Parser) skipType(depth int) error {
	if depth > maxSkipDepth {
		return ErrTooDeep
	}
	e, err := p.ReadElemType()
	if err != nil {
		return err
	}
	switch e {
	case ElemPtr, ElemByRef, ElemSZArray, ElemPinned:
		return p.skipType(depth + 1)

	case ElemValueType, ElemClass, ElemCModReqd, ElemCModOpt:
		_, err := p.ReadToken()
		return err

	case ElemVar, ElemMVar:
		_, err := p.ReadCompressedUint()
		return err

	case ElemArray:
		// Element type, rank, then explicit sizes and lower bounds.
		if err := p.skipType(depth + 1); err != nil {
			return err
		}
		if _, err := p.ReadCompressedUint(); err != nil {
			return err
		}
		numSizes, err := p.ReadCompressedUint()
		if err != nil {
			return err
		}
		for i := uint32(0); i < numSizes; i++ {
			if _, err := p.ReadCompressedUint(); err != nil {
				return err
			}
		}
		numBounds, err := p.ReadCompressedUint()
		if err != nil {
			return err
		}
		for i := uint32(0); i < numBounds; i++ {
			if _, err := p.ReadCompressedUint(); err != nil {
				return err
			}
		}
		return nil

	case ElemGenericInst:
		// CLASS or VALUETYPE tag, the generic definition token, then
		// each instantiation argument.
		if _, err := p.ReadElemType(); err != nil {
			return err
		}
		if _, err := p.ReadToken(); err != nil {
			return err
		}
		argc, err := p.ReadCompressedUint()
		if err != nil {
			return err
		}
		for i := uint32(0); i < argc; i++ {
			if err := p.skipType(depth + 1); err != nil {
				return err
			}
		}
		return nil

	case ElemFnPtr, ElemInternal:
		// Function pointers embed a whole method signature; nothing in
		// field resolution needs them, so the decode degrades instead.
		return ErrUnsupported

	default:
		// Primitive, string, object, and the other self-contained tags
		// carry no payload.
		return nil
	}
}
