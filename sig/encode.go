package sig

// Encoding helpers for compressed metadata signatures. The library itself
// only decodes; the encode side exists for tooling and for building
// signature blobs in tests.

// AppendCompressedUint appends the ECMA-335 compressed encoding of v.
// Values above the 29-bit encodable maximum are truncated to it.
func AppendCompressedUint(dst []byte, v uint32) []byte {
	switch {
	case v < 0x80:
		return append(dst, byte(v))
	case v < 0x4000:
		return append(dst, byte(v>>8)|0x80, byte(v))
	default:
		if v > 0x1fffffff {
			v = 0x1fffffff
		}
		return append(dst, byte(v>>24)|0xc0, byte(v>>16), byte(v>>8), byte(v))
	}
}

// AppendToken appends the TypeDefOrRefEncoded form of a metadata token.
// Tokens from tables outside the TypeDefOrRef set are appended as a nil
// TypeDef row so the blob stays decodable.
func AppendToken(dst []byte, t Token) []byte {
	v, err := encodeTypeDefOrRef(t)
	if err != nil {
		v = 0
	}
	return AppendCompressedUint(dst, v)
}

// FieldSig starts a field signature blob: the field calling convention
// followed by the given element type tag.
func FieldSig(elem ElemType) []byte {
	return []byte{ConvField, byte(elem)}
}

// PointerFieldSig builds a complete pointer field signature for the given
// pointee tag and token.
func PointerFieldSig(inner ElemType, tok Token) []byte {
	b := []byte{ConvField, byte(ElemPtr), byte(inner)}
	return AppendToken(b, tok)
}

// ArrayFieldSig builds a complete general-array field signature with the
// given element tag and rank and no explicit bounds.
func ArrayFieldSig(inner ElemType, rank uint32) []byte {
	b := []byte{ConvField, byte(ElemArray), byte(inner)}
	b = AppendCompressedUint(b, rank)
	b = AppendCompressedUint(b, 0) // no sizes
	b = AppendCompressedUint(b, 0) // no lower bounds
	return b
}

// SZArrayFieldSig builds a single-dimensional zero-based array field
// signature.
func SZArrayFieldSig(inner ElemType) []byte {
	return []byte{ConvField, byte(ElemSZArray), byte(inner)}
}
