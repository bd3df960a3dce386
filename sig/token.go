package sig

import "fmt"

// Token is a CLR metadata token: a table discriminator in the high byte and
// a 1-based row id in the low three bytes.
type Token uint32

// Metadata table discriminators for the tokens this package decodes.
const (
	TableTypeRef  Token = 0x01000000
	TableTypeDef  Token = 0x02000000
	TableFieldDef Token = 0x04000000
	TableTypeSpec Token = 0x1b000000
)

// Table returns the table discriminator portion of the token.
func (t Token) Table() Token {
	return t & 0xff000000
}

// Row returns the 1-based row id portion of the token.
func (t Token) Row() uint32 {
	return uint32(t & 0x00ffffff)
}

// IsNil reports whether the token has a zero row id.
func (t Token) IsNil() bool {
	return t.Row() == 0
}

func (t Token) String() string {
	return fmt.Sprintf("0x%08x", uint32(t))
}

// typeDefOrRef maps the 2-bit tag of a TypeDefOrRefEncoded coded token
// (ECMA-335 II.23.2.8) to its table discriminator.
var typeDefOrRef = [3]Token{TableTypeDef, TableTypeRef, TableTypeSpec}

// decodeTypeDefOrRef expands a compressed TypeDefOrRefEncoded value into a
// full metadata token.
func decodeTypeDefOrRef(v uint32) (Token, error) {
	tag := v & 0x3
	if tag >= uint32(len(typeDefOrRef)) {
		return 0, ErrBadToken
	}
	return typeDefOrRef[tag] | Token(v>>2), nil
}

// encodeTypeDefOrRef compresses a full metadata token back into its
// TypeDefOrRefEncoded form. Used by the encode side and tests.
func encodeTypeDefOrRef(t Token) (uint32, error) {
	for tag, table := range typeDefOrRef {
		if t.Table() == table {
			return t.Row()<<2 | uint32(tag), nil
		}
	}
	return 0, ErrBadToken
}
