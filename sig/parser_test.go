package sig_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/clrscope/clrscope/sig"
)

func TestCompressedUintRoundTrip(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x03}, 3},
		{[]byte{0x7f}, 0x7f},
		{[]byte{0x80, 0x80}, 0x80},
		{[]byte{0xae, 0x57}, 0x2e57},
		{[]byte{0xbf, 0xff}, 0x3fff},
		{[]byte{0xc0, 0x00, 0x40, 0x00}, 0x4000},
		{[]byte{0xdf, 0xff, 0xff, 0xff}, 0x1fffffff},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			got := sig.AppendCompressedUint(nil, tt.value)
			if !bytes.Equal(got, tt.encoded) {
				t.Errorf("encode %#x: got % x, want % x", tt.value, got, tt.encoded)
			}

			p := sig.NewParser(tt.encoded)
			v, err := p.ReadCompressedUint()
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if v != tt.value {
				t.Errorf("decode: got %#x, want %#x", v, tt.value)
			}
			if p.Remaining() != 0 {
				t.Errorf("decode left %d bytes", p.Remaining())
			}
		})
	}
}

func TestCompressedUintErrors(t *testing.T) {
	tests := []struct {
		name string
		blob []byte
		want error
	}{
		{"empty", nil, sig.ErrUnexpectedEOF},
		{"truncated two byte", []byte{0x80}, sig.ErrUnexpectedEOF},
		{"truncated four byte", []byte{0xc0, 0x01}, sig.ErrUnexpectedEOF},
		{"invalid prefix", []byte{0xff}, sig.ErrOverlongInt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sig.NewParser(tt.blob)
			if _, err := p.ReadCompressedUint(); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tok  sig.Token
	}{
		{"typedef", sig.TableTypeDef | 0x12},
		{"typeref", sig.TableTypeRef | 0x0456},
		{"typespec", sig.TableTypeSpec | 0x99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := sig.AppendToken(nil, tt.tok)
			p := sig.NewParser(blob)
			got, err := p.ReadToken()
			if err != nil {
				t.Fatalf("ReadToken: %v", err)
			}
			if got != tt.tok {
				t.Errorf("got %v, want %v", got, tt.tok)
			}
		})
	}
}

func TestTokenBadTag(t *testing.T) {
	// Tag bits 0b11 select no table.
	p := sig.NewParser([]byte{0x07})
	if _, err := p.ReadToken(); !errors.Is(err, sig.ErrBadToken) {
		t.Errorf("got %v, want ErrBadToken", err)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	p := sig.NewParser([]byte{byte(sig.ElemI4), byte(sig.ElemString)})

	for i := 0; i < 3; i++ {
		e, err := p.PeekElemType()
		if err != nil {
			t.Fatalf("peek %d: %v", i, err)
		}
		if e != sig.ElemI4 {
			t.Fatalf("peek %d: got %v, want int32", i, e)
		}
	}
	if p.Position() != 0 {
		t.Errorf("peek moved cursor to %d", p.Position())
	}

	if e, _ := p.ReadElemType(); e != sig.ElemI4 {
		t.Errorf("read after peek: got %v", e)
	}
	if e, _ := p.PeekElemType(); e != sig.ElemString {
		t.Errorf("second peek: got %v", e)
	}
}

func TestSkipCustomModifiers(t *testing.T) {
	var blob []byte
	blob = append(blob, byte(sig.ElemCModOpt))
	blob = sig.AppendToken(blob, sig.TableTypeRef|0x10)
	blob = append(blob, byte(sig.ElemCModReqd))
	blob = sig.AppendToken(blob, sig.TableTypeDef|0x22)
	blob = append(blob, byte(sig.ElemI8))

	p := sig.NewParser(blob)
	if err := p.SkipCustomModifiers(); err != nil {
		t.Fatalf("SkipCustomModifiers: %v", err)
	}
	e, err := p.ReadElemType()
	if err != nil {
		t.Fatalf("ReadElemType: %v", err)
	}
	if e != sig.ElemI8 {
		t.Errorf("after modifiers: got %v, want int64", e)
	}
}

func TestSkipCustomModifiersNone(t *testing.T) {
	p := sig.NewParser([]byte{byte(sig.ElemU2)})
	if err := p.SkipCustomModifiers(); err != nil {
		t.Fatalf("zero modifiers should succeed: %v", err)
	}
	if p.Position() != 0 {
		t.Errorf("cursor moved to %d with no modifiers", p.Position())
	}
}

func TestSkipOne(t *testing.T) {
	genericInst := []byte{byte(sig.ElemGenericInst), byte(sig.ElemClass)}
	genericInst = sig.AppendToken(genericInst, sig.TableTypeDef|0x30)
	genericInst = sig.AppendCompressedUint(genericInst, 2)
	genericInst = append(genericInst, byte(sig.ElemI4))
	genericInst = append(genericInst, byte(sig.ElemString))

	ptrChain := []byte{byte(sig.ElemPtr), byte(sig.ElemPtr), byte(sig.ElemI1)}

	classTok := []byte{byte(sig.ElemClass)}
	classTok = sig.AppendToken(classTok, sig.TableTypeRef|0x0101)

	array := []byte{byte(sig.ElemArray), byte(sig.ElemR8)}
	array = sig.AppendCompressedUint(array, 3) // rank
	array = sig.AppendCompressedUint(array, 1) // one explicit size
	array = sig.AppendCompressedUint(array, 10)
	array = sig.AppendCompressedUint(array, 0) // no lower bounds

	tests := []struct {
		name string
		blob []byte
	}{
		{"primitive", []byte{byte(sig.ElemI4)}},
		{"string", []byte{byte(sig.ElemString)}},
		{"generic var", []byte{byte(sig.ElemVar), 0x01}},
		{"class token", classTok},
		{"pointer chain", ptrChain},
		{"generic instantiation", genericInst},
		{"array with bounds", array},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A trailing marker proves SkipOne stops exactly at the
			// encoding boundary.
			blob := append(append([]byte{}, tt.blob...), byte(sig.ElemU8))
			p := sig.NewParser(blob)
			if err := p.SkipOne(); err != nil {
				t.Fatalf("SkipOne: %v", err)
			}
			e, err := p.ReadElemType()
			if err != nil {
				t.Fatalf("read after skip: %v", err)
			}
			if e != sig.ElemU8 {
				t.Errorf("skip landed on %v, want uint64 marker", e)
			}
		})
	}
}

func TestSkipOneDepthBomb(t *testing.T) {
	blob := bytes.Repeat([]byte{byte(sig.ElemPtr)}, 4096)
	p := sig.NewParser(blob)
	err := p.SkipOne()
	if !errors.Is(err, sig.ErrTooDeep) && !errors.Is(err, sig.ErrUnexpectedEOF) {
		t.Errorf("got %v, want bounded failure", err)
	}
}

func TestParserReusableAfterFailure(t *testing.T) {
	p := sig.NewParser([]byte{0x80})
	if _, err := p.ReadCompressedUint(); err == nil {
		t.Fatal("expected failure")
	}
	// The parser stays inspectable after a failed step.
	if p.Position() != 1 {
		t.Errorf("position after failure: got %d, want 1", p.Position())
	}
	if p.Remaining() != 0 {
		t.Errorf("remaining after failure: got %d", p.Remaining())
	}
}
