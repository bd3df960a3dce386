package sig

// ElemType is a CLR element type tag from a compressed metadata signature
// (ECMA-335 II.23.1.16).
type ElemType byte

const (
	ElemEnd         ElemType = 0x00
	ElemVoid        ElemType = 0x01
	ElemBoolean     ElemType = 0x02
	ElemChar        ElemType = 0x03
	ElemI1          ElemType = 0x04
	ElemU1          ElemType = 0x05
	ElemI2          ElemType = 0x06
	ElemU2          ElemType = 0x07
	ElemI4          ElemType = 0x08
	ElemU4          ElemType = 0x09
	ElemI8          ElemType = 0x0a
	ElemU8          ElemType = 0x0b
	ElemR4          ElemType = 0x0c
	ElemR8          ElemType = 0x0d
	ElemString      ElemType = 0x0e
	ElemPtr         ElemType = 0x0f
	ElemByRef       ElemType = 0x10
	ElemValueType   ElemType = 0x11
	ElemClass       ElemType = 0x12
	ElemVar         ElemType = 0x13
	ElemArray       ElemType = 0x14
	ElemGenericInst ElemType = 0x15
	ElemTypedByRef  ElemType = 0x16
	ElemI           ElemType = 0x18
	ElemU           ElemType = 0x19
	ElemFnPtr       ElemType = 0x1b
	ElemObject      ElemType = 0x1c
	ElemSZArray     ElemType = 0x1d
	ElemMVar        ElemType = 0x1e
	ElemCModReqd    ElemType = 0x1f
	ElemCModOpt     ElemType = 0x20
	ElemInternal    ElemType = 0x21
	ElemSentinel    ElemType = 0x41
	ElemPinned      ElemType = 0x45
)

// Calling convention tags (ECMA-335 II.23.2). A field signature always
// begins with ConvField.
const (
	ConvDefault  byte = 0x00
	ConvVarArg   byte = 0x05
	ConvField    byte = 0x06
	ConvLocalSig byte = 0x07
	ConvProperty byte = 0x08
)

var elemNames = map[ElemType]string{
	ElemEnd:         "end",
	ElemVoid:        "void",
	ElemBoolean:     "bool",
	ElemChar:        "char",
	ElemI1:          "int8",
	ElemU1:          "uint8",
	ElemI2:          "int16",
	ElemU2:          "uint16",
	ElemI4:          "int32",
	ElemU4:          "uint32",
	ElemI8:          "int64",
	ElemU8:          "uint64",
	ElemR4:          "float32",
	ElemR8:          "float64",
	ElemString:      "string",
	ElemPtr:         "ptr",
	ElemByRef:       "byref",
	ElemValueType:   "valuetype",
	ElemClass:       "class",
	ElemVar:         "var",
	ElemArray:       "array",
	ElemGenericInst: "genericinst",
	ElemTypedByRef:  "typedbyref",
	ElemI:           "native int",
	ElemU:           "native uint",
	ElemFnPtr:       "fnptr",
	ElemObject:      "object",
	ElemSZArray:     "szarray",
	ElemMVar:        "mvar",
}

// String returns a short human-readable name for the tag.
func (e ElemType) String() string {
	if s, ok := elemNames[e]; ok {
		return s
	}
	return "unknown"
}

// IsPrimitive reports whether the tag denotes a primitive value category:
// booleans, characters, fixed-width integers, floats, and native-word
// integers.
func (e ElemType) IsPrimitive() bool {
	switch e {
	case ElemBoolean, ElemChar,
		ElemI1, ElemU1, ElemI2, ElemU2, ElemI4, ElemU4, ElemI8, ElemU8,
		ElemR4, ElemR8, ElemI, ElemU:
		return true
	}
	return false
}

// IsObjectRef reports whether the tag denotes an object reference shape.
func (e ElemType) IsObjectRef() bool {
	return e == ElemClass || e == ElemObject
}
