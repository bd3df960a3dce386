// Package clrscope reconstructs the managed type system and per-field static
// storage layout of a .NET runtime instance from raw memory.
//
// The library works against any target image (a live process, a full dump,
// or a minidump) through the Target interface defined in this package. Given
// a field's metadata (token, attributes, element type, raw signature bytes)
// and an execution domain, it recovers a strongly-typed description of the
// field and the absolute address holding its value.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	clrscope/          Root package with the Target and ModuleInfo contracts
//	├── sig/           Compressed metadata signature decoding (ECMA-335 II.23)
//	├── typesys/       Type catalog, field resolution, static storage location
//	├── dump/          Minidump (MDMP) target reader
//	├── errors/        Structured error types for load and parse surfaces
//	└── cmd/clrscope/  CLI and interactive inspector
//
// # Quick Start
//
// Open a minidump and resolve a static field:
//
//	tgt, err := dump.Open("crash.dmp")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tgt.Close()
//
//	res := typesys.NewResolver(tgt, catalog, runtimeData)
//	field := res.NewField(owner, typesys.FieldMeta{
//	    Token:  sig.Token(0x04000012),
//	    Name:   "s_instance",
//	    Attrs:  typesys.AttrStatic,
//	    Elem:   sig.ElemClass,
//	    Offset: 0x20,
//	})
//	addr := res.Statics().AddressIn(field, domain)
//	typ := field.ResolvedType()
//
// # Failure Model
//
// The resolution core never panics and never aborts a session over a single
// bad field. Malformed signatures silently fall back to weaker resolution
// strategies; unavailable target data yields sentinel zero or nil results.
// An address of zero always means "value unavailable", never a literal
// location.
//
// # Thread Safety
//
// A Target's image is immutable for the lifetime of a session, so all query
// surfaces are safe for concurrent use. The only shared mutable state is the
// per-field resolved-type cache, which commits exactly one outcome even under
// concurrent first-time resolution.
package clrscope
