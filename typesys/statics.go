package typesys

import (
	"encoding/binary"

	"go.uber.org/zap"

	"github.com/clrscope/clrscope/sig"
)

// DomainLocalStorage describes where one execution domain keeps a module's
// static data. Records are fetched fresh for every query and never cached:
// domain membership and initialization state can change between queries on
// a live target.
type DomainLocalStorage struct {
	// NonGCBase is the base of the non-garbage-collected static region,
	// holding primitive-valued statics.
	NonGCBase uint64

	// GCBase is the base of the garbage-collected static region, holding
	// reference-valued statics.
	GCBase uint64

	// ClassData is the base of the per-type initialization flag table.
	ClassData uint64
}

// RuntimeData exposes the per-domain runtime records the locator needs.
// Implementations read them out of the target's runtime data structures.
type RuntimeData interface {
	// Domains enumerates the execution domains of the target, in a
	// stable order for the lifetime of the session.
	Domains() []uint64

	// DomainStorageByModule finds the storage record for a shared
	// module, keyed by domain and module identity.
	DomainStorageByModule(domain, moduleID uint64) (DomainLocalStorage, bool)

	// DomainStorageByBase finds the storage record for an unshared
	// module, keyed by its base address in the domain.
	DomainStorageByBase(moduleBase uint64) (DomainLocalStorage, bool)

	// ModuleBase returns the module's base address within the domain,
	// or 0 if the module is not loaded there.
	ModuleBase(domain, moduleID uint64) uint64
}

// StaticLocator computes absolute storage addresses for static fields, per
// execution domain. Every query recomputes from scratch; the locator holds
// no per-field state.
type StaticLocator struct {
	res *Resolver
}

// AddressIn returns the absolute address of f's value in the given domain,
// or 0 when the address is unavailable: no owning type, module not loaded,
// storage record missing, or (for shared modules) the owning type's static
// constructor has not run there. Zero is a sentinel, never a real location.
func (l *StaticLocator) AddressIn(f *Field, domain uint64) uint64 {
	if f.Owner == nil {
		return 0
	}
	mod := f.Owner.Module

	var dls DomainLocalStorage
	if mod.Shared {
		// Shared modules materialize storage lazily once per domain;
		// an uninitialized type must not leak a stale address.
		var ok bool
		dls, ok = l.res.runtime.DomainStorageByModule(domain, mod.ID)
		if !ok {
			l.res.log.Debug("no domain storage for shared module",
				zap.Uint64("domain", domain),
				zap.Uint64("module", mod.ID))
			return 0
		}
		if !l.classInitialized(dls, f.Owner.Token) {
			return 0
		}
	} else {
		base := l.res.runtime.ModuleBase(domain, mod.ID)
		if base == 0 {
			return 0
		}
		var ok bool
		dls, ok = l.res.runtime.DomainStorageByBase(base)
		if !ok {
			return 0
		}
	}

	return l.storageBase(dls, f.Elem) + uint64(f.Offset)
}

// IsInitialized reports whether f's owning type is ready in the given
// domain: for shared modules, whether its static constructor has run; for
// unshared modules, whether the module is loaded at all.
func (l *StaticLocator) IsInitialized(f *Field, domain uint64) bool {
	if f.Owner == nil {
		return false
	}
	mod := f.Owner.Module
	if !mod.Shared {
		return l.res.runtime.ModuleBase(domain, mod.ID) != 0
	}
	dls, ok := l.res.runtime.DomainStorageByModule(domain, mod.ID)
	if !ok {
		return false
	}
	return l.classInitialized(dls, f.Owner.Token)
}

// ValueIn reads f's current value bytes in the given domain. It returns
// (nil, false) when the address is unavailable or the read fails.
func (l *StaticLocator) ValueIn(f *Field, domain uint64) ([]byte, bool) {
	addr := l.AddressIn(f, domain)
	if addr == 0 {
		return nil, false
	}
	size := f.Size()
	if size == 0 {
		return nil, false
	}
	buf, err := l.res.target.ReadBytes(addr, int(size))
	if err != nil {
		return nil, false
	}
	return buf, true
}

// classInitialized reads the per-type initialization flag. The token's
// table discriminator is masked off and the flag lives at
// classData + rowid - 1 (the table is 1-indexed); the type is initialized
// iff bit 0 of that byte is set. This single-byte bitmask is a fixed
// protocol constant of the target runtime, not something to derive.
func (l *StaticLocator) classInitialized(dls DomainLocalStorage, tok sig.Token) bool {
	if tok.IsNil() {
		return false
	}
	flagsAddr := dls.ClassData + uint64(tok.Row()) - 1
	b, err := l.res.target.ReadByte(flagsAddr)
	if err != nil {
		return false
	}
	return b&1 != 0
}

// storageBase picks the region the field lives in: primitives go to the
// non-GC region, everything else holds a GC reference.
func (l *StaticLocator) storageBase(dls DomainLocalStorage, tag sig.ElemType) uint64 {
	if tag.IsPrimitive() {
		return dls.NonGCBase
	}
	return dls.GCBase
}

// readPointer reads one target pointer, returning 0 on any failure.
func (l *StaticLocator) readPointer(addr uint64) uint64 {
	buf, err := l.res.target.ReadBytes(addr, 8)
	if err != nil || len(buf) < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(buf)
}
