package typesys_test

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/clrscope/clrscope"
	"github.com/clrscope/clrscope/dump"
	"github.com/clrscope/clrscope/sig"
	"github.com/clrscope/clrscope/typesys"
)

// testWorld bundles the fixture services a resolution test needs.
type testWorld struct {
	target  *dump.MemoryTarget
	catalog *typesys.MemoryCatalog
	runtime *typesys.TableRuntimeData
	res     *typesys.Resolver
}

func newTestWorld() *testWorld {
	w := &testWorld{
		target:  dump.NewMemoryTarget(),
		catalog: typesys.NewMemoryCatalog(),
		runtime: typesys.NewTableRuntimeData(),
	}
	w.res = typesys.NewResolver(w.target, w.catalog, w.runtime)
	return w
}

// addUnsharedModule wires one domain with an unshared module whose static
// regions are mapped and zeroed.
func (w *testWorld) addUnsharedModule(domain, modBase uint64, dls typesys.DomainLocalStorage) clrscope.ModuleInfo {
	mod := clrscope.ModuleInfo{Name: "app.dll", Base: modBase, Size: 0x1000, ID: modBase}
	w.runtime.AddDomain(domain)
	w.runtime.SetModuleBase(domain, mod.ID, modBase)
	w.runtime.SetBaseStorage(modBase, dls)
	w.target.AddRange(dls.NonGCBase, make([]byte, 0x400))
	w.target.AddRange(dls.GCBase, make([]byte, 0x400))
	return mod
}

// setPointer writes a little-endian target pointer.
func (w *testWorld) setPointer(addr, value uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	w.target.AddRange(addr, buf)
}

func TestResolveEmptySignatureFallsThroughToBasic(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "count",
		Elem: sig.ElemI4,
	})

	got := f.ResolvedType()
	want := w.catalog.BasicType(sig.ElemI4)
	if got != want {
		t.Errorf("got %v, want canonical int32 basic type", got)
	}
	if f.Size() != 4 {
		t.Errorf("Size: got %d, want 4", f.Size())
	}
}

func TestResolveTwiceReturnsIdenticalType(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "items",
		Elem: sig.ElemSZArray,
		Sig:  sig.SZArrayFieldSig(sig.ElemObject),
	})

	first := f.ResolvedType()
	second := f.ResolvedType()
	if first != second {
		t.Error("repeated resolution returned different type instances")
	}
	if first != w.catalog.ObjectArrayType() {
		t.Error("szarray of object did not resolve to the canonical object array")
	}
}

func TestResolveConcurrentFirstCallsConverge(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "grid",
		Elem: sig.ElemArray,
		Sig:  sig.ArrayFieldSig(sig.ElemR8, 3),
	})

	const goroutines = 16
	results := make([]typesys.Type, goroutines)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			results[i] = f.ResolvedType()
		}(i)
	}
	start.Done()
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d observed a different resolved type", i)
		}
	}
}

func TestResolveArraySignature(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "matrix",
		Elem: sig.ElemArray,
		Sig:  sig.ArrayFieldSig(sig.ElemI4, 2),
	})

	got := f.ResolvedType()
	if got != w.catalog.ArrayType(sig.ElemI4, 2) {
		t.Errorf("got %v (%T), want canonical int32 rank-2 array", got, got)
	}
}

func TestResolveSZArrayPrimitiveSignature(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "bytes",
		Elem: sig.ElemSZArray,
		Sig:  sig.SZArrayFieldSig(sig.ElemU1),
	})

	got := f.ResolvedType()
	if got != w.catalog.ArrayType(sig.ElemU1, typesys.AnyRank) {
		t.Errorf("got %v, want any-rank uint8 array", got)
	}
}

func TestResolvePointerSignatureRoundTrip(t *testing.T) {
	w := newTestWorld()

	const moduleID = 0x7000
	tok := sig.TableTypeDef | 0x0042
	pointee := w.catalog.RegisterClass(moduleID, tok, typesys.ClassSpec{
		Name: "Native.Buffer",
		Elem: sig.ElemValueType,
		Size: 24,
	})

	owner := &typesys.Owner{
		Token:  sig.TableTypeDef | 0x01,
		Module: clrscope.ModuleInfo{Name: "app.dll", ID: moduleID},
	}
	f := w.res.NewField(owner, typesys.FieldMeta{
		Name: "buf",
		Elem: sig.ElemPtr,
		Sig:  sig.PointerFieldSig(sig.ElemValueType, tok),
	})

	got := f.ResolvedType()
	want := w.catalog.PointerType(pointee, sig.ElemValueType)
	if got != want {
		t.Errorf("got %v, want canonical pointer to registered type", got)
	}
}

func TestResolvePointerUnknownTokenFallsBack(t *testing.T) {
	w := newTestWorld()

	owner := &typesys.Owner{
		Token:  sig.TableTypeDef | 0x01,
		Module: clrscope.ModuleInfo{Name: "app.dll", ID: 0x7000},
	}
	f := w.res.NewField(owner, typesys.FieldMeta{
		Name: "raw",
		Elem: sig.ElemPtr,
		Sig:  sig.PointerFieldSig(sig.ElemI4, sig.TableTypeDef|0x9999),
	})

	got := f.ResolvedType()
	want := w.catalog.PointerType(w.catalog.BasicType(sig.ElemI4), sig.ElemI4)
	if got != want {
		t.Errorf("got %v, want pointer wrapping basic int32", got)
	}
}

func TestResolveMalformedSignatureDegrades(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "broken",
		Elem: sig.ElemI8,
		Sig:  []byte{sig.ConvField, byte(sig.ElemArray)}, // truncated
	})

	got := f.ResolvedType()
	if got != w.catalog.BasicType(sig.ElemI8) {
		t.Errorf("malformed signature should fall back to basic int64, got %v", got)
	}
}

func TestResolveUnknownTagYieldsUnresolved(t *testing.T) {
	w := newTestWorld()
	f := w.res.NewField(nil, typesys.FieldMeta{
		Name: "mystery",
		Elem: sig.ElemType(0x3f),
	})

	got := f.ResolvedType()
	if !typesys.IsUnresolved(got) {
		t.Errorf("unknown tag should resolve to the Unresolved sentinel, got %v", got)
	}
}

func TestHeuristicPicksShallowestAcrossDomains(t *testing.T) {
	// Two domains hold instances of different runtime types: deep (depth
	// 3) and shallow (depth 1). The shallow one approximates the declared
	// type best and must win regardless of enumeration order.
	run := func(t *testing.T, domains []uint64) {
		w := newTestWorld()

		root := w.catalog.RegisterClass(1, sig.TableTypeDef|0x10, typesys.ClassSpec{Name: "Root"})
		mid := w.catalog.RegisterClass(1, sig.TableTypeDef|0x11, typesys.ClassSpec{Name: "Mid", Base: root})
		deep2 := w.catalog.RegisterClass(1, sig.TableTypeDef|0x12, typesys.ClassSpec{Name: "Deep2", Base: mid})
		deep := w.catalog.RegisterClass(1, sig.TableTypeDef|0x13, typesys.ClassSpec{Name: "Deep", Base: deep2})
		shallow := w.catalog.RegisterClass(1, sig.TableTypeDef|0x20, typesys.ClassSpec{Name: "Shallow", Base: root})

		// Fixtures are keyed by domain identity, so reversing the
		// enumeration order changes which candidate is seen first
		// without changing where anything lives.
		storageFor := map[uint64]typesys.DomainLocalStorage{
			0xd1: {NonGCBase: 0x10000, GCBase: 0x11000},
			0xd2: {NonGCBase: 0x20000, GCBase: 0x21000},
		}
		baseFor := map[uint64]uint64{0xd1: 0x40000, 0xd2: 0x50000}
		objFor := map[uint64]uint64{0xd1: 0x90000, 0xd2: 0x91000}
		typeFor := map[uint64]typesys.Type{0xd1: deep, 0xd2: shallow}

		mod := clrscope.ModuleInfo{Name: "app.dll", Size: 0x1000, ID: 0x40000}
		for _, d := range domains {
			dls := storageFor[d]
			w.runtime.AddDomain(d)
			w.runtime.SetModuleBase(d, mod.ID, baseFor[d])
			w.runtime.SetBaseStorage(baseFor[d], dls)
			w.target.AddRange(dls.GCBase, make([]byte, 0x400))
			w.setPointer(dls.GCBase+0x20, objFor[d])
			w.catalog.RegisterObject(objFor[d], typeFor[d])
		}

		owner := &typesys.Owner{Token: sig.TableTypeDef | 0x30, Module: mod}
		f := w.res.NewField(owner, typesys.FieldMeta{
			Name:   "current",
			Elem:   sig.ElemClass,
			Offset: 0x20,
		})

		got := f.ResolvedType()
		if got != shallow {
			t.Errorf("got %v, want the shallowest observed type", got)
		}
	}

	t.Run("shallow second", func(t *testing.T) { run(t, []uint64{0xd1, 0xd2}) })
	t.Run("shallow first", func(t *testing.T) { run(t, []uint64{0xd2, 0xd1}) })
}

func TestHeuristicTieBreakKeepsFirstSeen(t *testing.T) {
	w := newTestWorld()

	root := w.catalog.RegisterClass(1, sig.TableTypeDef|0x10, typesys.ClassSpec{Name: "Root"})
	left := w.catalog.RegisterClass(1, sig.TableTypeDef|0x11, typesys.ClassSpec{Name: "Left", Base: root})
	right := w.catalog.RegisterClass(1, sig.TableTypeDef|0x12, typesys.ClassSpec{Name: "Right", Base: root})

	dlsA := typesys.DomainLocalStorage{NonGCBase: 0x10000, GCBase: 0x11000}
	dlsB := typesys.DomainLocalStorage{NonGCBase: 0x20000, GCBase: 0x21000}
	mod := w.addUnsharedModule(0xa1, 0x40000, dlsA)
	w.runtime.AddDomain(0xa2)
	w.runtime.SetModuleBase(0xa2, mod.ID, 0x50000)
	w.runtime.SetBaseStorage(0x50000, dlsB)
	w.target.AddRange(dlsB.GCBase, make([]byte, 0x400))

	w.setPointer(dlsA.GCBase+0x08, 0x90000)
	w.catalog.RegisterObject(0x90000, left)
	w.setPointer(dlsB.GCBase+0x08, 0x91000)
	w.catalog.RegisterObject(0x91000, right)

	owner := &typesys.Owner{Token: sig.TableTypeDef | 0x30, Module: mod}
	f := w.res.NewField(owner, typesys.FieldMeta{
		Name:   "handler",
		Elem:   sig.ElemClass,
		Offset: 0x08,
	})

	// Equal depths: the candidate from the first enumerated domain wins.
	if got := f.ResolvedType(); got != left {
		t.Errorf("got %v, want first-seen candidate on a depth tie", got)
	}
}

func TestHeuristicFallsBackToMethodTableLookup(t *testing.T) {
	w := newTestWorld()

	root := w.catalog.RegisterClass(1, sig.TableTypeDef|0x10, typesys.ClassSpec{Name: "Root"})
	conn := w.catalog.RegisterClass(1, sig.TableTypeDef|0x11, typesys.ClassSpec{
		Name:        "Net.Connection",
		Base:        root,
		MethodTable: 0x7ffc5000,
	})

	dls := typesys.DomainLocalStorage{NonGCBase: 0x10000, GCBase: 0x11000}
	mod := w.addUnsharedModule(0xc1, 0x40000, dls)

	// The object at 0x90000 is not indexed by address, only its header's
	// method table word identifies it.
	w.setPointer(dls.GCBase+0x10, 0x90000)
	w.setPointer(0x90000, 0x7ffc5000)

	owner := &typesys.Owner{Token: sig.TableTypeDef | 0x30, Module: mod}
	f := w.res.NewField(owner, typesys.FieldMeta{
		Name:   "conn",
		Elem:   sig.ElemClass,
		Offset: 0x10,
	})

	if got := f.ResolvedType(); got != conn {
		t.Errorf("got %v, want type found through its method table", got)
	}
}

func TestResolutionIsNotRepeatedAfterTargetChanges(t *testing.T) {
	w := newTestWorld()

	root := w.catalog.RegisterClass(1, sig.TableTypeDef|0x10, typesys.ClassSpec{Name: "Root"})
	derived := w.catalog.RegisterClass(1, sig.TableTypeDef|0x11, typesys.ClassSpec{Name: "Derived", Base: root})

	dls := typesys.DomainLocalStorage{NonGCBase: 0x10000, GCBase: 0x11000}
	mod := w.addUnsharedModule(0xb1, 0x40000, dls)
	w.setPointer(dls.GCBase+0x10, 0x90000)
	w.catalog.RegisterObject(0x90000, derived)

	owner := &typesys.Owner{Token: sig.TableTypeDef | 0x30, Module: mod}
	f := w.res.NewField(owner, typesys.FieldMeta{
		Name:   "instance",
		Elem:   sig.ElemClass,
		Offset: 0x10,
	})

	first := f.ResolvedType()
	if first != derived {
		t.Fatalf("setup: got %v, want Derived", first)
	}

	// A shallower instance appears later; the memoized answer must not
	// move even though a fresh heuristic pass would prefer it.
	w.setPointer(dls.GCBase+0x10, 0x91000)
	w.catalog.RegisterObject(0x91000, root)

	if got := f.ResolvedType(); got != first {
		t.Error("resolved type changed after memoization")
	}
}

func TestVisibilityPredicates(t *testing.T) {
	tests := []struct {
		name      string
		attrs     typesys.FieldAttrs
		public    bool
		private   bool
		internal  bool
		protected bool
	}{
		{"public", typesys.AccessPublic, true, false, false, false},
		{"private", typesys.AccessPrivate | typesys.AttrStatic, false, true, false, false},
		{"internal", typesys.AccessAssembly, false, false, true, false},
		{"protected", typesys.AccessFamily, false, false, false, true},
		{"famandassem", typesys.AccessFamANDAssem, false, false, false, false},
		{"famorassem", typesys.AccessFamORAssem, false, false, false, false},
		{"compiler controlled", typesys.AccessCompilerControlled, false, false, false, false},
		{"unrecognized", typesys.FieldAttrs(0x7), false, false, false, false},
	}

	w := newTestWorld()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := w.res.NewField(nil, typesys.FieldMeta{Name: "x", Attrs: tt.attrs, Elem: sig.ElemI4})
			if f.IsPublic() != tt.public {
				t.Errorf("IsPublic: got %v", f.IsPublic())
			}
			if f.IsPrivate() != tt.private {
				t.Errorf("IsPrivate: got %v", f.IsPrivate())
			}
			if f.IsInternal() != tt.internal {
				t.Errorf("IsInternal: got %v", f.IsInternal())
			}
			if f.IsProtected() != tt.protected {
				t.Errorf("IsProtected: got %v", f.IsProtected())
			}
		})
	}
}

func TestDefaultValuePassthrough(t *testing.T) {
	w := newTestWorld()

	withDefault := w.res.NewField(nil, typesys.FieldMeta{
		Name:    "limit",
		Elem:    sig.ElemI4,
		Attrs:   typesys.AttrHasDefault | typesys.AttrLiteral | typesys.AttrStatic,
		Default: []byte{0x40, 0x00, 0x00, 0x00},
	})
	if !withDefault.HasDefault() {
		t.Error("HasDefault: got false")
	}
	if got := withDefault.DefaultValue(); len(got) != 4 || got[0] != 0x40 {
		t.Errorf("DefaultValue: got % x", got)
	}
	if !withDefault.IsLiteral() || !withDefault.IsStatic() {
		t.Error("contract flags not carried through")
	}

	without := w.res.NewField(nil, typesys.FieldMeta{Name: "y", Elem: sig.ElemI4})
	if without.HasDefault() || without.DefaultValue() != nil {
		t.Error("field without default reported one")
	}
}

func TestElemTypeNeedsNoResolution(t *testing.T) {
	w := newTestWorld()
	// No catalog entries, no domains, no memory: ElemType alone must
	// still answer.
	f := w.res.NewField(nil, typesys.FieldMeta{Name: "flags", Elem: sig.ElemU8})
	if f.ElemType() != sig.ElemU8 {
		t.Errorf("ElemType: got %v", f.ElemType())
	}
}
