package typesys

import "sync"

type domainModule struct {
	domain uint64
	module uint64
}

// TableRuntimeData is a RuntimeData backed by explicit tables. It suits
// targets whose runtime records were collected up front (dump analysis)
// and doubles as the fixture type in tests.
//
// Safe for concurrent use once populated; population and queries may also
// be interleaved.
type TableRuntimeData struct {
	mu       sync.RWMutex
	domains  []uint64
	byModule map[domainModule]DomainLocalStorage
	byBase   map[uint64]DomainLocalStorage
	bases    map[domainModule]uint64
}

// NewTableRuntimeData creates an empty table.
func NewTableRuntimeData() *TableRuntimeData {
	return &TableRuntimeData{
		byModule: make(map[domainModule]DomainLocalStorage),
		byBase:   make(map[uint64]DomainLocalStorage),
		bases:    make(map[domainModule]uint64),
	}
}

// AddDomain appends a domain to the enumeration order.
func (t *TableRuntimeData) AddDomain(domain uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.domains = append(t.domains, domain)
}

// SetDomainStorage records the storage for a shared module in a domain.
func (t *TableRuntimeData) SetDomainStorage(domain, moduleID uint64, dls DomainLocalStorage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byModule[domainModule{domain, moduleID}] = dls
}

// SetBaseStorage records the storage reachable from an unshared module's
// base address.
func (t *TableRuntimeData) SetBaseStorage(moduleBase uint64, dls DomainLocalStorage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byBase[moduleBase] = dls
}

// SetModuleBase records where a module is loaded within a domain.
func (t *TableRuntimeData) SetModuleBase(domain, moduleID, base uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bases[domainModule{domain, moduleID}] = base
}

// Domains implements RuntimeData.
func (t *TableRuntimeData) Domains() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]uint64, len(t.domains))
	copy(out, t.domains)
	return out
}

// DomainStorageByModule implements RuntimeData.
func (t *TableRuntimeData) DomainStorageByModule(domain, moduleID uint64) (DomainLocalStorage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	dls, ok := t.byModule[domainModule{domain, moduleID}]
	return dls, ok
}

// DomainStorageByBase implements RuntimeData.
func (t *TableRuntimeData) DomainStorageByBase(moduleBase uint64) (DomainLocalStorage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	dls, ok := t.byBase[moduleBase]
	return dls, ok
}

// ModuleBase implements RuntimeData.
func (t *TableRuntimeData) ModuleBase(domain, moduleID uint64) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.bases[domainModule{domain, moduleID}]
}
