package dump

import (
	"sort"
	"sync"

	"github.com/clrscope/clrscope"
	"github.com/clrscope/clrscope/errors"
)

// MemoryTarget is an in-memory Target built from explicit address ranges.
// It backs tests and serves as the bridge for callers that capture target
// memory themselves (live-process readers, custom dump formats).
//
// Safe for concurrent use; ranges may be added while reads proceed.
type MemoryTarget struct {
	mu      sync.RWMutex
	starts  []uint64 // sorted range start addresses
	chunks  map[uint64][]byte
	modules []clrscope.ModuleInfo
}

var _ clrscope.Target = (*MemoryTarget)(nil)

// NewMemoryTarget creates an empty target.
func NewMemoryTarget() *MemoryTarget {
	return &MemoryTarget{chunks: make(map[uint64][]byte)}
}

// AddRange maps data at the given start address. The slice is retained.
// Overlapping ranges are not merged; the range starting at the highest
// address at or below the read wins.
func (m *MemoryTarget) AddRange(start uint64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.chunks[start]; !exists {
		i := sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > start })
		m.starts = append(m.starts, 0)
		copy(m.starts[i+1:], m.starts[i:])
		m.starts[i] = start
	}
	m.chunks[start] = data
}

// AddModule appends a module to the enumeration.
func (m *MemoryTarget) AddModule(mod clrscope.ModuleInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules = append(m.modules, mod)
}

// ReadByte implements clrscope.Target.
func (m *MemoryTarget) ReadByte(addr uint64) (byte, error) {
	b, err := m.ReadBytes(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes implements clrscope.Target.
func (m *MemoryTarget) ReadBytes(addr uint64, n int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > addr })
	i--
	if i < 0 {
		return nil, errors.Unreadable(errors.PhaseLoad, addr, n, nil)
	}
	start := m.starts[i]
	data := m.chunks[start]
	off := addr - start
	if off+uint64(n) > uint64(len(data)) {
		return nil, errors.Unreadable(errors.PhaseLoad, addr, n, nil)
	}
	return data[off : off+uint64(n)], nil
}

// Modules implements clrscope.Target.
func (m *MemoryTarget) Modules() []clrscope.ModuleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]clrscope.ModuleInfo, len(m.modules))
	copy(out, m.modules)
	return out
}
