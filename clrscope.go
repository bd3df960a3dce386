package clrscope

// Target provides raw read access to the memory image of a .NET runtime
// instance: a live process, a full dump, or a minidump. Implementations must
// be safe for concurrent reads; the image is treated as immutable for the
// lifetime of an analysis session.
type Target interface {
	// ReadByte reads a single byte at an absolute address.
	ReadByte(addr uint64) (byte, error)

	// ReadBytes reads exactly n bytes starting at an absolute address.
	ReadBytes(addr uint64, n int) ([]byte, error)

	// Modules enumerates the modules loaded in the target, in load order.
	Modules() []ModuleInfo
}

// ModuleInfo describes one loaded module in the target image.
type ModuleInfo struct {
	Name   string
	Base   uint64 // image base address in the target
	Size   uint64 // mapped image size in bytes
	ID     uint64 // runtime module identity, stable across domains
	Shared bool   // true when the module's static storage is domain-neutral
}

// PointerSize is the width of a target pointer in bytes. Only 64-bit
// targets are supported.
const PointerSize = 8
