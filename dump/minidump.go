package dump

import (
	"os"
	"sort"

	"github.com/clrscope/clrscope"
	"github.com/clrscope/clrscope/dump/internal/binary"
	"github.com/clrscope/clrscope/errors"
)

// Minidump structure constants (MINIDUMP_HEADER and friends).
const (
	minidumpMagic = 0x504d444d // "MDMP"

	streamModuleList   = 4
	streamMemoryList   = 5
	streamSystemInfo   = 7
	streamMemory64List = 9

	headerSize      = 32
	directoryEntry  = 12
	moduleEntrySize = 108

	archAMD64 = 9
	archARM64 = 12
)

// memRange maps one contiguous range of target addresses to an offset in
// the dump file.
type memRange struct {
	start   uint64
	size    uint64
	fileOff uint64
}

// Minidump is a Target backed by a Windows minidump file image.
type Minidump struct {
	data    []byte
	ranges  []memRange // sorted by start address
	modules []clrscope.ModuleInfo
	arch    uint16
}

var _ clrscope.Target = (*Minidump)(nil)

// Open reads and parses a minidump file.
func Open(path string) (*Minidump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read dump file", err)
	}
	return Parse(data)
}

// Parse parses an in-memory minidump image. The image is retained; callers
// must not mutate it afterwards.
func Parse(data []byte) (*Minidump, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32()
	if err != nil {
		return nil, errors.Load("header", err)
	}
	if magic != minidumpMagic {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{"header"}, "not a minidump image")
	}
	if _, err := r.ReadU32(); err != nil { // version
		return nil, errors.Load("header", err)
	}
	numStreams, err := r.ReadU32()
	if err != nil {
		return nil, errors.Load("header", err)
	}
	dirRva, err := r.ReadU32()
	if err != nil {
		return nil, errors.Load("header", err)
	}

	d := &Minidump{data: data}

	for i := uint32(0); i < numStreams; i++ {
		entryOff := int(dirRva) + int(i)*directoryEntry
		if err := r.Seek(entryOff); err != nil {
			return nil, errors.Load("stream directory", err)
		}
		streamType, err := r.ReadU32()
		if err != nil {
			return nil, errors.Load("stream directory", err)
		}
		dataSize, err := r.ReadU32()
		if err != nil {
			return nil, errors.Load("stream directory", err)
		}
		rva, err := r.ReadU32()
		if err != nil {
			return nil, errors.Load("stream directory", err)
		}

		sr := binary.NewReader(data)
		if err := sr.Seek(int(rva)); err != nil {
			return nil, errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
				Path("stream directory").
				Detail("stream %d rva 0x%x outside image", streamType, rva).
				Build()
		}

		switch streamType {
		case streamModuleList:
			if err := d.parseModuleList(sr); err != nil {
				return nil, errors.ParseFailed("module list stream", err)
			}
		case streamMemoryList:
			if err := d.parseMemoryList(sr); err != nil {
				return nil, errors.ParseFailed("memory list stream", err)
			}
		case streamMemory64List:
			if err := d.parseMemory64List(sr); err != nil {
				return nil, errors.ParseFailed("memory64 list stream", err)
			}
		case streamSystemInfo:
			if err := d.parseSystemInfo(sr); err != nil {
				return nil, errors.ParseFailed("system info stream", err)
			}
		default:
			// Threads, exception records, and the rest carry nothing
			// the type engine needs.
			_ = dataSize
		}
	}

	sort.Slice(d.ranges, func(i, j int) bool {
		return d.ranges[i].start < d.ranges[j].start
	})

	if d.arch != 0 && d.arch != archAMD64 && d.arch != archARM64 {
		return nil, errors.Unsupported(errors.PhaseLoad, "32-bit target images")
	}
	return d, nil
}

func (d *Minidump) parseModuleList(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	listOff := r.Position()
	for i := uint32(0); i < count; i++ {
		if err := r.Seek(listOff + int(i)*moduleEntrySize); err != nil {
			return err
		}
		base, err := r.ReadU64()
		if err != nil {
			return err
		}
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		if _, err := r.ReadU32(); err != nil { // checksum
			return err
		}
		if _, err := r.ReadU32(); err != nil { // timestamp
			return err
		}
		nameRva, err := r.ReadU32()
		if err != nil {
			return err
		}
		name, err := r.ReadUTF16String(int(nameRva))
		if err != nil {
			return err
		}
		d.modules = append(d.modules, clrscope.ModuleInfo{
			Name: name,
			Base: base,
			Size: uint64(size),
			ID:   base,
		})
	}
	return nil
}

func (d *Minidump) parseMemoryList(r *binary.Reader) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		start, err := r.ReadU64()
		if err != nil {
			return err
		}
		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		rva, err := r.ReadU32()
		if err != nil {
			return err
		}
		if err := d.checkRange(uint64(rva), uint64(size)); err != nil {
			return err
		}
		d.ranges = append(d.ranges, memRange{
			start:   start,
			size:    uint64(size),
			fileOff: uint64(rva),
		})
	}
	return nil
}

func (d *Minidump) parseMemory64List(r *binary.Reader) error {
	count, err := r.ReadU64()
	if err != nil {
		return err
	}
	baseRva, err := r.ReadU64()
	if err != nil {
		return err
	}
	// Range payloads are laid out back to back starting at baseRva.
	off := baseRva
	for i := uint64(0); i < count; i++ {
		start, err := r.ReadU64()
		if err != nil {
			return err
		}
		size, err := r.ReadU64()
		if err != nil {
			return err
		}
		if err := d.checkRange(off, size); err != nil {
			return err
		}
		d.ranges = append(d.ranges, memRange{start: start, size: size, fileOff: off})
		off += size
	}
	return nil
}

// checkRange verifies a captured range's payload lies entirely inside the
// image. Hostile offsets and sizes near the uint64 maximum would otherwise
// wrap the bounds arithmetic in ReadBytes.
func (d *Minidump) checkRange(fileOff, size uint64) error {
	imgLen := uint64(len(d.data))
	if fileOff > imgLen || size > imgLen-fileOff {
		return errors.New(errors.PhaseLoad, errors.KindOutOfBounds).
			Path("memory range").
			Detail("payload at 0x%x size 0x%x outside image of %d bytes", fileOff, size, imgLen).
			Build()
	}
	return nil
}

func (d *Minidump) parseSystemInfo(r *binary.Reader) error {
	arch, err := r.ReadU16()
	if err != nil {
		return err
	}
	d.arch = arch
	return nil
}

// findRange locates the memory range containing addr.
func (d *Minidump) findRange(addr uint64) (memRange, bool) {
	i := sort.Search(len(d.ranges), func(i int) bool {
		return d.ranges[i].start > addr
	})
	i--
	if i < 0 {
		return memRange{}, false
	}
	rg := d.ranges[i]
	if addr >= rg.start+rg.size {
		return memRange{}, false
	}
	return rg, true
}

// ReadByte implements clrscope.Target.
func (d *Minidump) ReadByte(addr uint64) (byte, error) {
	b, err := d.ReadBytes(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes implements clrscope.Target. Reads must fall within a single
// captured memory range; a read that straddles a gap fails.
func (d *Minidump) ReadBytes(addr uint64, n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.OutOfBounds(errors.PhaseLoad, nil, n, 0)
	}
	rg, ok := d.findRange(addr)
	if !ok {
		return nil, errors.Unreadable(errors.PhaseLoad, addr, n, nil)
	}
	// Subtraction form so attacker-sized ranges cannot wrap the checks;
	// checkRange established fileOff+size <= len(data) at parse time.
	off := addr - rg.start
	if off > rg.size || uint64(n) > rg.size-off {
		return nil, errors.Unreadable(errors.PhaseLoad, addr, n, nil)
	}
	fileOff := rg.fileOff + off
	return d.data[fileOff : fileOff+uint64(n)], nil
}

// Modules implements clrscope.Target.
func (d *Minidump) Modules() []clrscope.ModuleInfo {
	out := make([]clrscope.ModuleInfo, len(d.modules))
	copy(out, d.modules)
	return out
}

// Close releases the image. The Minidump must not be used afterwards.
func (d *Minidump) Close() error {
	d.data = nil
	d.ranges = nil
	d.modules = nil
	return nil
}
