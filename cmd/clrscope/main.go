package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/clrscope/clrscope/dump"
	"github.com/clrscope/clrscope/sig"
	"github.com/clrscope/clrscope/typesys"
)

func main() {
	var (
		dumpFile    = flag.String("dump", "", "Path to minidump file")
		listMods    = flag.Bool("modules", false, "List loaded modules and exit")
		readAddr    = flag.String("read", "", "Hex address to read from the dump")
		readLen     = flag.Int("n", 64, "Bytes to read with -read")
		sigBlob     = flag.String("sig", "", "Hex field signature blob to decode")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *verbose {
		if log, err := zap.NewDevelopment(); err == nil {
			typesys.SetLogger(log)
		}
	}

	// Signature decoding needs no dump image.
	if *sigBlob != "" {
		if err := decodeSig(*sigBlob); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *dumpFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: clrscope -dump <file.dmp> [-modules] [-read addr -n count]")
		fmt.Fprintln(os.Stderr, "       clrscope -dump <file.dmp> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       clrscope -sig <hex>  (decode a field signature blob)")
		os.Exit(1)
	}

	if *interactive {
		if err := runInteractive(*dumpFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*dumpFile, *listMods, *readAddr, *readLen); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(dumpFile string, listMods bool, readAddr string, readLen int) error {
	d, err := dump.Open(dumpFile)
	if err != nil {
		return err
	}
	defer d.Close()

	mods := d.Modules()
	fmt.Printf("Dump: %s\n", dumpFile)
	fmt.Printf("Modules: %d\n", len(mods))

	if listMods {
		fmt.Println()
		for _, m := range mods {
			fmt.Printf("  %016x  %8x  %s\n", m.Base, m.Size, m.Name)
		}
		return nil
	}

	if readAddr != "" {
		addr, err := parseAddr(readAddr)
		if err != nil {
			return err
		}
		data, err := d.ReadBytes(addr, readLen)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Print(hexDump(addr, data))
	}

	return nil
}

func decodeSig(blob string) error {
	raw, err := hex.DecodeString(strings.TrimPrefix(blob, "0x"))
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	shape, err := sig.DecodeFieldShape(raw)
	if err != nil {
		return err
	}

	switch s := shape.(type) {
	case sig.ShapeArray:
		fmt.Printf("array of %s, rank %d\n", s.Inner, s.Rank)
	case sig.ShapeSZArray:
		fmt.Printf("szarray of %s\n", s.Inner)
	case sig.ShapePointer:
		if s.Token.IsNil() {
			fmt.Printf("pointer to %s\n", s.Inner)
		} else {
			fmt.Printf("pointer to %s (%s)\n", s.Inner, s.Token)
		}
	case sig.ShapeOther:
		fmt.Printf("%s\n", s.Tag)
	}
	return nil
}

func parseAddr(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	addr, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}

// hexDump formats data as 16-byte lines with an ASCII column.
func hexDump(addr uint64, data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]

		fmt.Fprintf(&b, "%016x  ", addr+uint64(off))
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&b, "%02x ", line[i])
			} else {
				b.WriteString("   ")
			}
			if i == 7 {
				b.WriteByte(' ')
			}
		}
		b.WriteString(" |")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			b.WriteByte(c)
		}
		b.WriteString("|\n")
	}
	return b.String()
}
