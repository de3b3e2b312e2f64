package assemble

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Write serializes obj the way a prior implementation's shared/assembler/assembler.go
// (*ObjectFile).Write does: a fixed binary.Write sequence, little-endian,
// section/symbol/relocation counts up front so Read knows how many fixed
// records to expect before the variable-length name/byte data.
func (obj *ObjectFile) Write(w io.Writer) error {
	if _, err := w.Write([]byte(objectMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, obj.EntryPoint); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(obj.Sections))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(obj.Symbols))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(obj.Relocations))); err != nil {
		return err
	}

	for _, sec := range obj.Sections {
		if err := binary.Write(w, binary.LittleEndian, sec.Kind); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, sec.Address); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(sec.Bytes))); err != nil {
			return err
		}
		if _, err := w.Write(sec.Bytes); err != nil {
			return err
		}
	}

	for _, sym := range obj.Symbols {
		if err := writeString(w, sym.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, sym.Kind); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, sym.Address); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, sym.Binding); err != nil {
			return err
		}
	}

	for _, reloc := range obj.Relocations {
		if err := binary.Write(w, binary.LittleEndian, reloc.Section); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, reloc.Offset); err != nil {
			return err
		}
		if err := writeString(w, reloc.Symbol); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, reloc.Type); err != nil {
			return err
		}
	}

	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// Read parses the container Write produces. It is the inverse used by
// cmd/vonsim-objdump, by cmd/vonsim to load an object, and by cmd/vonsimc
// to load the objects it hands to internal/link.
func Read(r io.Reader) (*ObjectFile, error) {
	magic := make([]byte, len(objectMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("dulf: reading magic: %w", err)
	}
	if string(magic) != objectMagic {
		return nil, fmt.Errorf("dulf: bad magic %q, want %q", magic, objectMagic)
	}

	obj := &ObjectFile{Magic: objectMagic}
	if err := binary.Read(r, binary.LittleEndian, &obj.EntryPoint); err != nil {
		return nil, fmt.Errorf("dulf: reading entry point: %w", err)
	}

	var sectionCount, symbolCount, relocCount uint16
	if err := binary.Read(r, binary.LittleEndian, &sectionCount); err != nil {
		return nil, fmt.Errorf("dulf: reading section count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &symbolCount); err != nil {
		return nil, fmt.Errorf("dulf: reading symbol count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &relocCount); err != nil {
		return nil, fmt.Errorf("dulf: reading relocation count: %w", err)
	}

	for i := uint16(0); i < sectionCount; i++ {
		var sec Section
		if err := binary.Read(r, binary.LittleEndian, &sec.Kind); err != nil {
			return nil, fmt.Errorf("dulf: section %d kind: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sec.Address); err != nil {
			return nil, fmt.Errorf("dulf: section %d address: %w", i, err)
		}
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, fmt.Errorf("dulf: section %d size: %w", i, err)
		}
		sec.Bytes = make([]byte, size)
		if _, err := io.ReadFull(r, sec.Bytes); err != nil {
			return nil, fmt.Errorf("dulf: section %d bytes: %w", i, err)
		}
		obj.Sections = append(obj.Sections, sec)
	}

	for i := uint16(0); i < symbolCount; i++ {
		var sym Symbol
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("dulf: symbol %d name: %w", i, err)
		}
		sym.Name = name
		if err := binary.Read(r, binary.LittleEndian, &sym.Kind); err != nil {
			return nil, fmt.Errorf("dulf: symbol %d kind: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sym.Address); err != nil {
			return nil, fmt.Errorf("dulf: symbol %d address: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &sym.Binding); err != nil {
			return nil, fmt.Errorf("dulf: symbol %d binding: %w", i, err)
		}
		obj.Symbols = append(obj.Symbols, sym)
	}

	for i := uint16(0); i < relocCount; i++ {
		var reloc Relocation
		if err := binary.Read(r, binary.LittleEndian, &reloc.Section); err != nil {
			return nil, fmt.Errorf("dulf: relocation %d section: %w", i, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &reloc.Offset); err != nil {
			return nil, fmt.Errorf("dulf: relocation %d offset: %w", i, err)
		}
		symbol, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("dulf: relocation %d symbol: %w", i, err)
		}
		reloc.Symbol = symbol
		if err := binary.Read(r, binary.LittleEndian, &reloc.Type); err != nil {
			return nil, fmt.Errorf("dulf: relocation %d type: %w", i, err)
		}
		obj.Relocations = append(obj.Relocations, reloc)
	}

	return obj, nil
}

// Bytes serializes obj into an in-memory buffer.
func (obj *ObjectFile) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := obj.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
