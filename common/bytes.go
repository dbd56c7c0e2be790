package common

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteUint32 writes v as a 4-byte little-endian field.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint32 reads a 4-byte little-endian field.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteBytes writes a length-prefixed byte slice.
func WriteBytes(w io.Writer, b []byte) error {
	if err := WriteUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadBytes reads a length-prefixed byte slice.
func ReadBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("common.ReadBytes: %w", err)
	}
	return buf, nil
}

// Concat concatenates byte slices and strings into one slice, mirroring the
// teacher's variadic Concat helper.
func Concat(parts ...interface{}) []byte {
	var out []byte
	for _, p := range parts {
		switch t := p.(type) {
		case []byte:
			out = append(out, t...)
		case string:
			out = append(out, []byte(t)...)
		case byte:
			out = append(out, t)
		default:
			panic(fmt.Sprintf("common.Concat: unsupported part type %T", p))
		}
	}
	return out
}
