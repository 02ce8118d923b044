// Package codec reads and writes the little-endian binary records stored in
// save-game segments.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/sc4plugins/custom-budget-departments/internal/common"
)

// Reader decodes primitive values. The first failure is sticky: later reads
// return the same error.
type Reader struct {
	r   io.Reader
	err error
	buf [8]byte
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Err returns the first error encountered.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fill(n int) []byte {
	if r.err != nil {
		return nil
	}
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: stream truncated", common.ErrCorruptData)
		}
		r.err = err
		return nil
	}
	return r.buf[:n]
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b := r.fill(1)
	if b == nil {
		return 0, r.err
	}
	return b[0], nil
}

// Bool reads a byte and reports whether it is non-zero.
func (r *Reader) Bool() (bool, error) {
	v, err := r.Uint8()
	return v != 0, err
}

// Uint32 reads a 32-bit unsigned integer.
func (r *Reader) Uint32() (uint32, error) {
	b := r.fill(4)
	if b == nil {
		return 0, r.err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Int64 reads a 64-bit signed integer.
func (r *Reader) Int64() (int64, error) {
	b := r.fill(8)
	if b == nil {
		return 0, r.err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// Float32 reads an IEEE 754 single.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Version reads a record version and rejects anything but want.
func (r *Reader) Version(want uint32) error {
	v, err := r.Uint32()
	if err != nil {
		return err
	}
	if v != want {
		r.err = fmt.Errorf("%w: unsupported version %d", common.ErrCorruptData, v)
		return r.err
	}
	return nil
}

// Writer encodes primitive values. The first failure is sticky.
type Writer struct {
	w   io.Writer
	err error
	buf [8]byte
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Err returns the first error encountered.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) flush(b []byte) error {
	if w.err != nil {
		return w.err
	}
	if _, err := w.w.Write(b); err != nil {
		w.err = err
	}
	return w.err
}

// Uint8 writes one byte.
func (w *Writer) Uint8(v uint8) error {
	w.buf[0] = v
	return w.flush(w.buf[:1])
}

// Bool writes 1 or 0.
func (w *Writer) Bool(v bool) error {
	if v {
		return w.Uint8(1)
	}
	return w.Uint8(0)
}

// Uint32 writes a 32-bit unsigned integer.
func (w *Writer) Uint32(v uint32) error {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	return w.flush(w.buf[:4])
}

// Int64 writes a 64-bit signed integer.
func (w *Writer) Int64(v int64) error {
	binary.LittleEndian.PutUint64(w.buf[:8], uint64(v))
	return w.flush(w.buf[:8])
}

// Float32 writes an IEEE 754 single.
func (w *Writer) Float32(v float32) error {
	return w.Uint32(math.Float32bits(v))
}
