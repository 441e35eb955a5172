// Package cursor provides a bounds-checked read cursor over an immutable
// octet sequence. Every NAS decoder in this module reads through a Cursor;
// no decoder indexes the input slice directly.
package cursor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("read out of bounds")

// Cursor reads big-endian fields from a byte slice and advances an offset.
// A Cursor is not safe for concurrent use; each decode call owns its own.
type Cursor struct {
	data []byte
	off  int
	base int
}

func New(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Len returns the number of unread octets.
func (c *Cursor) Len() int {
	return len(c.data) - c.off
}

// Offset returns the absolute offset of the next octet, counted from the
// start of the buffer the outermost cursor was created over.
func (c *Cursor) Offset() int {
	return c.base + c.off
}

func (c *Cursor) Empty() bool {
	return c.off >= len(c.data)
}

func (c *Cursor) need(n int) error {
	if n < 0 || n > c.Len() {
		return fmt.Errorf("%w: need %d octets at offset %d, have %d", ErrOutOfBounds, n, c.Offset(), c.Len())
	}

	return nil
}

func (c *Cursor) ReadUint8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}

	v := c.data[c.off]
	c.off++

	return v, nil
}

func (c *Cursor) ReadUint16() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}

	v := binary.BigEndian.Uint16(c.data[c.off:])
	c.off += 2

	return v, nil
}

// ReadUint24 reads three octets into the low 24 bits of the result.
func (c *Cursor) ReadUint24() (uint32, error) {
	if err := c.need(3); err != nil {
		return 0, err
	}

	b := c.data[c.off : c.off+3]
	c.off += 3

	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}

	v := binary.BigEndian.Uint32(c.data[c.off:])
	c.off += 4

	return v, nil
}

// ReadSlice returns the next n octets. The returned slice aliases the input
// buffer; callers that retain it must copy.
func (c *Cursor) ReadSlice(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}

	b := c.data[c.off : c.off+n : c.off+n]
	c.off += n

	return b, nil
}

// ReadBytes is ReadSlice followed by a copy.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	b, err := c.ReadSlice(n)
	if err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, b)

	return out, nil
}

func (c *Cursor) Skip(n int) error {
	if err := c.need(n); err != nil {
		return err
	}

	c.off += n

	return nil
}

// Sub consumes the next n octets and returns a cursor bounded to them.
// Reads on the returned cursor can never reach past those n octets.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}

	sub := &Cursor{
		data: c.data[c.off : c.off+n : c.off+n],
		base: c.Offset(),
	}
	c.off += n

	return sub, nil
}

// Rest consumes and returns every unread octet.
func (c *Cursor) Rest() []byte {
	b := c.data[c.off:]
	c.off = len(c.data)

	return b
}
