package artifact

import (
	"encoding/binary"
	"errors"
	"io"
)

// cursor is a sticky-error reader over a decode buffer: once one field read
// fails, every subsequent field read is a no-op returning the same error, so
// Decode in artifact.go can read every field in sequence and check err once
// at the end instead of after each call.
type cursor struct {
	b   []byte
	pos int
	err error
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || n > len(c.b)-c.pos {
		c.err = io.ErrUnexpectedEOF
		return nil
	}
	out := c.b[c.pos : c.pos+n]
	c.pos += n
	return out
}

func (c *cursor) u16() uint16 {
	b := c.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// lenBytes reads a uint32-length-prefixed byte slice, copied out of the
// backing buffer so the returned slice outlives the decoded artifact.
func (c *cursor) lenBytes() []byte {
	n := c.u32()
	if c.err != nil {
		return nil
	}
	raw := c.take(int(n))
	if raw == nil {
		return nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

func (c *cursor) fixedBytes(n int) []byte {
	raw := c.take(n)
	if raw == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, raw)
	return out
}

func (c *cursor) str() string {
	b := c.lenBytes()
	if c.err != nil {
		return ""
	}
	return string(b)
}

// fieldWriter collects a sticky write error the same way cursor collects a
// sticky read error, so Encode in artifact.go can write every field in
// sequence and check err once.
type fieldWriter struct {
	w   io.Writer
	err error
}

func (f *fieldWriter) write(p []byte) {
	if f.err != nil || len(p) == 0 {
		return
	}
	_, f.err = f.w.Write(p)
}

func (f *fieldWriter) putU16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	f.write(b[:])
}

func (f *fieldWriter) putU32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	f.write(b[:])
}

func (f *fieldWriter) putString(s string) {
	f.putU32(uint32(len(s)))
	f.write([]byte(s))
}

func (f *fieldWriter) putLenBytes(b []byte) {
	f.putU32(uint32(len(b)))
	f.write(b)
}

var errTruncatedArtifact = errors.New("artifact: truncated or corrupt encoding")
