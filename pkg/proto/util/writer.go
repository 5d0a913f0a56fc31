package util

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/quarrymc/quarry/pkg/util/uuid"
)

func WriteString(wr io.Writer, val string) error {
	return WriteStringMax(wr, val, DefaultMaxStringSize)
}

func WriteStringMax(wr io.Writer, val string, max int) error {
	if len(val) > max {
		return fmt.Errorf("string too long (got %d, max. %d)", len(val), max)
	}
	err := WriteVarInt(wr, len(val))
	if err != nil {
		return err
	}
	return WriteRawBytes(wr, []byte(val))
}

// WriteVarInt writes a variable-length 32-bit integer.
func WriteVarInt(w io.Writer, val int) error {
	_, err := WriteVarIntN(w, val)
	return err
}

// WriteVarIntN is like WriteVarInt but also
// returns the number of bytes written.
func WriteVarIntN(w io.Writer, val int) (n int, err error) {
	var buf [5]byte
	uval := uint32(val)
	for {
		b := byte(uval & 0x7F)
		uval >>= 7
		if uval != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if uval == 0 {
			break
		}
	}
	return w.Write(buf[:n])
}

// WriteVarLong writes a variable-length 64-bit integer.
func WriteVarLong(w io.Writer, val int64) error {
	var buf [10]byte
	n := 0
	uval := uint64(val)
	for {
		b := byte(uval & 0x7F)
		uval >>= 7
		if uval != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if uval == 0 {
			break
		}
	}
	_, err := w.Write(buf[:n])
	return err
}

// VarIntBytes returns the number of bytes
// the VarInt encoding of val occupies.
func VarIntBytes(val int) (n int) {
	uval := uint32(val)
	for {
		n++
		uval >>= 7
		if uval == 0 {
			return n
		}
	}
}

// WriteBytes writes a length-prefixed byte slice.
func WriteBytes(wr io.Writer, val []byte) error {
	err := WriteVarInt(wr, len(val))
	if err != nil {
		return err
	}
	return WriteRawBytes(wr, val)
}

// WriteRawBytes writes the bytes without a length prefix.
func WriteRawBytes(wr io.Writer, val []byte) error {
	_, err := wr.Write(val)
	return err
}

func WriteBool(writer io.Writer, val bool) error {
	if val {
		return WriteUint8(writer, 1)
	}
	return WriteUint8(writer, 0)
}

func WriteInt8(writer io.Writer, val int8) error {
	return WriteUint8(writer, uint8(val))
}

func WriteUint8(writer io.Writer, val uint8) error {
	if bw, ok := writer.(io.ByteWriter); ok {
		return bw.WriteByte(val)
	}
	_, err := writer.Write([]byte{val})
	return err
}

func WriteByte(writer io.Writer, val byte) error {
	return WriteUint8(writer, val)
}

func WriteInt16(writer io.Writer, val int16) error {
	return WriteUint16(writer, uint16(val))
}

func WriteUint16(writer io.Writer, val uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:2], val)
	_, err := writer.Write(b[:2])
	return err
}

func WriteInt32(writer io.Writer, val int32) error {
	return WriteUint32(writer, uint32(val))
}

func WriteInt(wr io.Writer, val int) error {
	return WriteInt32(wr, int32(val))
}

func WriteUint32(writer io.Writer, val uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:4], val)
	_, err := writer.Write(b[:4])
	return err
}

func WriteInt64(writer io.Writer, val int64) error {
	return WriteUint64(writer, uint64(val))
}

func WriteUint64(writer io.Writer, val uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:8], val)
	_, err := writer.Write(b[:8])
	return err
}

func WriteFloat32(writer io.Writer, val float32) error {
	return WriteUint32(writer, math.Float32bits(val))
}

func WriteFloat64(writer io.Writer, val float64) error {
	return WriteUint64(writer, math.Float64bits(val))
}

func WriteUUID(wr io.Writer, id uuid.UUID) error {
	return WriteRawBytes(wr, id[:])
}

// WritePosition writes a block position packed into one 64-bit value.
func WritePosition(wr io.Writer, x, y, z int) error {
	val := (uint64(x)&0x3FFFFFF)<<38 |
		(uint64(z)&0x3FFFFFF)<<12 |
		uint64(y)&0xFFF
	return WriteUint64(wr, val)
}
