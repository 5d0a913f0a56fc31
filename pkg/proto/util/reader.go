package util

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/quarrymc/quarry/pkg/util/uuid"
)

// DefaultMaxStringSize is the maximum string length
// accepted when no explicit limit is given.
const DefaultMaxStringSize = 65536

var errVarIntTooBig = errors.New("decode: VarInt is too big")

func ReadString(rd io.Reader) (string, error) {
	return ReadStringMax(rd, DefaultMaxStringSize)
}

func ReadStringMax(rd io.Reader, max int) (string, error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return "", err
	}
	return readStringMax(rd, max, length)
}

func readStringMax(rd io.Reader, max, length int) (string, error) {
	if length < 0 {
		return "", errors.New("length of string must not be negative")
	}
	if length > max*4 { // *4 since an UTF8 character has up to 4 bytes
		return "", fmt.Errorf("bad string length (got %d, max. %d)", length, max)
	}
	str := make([]byte, length)
	_, err := io.ReadFull(rd, str)
	if err != nil {
		return "", err
	}
	return string(str), nil
}

// ReadVarInt reads a variable-length 32-bit integer:
// 7 bits per byte, least significant group first,
// high bit set on all but the last byte.
func ReadVarInt(r io.Reader) (result int, err error) {
	result, _, err = ReadVarIntReturnN(r)
	return result, err
}

// ReadVarIntReturnN is like ReadVarInt but also
// returns the number of bytes consumed.
func ReadVarIntReturnN(r io.Reader) (result int, n int, err error) {
	var uresult uint32
	for i := 0; ; i++ {
		b, err := ReadUint8(r)
		if err != nil {
			return 0, i, err
		}
		uresult |= uint32(b&0x7F) << uint32(7*i)
		if i >= 5 {
			return 0, i + 1, errVarIntTooBig
		}
		if b&0x80 == 0 {
			return int(int32(uresult)), i + 1, nil
		}
	}
}

// ReadVarLong reads a variable-length 64-bit integer.
func ReadVarLong(r io.Reader) (result int64, err error) {
	var uresult uint64
	for i := 0; ; i++ {
		b, err := ReadUint8(r)
		if err != nil {
			return 0, err
		}
		uresult |= uint64(b&0x7F) << uint64(7*i)
		if i >= 10 {
			return 0, errors.New("decode: VarLong is too big")
		}
		if b&0x80 == 0 {
			return int64(uresult), nil
		}
	}
}

func ReadBytes(rd io.Reader) ([]byte, error) {
	return ReadBytesLen(rd, DefaultMaxStringSize)
}

func ReadBytesLen(rd io.Reader, maxLength int) (bytes []byte, err error) {
	length, err := ReadVarInt(rd)
	if err != nil {
		return
	}
	if length < 0 {
		err = fmt.Errorf("decode: bytes length is < 0: %d", length)
		return
	}
	if length > maxLength {
		err = fmt.Errorf("decode: bytes length %d is above given maximum: %d", length, maxLength)
		return
	}
	bytes = make([]byte, length)
	_, err = io.ReadFull(rd, bytes)
	return
}

// ReadRawBytes reads all remaining bytes without a length prefix.
func ReadRawBytes(rd io.Reader) ([]byte, error) {
	return io.ReadAll(rd)
}

func ReadBool(reader io.Reader) (val bool, err error) {
	uval, err := ReadUint8(reader)
	if err != nil {
		return
	}
	val = uval != 0
	return
}

func ReadInt8(reader io.Reader) (val int8, err error) {
	uval, err := ReadUint8(reader)
	val = int8(uval)
	return
}

func ReadUint8(reader io.Reader) (val uint8, err error) {
	if br, ok := reader.(io.ByteReader); ok {
		return br.ReadByte()
	}
	var b [1]byte
	_, err = io.ReadFull(reader, b[:1])
	val = b[0]
	return
}

func ReadByte(reader io.Reader) (val byte, err error) {
	return ReadUint8(reader)
}

func ReadInt16(reader io.Reader) (val int16, err error) {
	uval, err := ReadUint16(reader)
	val = int16(uval)
	return
}

func ReadUint16(reader io.Reader) (val uint16, err error) {
	var b [2]byte
	_, err = io.ReadFull(reader, b[:2])
	val = binary.BigEndian.Uint16(b[:2])
	return
}

func ReadInt32(reader io.Reader) (val int32, err error) {
	uval, err := ReadUint32(reader)
	val = int32(uval)
	return
}

func ReadInt(rd io.Reader) (int, error) {
	i, err := ReadInt32(rd)
	return int(i), err
}

func ReadUint32(reader io.Reader) (val uint32, err error) {
	var b [4]byte
	_, err = io.ReadFull(reader, b[:4])
	val = binary.BigEndian.Uint32(b[:4])
	return
}

func ReadInt64(reader io.Reader) (val int64, err error) {
	uval, err := ReadUint64(reader)
	val = int64(uval)
	return
}

func ReadUint64(reader io.Reader) (val uint64, err error) {
	var b [8]byte
	_, err = io.ReadFull(reader, b[:8])
	val = binary.BigEndian.Uint64(b[:8])
	return
}

func ReadFloat32(reader io.Reader) (val float32, err error) {
	ival, err := ReadUint32(reader)
	val = math.Float32frombits(ival)
	return
}

func ReadFloat64(reader io.Reader) (val float64, err error) {
	ival, err := ReadUint64(reader)
	val = math.Float64frombits(ival)
	return
}

func ReadUUID(rd io.Reader) (id uuid.UUID, err error) {
	b := make([]byte, 16)
	_, err = io.ReadFull(rd, b)
	if err != nil {
		return
	}
	return uuid.FromBytes(b)
}

// ReadPosition reads a block position packed into one 64-bit
// value: 26 bits x, 26 bits z, 12 bits y, all sign extended.
func ReadPosition(rd io.Reader) (x, y, z int, err error) {
	val, err := ReadUint64(rd)
	if err != nil {
		return
	}
	x = int(int64(val) >> 38)
	z = int(int64(val) << 26 >> 38)
	y = int(int64(val) << 52 >> 52)
	return
}
