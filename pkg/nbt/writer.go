package nbt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	protoutil "github.com/quarrymc/quarry/pkg/proto/util"
)

// Write writes c to wr as a named root compound.
func Write(wr io.Writer, name string, c Compound) error {
	if err := protoutil.WriteUint8(wr, uint8(TagCompound)); err != nil {
		return err
	}
	if err := writeString(wr, name); err != nil {
		return err
	}
	return writePayload(wr, Compound(c))
}

// WriteGzip writes c to wr as a gzip-compressed named root compound.
func WriteGzip(wr io.Writer, name string, c Compound) error {
	zw := gzip.NewWriter(wr)
	if err := Write(zw, name, c); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// Marshal returns the serialized form of a named root compound.
func Marshal(name string, c Compound) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := Write(buf, name, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeString(wr io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("nbt: string too long (%d bytes)", len(s))
	}
	if err := protoutil.WriteUint16(wr, uint16(len(s))); err != nil {
		return err
	}
	return protoutil.WriteRawBytes(wr, []byte(s))
}

func writePayload(wr io.Writer, v any) error {
	switch t := v.(type) {
	case int8:
		return protoutil.WriteInt8(wr, t)
	case int16:
		return protoutil.WriteInt16(wr, t)
	case int32:
		return protoutil.WriteInt32(wr, t)
	case int64:
		return protoutil.WriteInt64(wr, t)
	case float32:
		return protoutil.WriteFloat32(wr, t)
	case float64:
		return protoutil.WriteFloat64(wr, t)
	case ByteArray:
		if err := protoutil.WriteInt32(wr, int32(len(t))); err != nil {
			return err
		}
		return protoutil.WriteRawBytes(wr, t)
	case string:
		return writeString(wr, t)
	case List:
		return writeList(wr, t)
	case Compound:
		return writeCompound(wr, t)
	case IntArray:
		if err := protoutil.WriteInt32(wr, int32(len(t))); err != nil {
			return err
		}
		for _, i := range t {
			if err := protoutil.WriteInt32(wr, i); err != nil {
				return err
			}
		}
		return nil
	case LongArray:
		if err := protoutil.WriteInt32(wr, int32(len(t))); err != nil {
			return err
		}
		for _, i := range t {
			if err := protoutil.WriteInt64(wr, i); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("nbt: cannot write value of type %T", v)
}

func writeList(wr io.Writer, l List) error {
	elemType := l.ElemType
	if len(l.Elems) > 0 {
		elemType = TypeOf(l.Elems[0])
	}
	if err := protoutil.WriteUint8(wr, uint8(elemType)); err != nil {
		return err
	}
	if err := protoutil.WriteInt32(wr, int32(len(l.Elems))); err != nil {
		return err
	}
	for _, e := range l.Elems {
		if TypeOf(e) != elemType {
			return fmt.Errorf("nbt: mixed list: %s and %s", elemType, TypeOf(e))
		}
		if err := writePayload(wr, e); err != nil {
			return err
		}
	}
	return nil
}

func writeCompound(wr io.Writer, c Compound) error {
	for name, v := range c {
		typ := TypeOf(v)
		if typ == TagEnd {
			return fmt.Errorf("nbt: cannot write %q of type %T", name, v)
		}
		if err := protoutil.WriteUint8(wr, uint8(typ)); err != nil {
			return err
		}
		if err := writeString(wr, name); err != nil {
			return err
		}
		if err := writePayload(wr, v); err != nil {
			return err
		}
	}
	return protoutil.WriteUint8(wr, uint8(TagEnd))
}
