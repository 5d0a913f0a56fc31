package nbt

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	protoutil "github.com/quarrymc/quarry/pkg/proto/util"
)

// Decode limits. Exceeding either is a fatal decode error; there is no
// partial result.
const (
	// DefaultMaxDepth bounds the nesting of compounds and lists.
	DefaultMaxDepth = 128
	// DefaultMaxBytes bounds the total payload read for one tree.
	DefaultMaxBytes = 1 << 21
)

var (
	// ErrMaxDepth indicates the nesting limit was exceeded.
	ErrMaxDepth = errors.New("nbt: max depth exceeded")
	// ErrMaxBytes indicates the size limit was exceeded.
	ErrMaxBytes = errors.New("nbt: max bytes exceeded")
)

// Decoder reads a tag tree from a stream.
// The zero limits mean the defaults.
type Decoder struct {
	rd io.Reader

	MaxDepth int
	MaxBytes int

	read int
}

// NewDecoder returns a decoder reading from rd with default limits.
func NewDecoder(rd io.Reader) *Decoder {
	return &Decoder{rd: rd, MaxDepth: DefaultMaxDepth, MaxBytes: DefaultMaxBytes}
}

// Decode reads one named root tag, which must be a compound.
func (d *Decoder) Decode() (name string, c Compound, err error) {
	typ, err := d.readType()
	if err != nil {
		return "", nil, err
	}
	if typ != TagCompound {
		return "", nil, fmt.Errorf("nbt: root tag is %s, want Compound", typ)
	}
	name, err = d.readString()
	if err != nil {
		return "", nil, err
	}
	v, err := d.readPayload(TagCompound, 0)
	if err != nil {
		return "", nil, err
	}
	return name, v.(Compound), nil
}

// Read reads one named root compound from rd with default limits.
func Read(rd io.Reader) (name string, c Compound, err error) {
	return NewDecoder(rd).Decode()
}

// ReadGzip reads one gzip-compressed named root compound from rd.
func ReadGzip(rd io.Reader) (name string, c Compound, err error) {
	zr, err := gzip.NewReader(rd)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = zr.Close() }()
	return Read(zr)
}

func (d *Decoder) count(n int) error {
	d.read += n
	if d.read > d.MaxBytes {
		return ErrMaxBytes
	}
	return nil
}

func (d *Decoder) readType() (TagType, error) {
	if err := d.count(1); err != nil {
		return TagEnd, err
	}
	b, err := protoutil.ReadUint8(d.rd)
	if err != nil {
		return TagEnd, err
	}
	t := TagType(b)
	if t > TagLongArray {
		return TagEnd, fmt.Errorf("nbt: unknown tag type %d", b)
	}
	return t, nil
}

func (d *Decoder) readString() (string, error) {
	length, err := protoutil.ReadUint16(d.rd)
	if err != nil {
		return "", err
	}
	if err = d.count(2 + int(length)); err != nil {
		return "", err
	}
	b := make([]byte, length)
	if _, err = io.ReadFull(d.rd, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Decoder) readPayload(typ TagType, depth int) (any, error) {
	if depth > d.MaxDepth {
		return nil, ErrMaxDepth
	}
	switch typ {
	case TagByte:
		if err := d.count(1); err != nil {
			return nil, err
		}
		return protoutil.ReadInt8(d.rd)
	case TagShort:
		if err := d.count(2); err != nil {
			return nil, err
		}
		return protoutil.ReadInt16(d.rd)
	case TagInt:
		if err := d.count(4); err != nil {
			return nil, err
		}
		return protoutil.ReadInt32(d.rd)
	case TagLong:
		if err := d.count(8); err != nil {
			return nil, err
		}
		return protoutil.ReadInt64(d.rd)
	case TagFloat:
		if err := d.count(4); err != nil {
			return nil, err
		}
		return protoutil.ReadFloat32(d.rd)
	case TagDouble:
		if err := d.count(8); err != nil {
			return nil, err
		}
		return protoutil.ReadFloat64(d.rd)
	case TagByteArray:
		n, err := d.readArrayLen(1)
		if err != nil {
			return nil, err
		}
		b := make(ByteArray, n)
		if _, err = io.ReadFull(d.rd, b); err != nil {
			return nil, err
		}
		return b, nil
	case TagString:
		return d.readString()
	case TagList:
		return d.readList(depth)
	case TagCompound:
		return d.readCompound(depth)
	case TagIntArray:
		n, err := d.readArrayLen(4)
		if err != nil {
			return nil, err
		}
		a := make(IntArray, n)
		for i := range a {
			if a[i], err = protoutil.ReadInt32(d.rd); err != nil {
				return nil, err
			}
		}
		return a, nil
	case TagLongArray:
		n, err := d.readArrayLen(8)
		if err != nil {
			return nil, err
		}
		a := make(LongArray, n)
		for i := range a {
			if a[i], err = protoutil.ReadInt64(d.rd); err != nil {
				return nil, err
			}
		}
		return a, nil
	}
	return nil, fmt.Errorf("nbt: cannot read payload of tag %s", typ)
}

func (d *Decoder) readArrayLen(elemSize int) (int, error) {
	n, err := protoutil.ReadInt32(d.rd)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("nbt: negative array length %d", n)
	}
	if err = d.count(4 + int(n)*elemSize); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (d *Decoder) readList(depth int) (List, error) {
	elemType, err := d.readType()
	if err != nil {
		return List{}, err
	}
	n, err := protoutil.ReadInt32(d.rd)
	if err != nil {
		return List{}, err
	}
	if err = d.count(4); err != nil {
		return List{}, err
	}
	if n < 0 {
		return List{}, fmt.Errorf("nbt: negative list length %d", n)
	}
	if elemType == TagEnd && n > 0 {
		return List{}, errors.New("nbt: non-empty list of End tags")
	}
	l := List{ElemType: elemType, Elems: make([]any, 0, min(int(n), 4096))}
	for i := 0; i < int(n); i++ {
		v, err := d.readPayload(elemType, depth+1)
		if err != nil {
			return List{}, err
		}
		l.Elems = append(l.Elems, v)
	}
	return l, nil
}

func (d *Decoder) readCompound(depth int) (Compound, error) {
	c := Compound{}
	for {
		typ, err := d.readType()
		if err != nil {
			return nil, err
		}
		if typ == TagEnd {
			return c, nil
		}
		name, err := d.readString()
		if err != nil {
			return nil, err
		}
		if _, ok := c[name]; ok {
			return nil, fmt.Errorf("nbt: duplicate key %q in compound", name)
		}
		v, err := d.readPayload(typ, depth+1)
		if err != nil {
			return nil, err
		}
		c[name] = v
	}
}
