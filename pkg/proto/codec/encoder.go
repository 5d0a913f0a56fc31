package codec

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zlib"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/state"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

const (
	// UncompressedCap is the hard limit on the claimed uncompressed
	// size of a single compressed frame.
	UncompressedCap = 8 * 1024 * 1024 // 8MiB
)

// Encoder is a synchronized packet encoder.
type Encoder struct {
	direction proto.Direction
	log       logr.Logger

	mu          sync.Mutex // Protects following fields
	wr          io.Writer  // the underlying writer to write successfully encoded packets to
	registry    *state.PacketRegistry
	state       *state.Registry
	compression struct {
		enabled   bool
		threshold int // No compression if < 0
		writer    *zlib.Writer
	}
}

var _ proto.PacketWriter = (*Encoder)(nil)

func NewEncoder(w io.Writer, direction proto.Direction, log logr.Logger) *Encoder {
	return &Encoder{
		log:       log.WithName("encoder"),
		wr:        w,
		direction: direction,
		state:     state.Handshake,
		registry:  state.Handshake.FromDirection(direction),
	}
}

// Direction returns the encoder's direction.
func (e *Encoder) Direction() proto.Direction {
	return e.direction
}

// SetCompression enables the compressed frame format for all
// following packets. A negative threshold disables it.
func (e *Encoder) SetCompression(threshold, level int) (err error) {
	e.mu.Lock()
	e.compression.threshold = threshold
	e.compression.enabled = threshold >= 0
	if e.compression.enabled {
		e.compression.writer, err = zlib.NewWriterLevel(e.wr, level)
	}
	e.mu.Unlock()
	return
}

// WritePacket encodes the packet in the current state registry
// and writes the finished frame to the underlying writer.
func (e *Encoder) WritePacket(packet proto.Packet) error {
	_, err := e.WritePacketN(packet)
	return err
}

// WritePacketN is WritePacket returning the number of frame bytes written.
func (e *Encoder) WritePacketN(packet proto.Packet) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	packetID, found := e.registry.PacketID(packet)
	if !found {
		return n, fmt.Errorf("packet id for type %T not registered in the %s %s state registry",
			packet, e.direction, e.state)
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)

	_ = util.WriteVarInt(buf, int(packetID))

	ctx := &proto.PacketContext{
		Direction: e.direction,
		Protocol:  proto.Supported.Protocol,
		PacketID:  packetID,
		Packet:    packet,
	}

	if err = util.RecoverFunc(func() error {
		return packet.Encode(ctx, buf)
	}); err != nil {
		return
	}

	if e.log.Enabled() { // check enabled for performance reason
		e.log.Info("encoded packet", "context", ctx.String(), "bytes", buf.Len())
	}

	return e.writeBuf(buf) // packet id + data
}

func (e *Encoder) writeBuf(payload *bytes.Buffer) (n int, err error) {
	if e.compression.enabled {
		return e.writeCompressed(payload)
	}
	n, err = util.WriteVarIntN(e.wr, payload.Len()) // packet length
	if err != nil {
		return n, err
	}
	m, err := payload.WriteTo(e.wr) // body
	return int(m) + n, err
}

func (e *Encoder) writeCompressed(payload *bytes.Buffer) (n int, err error) {
	uncompressedSize := payload.Len()
	if uncompressedSize < e.compression.threshold {
		// Under the threshold, there is nothing to do.
		n, err = util.WriteVarIntN(e.wr, uncompressedSize+1) // packet length
		if err != nil {
			return n, err
		}
		n2, err := util.WriteVarIntN(e.wr, 0) // indicate not compressed
		if err != nil {
			return n + n2, err
		}
		n3, err := payload.WriteTo(e.wr) // body
		return n + n2 + int(n3), err
	}
	// >= threshold, compress packet id + data

	compressed := bufPool.Get().(*bytes.Buffer)
	compressed.Reset()
	defer bufPool.Put(compressed)

	err = util.WriteVarInt(compressed, uncompressedSize) // data length
	if err != nil {
		return 0, err
	}
	_, err = e.compress(payload.Bytes(), compressed)
	if err != nil {
		return 0, err
	}
	n, err = util.WriteVarIntN(e.wr, compressed.Len()) // packet length
	if err != nil {
		return n, err
	}
	m, err := compressed.WriteTo(e.wr) // body
	return n + int(m), err
}

// Write encodes payload and writes it to the underlying writer.
// The payload must not already be compressed nor encrypted and must
// start with the packet's id VarInt and then the packet's data.
func (e *Encoder) Write(payload []byte) (n int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writeBuf(bytes.NewBuffer(payload))
}

func (e *Encoder) compress(payload []byte, w io.Writer) (n int, err error) {
	e.compression.writer.Reset(w)
	n, err = e.compression.writer.Write(payload)
	if err != nil {
		return n, err
	}
	return n, e.compression.writer.Close()
}

// SetState switches the encoder to another state's packet registry.
func (e *Encoder) SetState(s *state.Registry) {
	e.mu.Lock()
	e.state = s
	e.registry = s.FromDirection(e.direction)
	e.mu.Unlock()
}

// SetWriter swaps the underlying writer, e.g. to install an encrypting writer.
func (e *Encoder) SetWriter(w io.Writer) {
	e.mu.Lock()
	e.wr = w
	if e.compression.writer != nil {
		e.compression.writer.Reset(w)
	}
	e.mu.Unlock()
}

// Sync locks the encoder while running fn,
// making sure no write calls are run during this call.
func (e *Encoder) Sync(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn()
}

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}
