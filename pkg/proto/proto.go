// Package proto defines the core types of the wire protocol: packets,
// packet contexts, directions and protocol versions.
package proto

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
)

// ErrDecoderLeftBytes indicates a packet was known and successfully decoded
// by its registered decoder, but the decoder has not read all of the
// packet's bytes.
var ErrDecoderLeftBytes = errors.New("decoder did not read all bytes of packet")

// PacketDecoder decodes packets from an underlying
// source and returns them with additional context.
type PacketDecoder interface {
	Decode() (*PacketContext, error)
}

// PacketWriter can write packets.
type PacketWriter interface {
	WritePacket(Packet) error
}

// Packet represents a single typed protocol message.
//
// It is the data layer of a packet; framing, compression and encryption
// are applied by the codec and are not a packet's concern.
type Packet interface {
	// Encode encodes the packet data into the writer.
	Encode(c *PacketContext, wr io.Writer) error
	// Decode reads expected data from a reader into the packet.
	Decode(c *PacketContext, rd io.Reader) (err error)
}

// PacketContext carries context information for a
// received packet or a packet that is about to be sent.
type PacketContext struct {
	Direction Direction // The direction the packet is bound to.
	Protocol  Protocol  // The protocol version of the packet.
	PacketID  PacketID  // The ID of the packet, always set.

	// Packet is the decoded type found by PacketID in the connection's
	// current state registry. Nil if the PacketID is unknown in the
	// current state, in which case KnownPacket reports false.
	Packet Packet

	// Payload is the unencrypted and uncompressed form of packet id + data.
	// It contains the actual received payload. Empty when encoding.
	Payload []byte

	// BytesRead is the total number of frame bytes consumed from the
	// underlying stream, before decompression.
	BytesRead int
}

// KnownPacket indicates whether the PacketID is known
// in the connection's current state registry.
func (c *PacketContext) KnownPacket() bool {
	return c != nil && c.Packet != nil
}

// String implements fmt.Stringer.
func (c *PacketContext) String() string {
	return fmt.Sprintf("PacketContext:direction=%s,protocol=%s,"+
		"knownPacket=%t,packetID=%s,packetType=%s,payloadLen=%d",
		c.Direction, c.Protocol, c.KnownPacket(), c.PacketID,
		reflect.TypeOf(c.Packet), len(c.Payload))
}

// PacketID identifies a packet within one connection state.
type PacketID int

// String implements fmt.Stringer.
func (id PacketID) String() string {
	return fmt.Sprintf("%#x", int(id))
}

// Direction is the direction a packet is bound to.
//   - Receiving a packet from a client is ServerBound.
//   - Sending a packet to a client is ClientBound.
type Direction uint8

// Available packet bound directions.
const (
	ClientBound Direction = iota // A packet bound to a client.
	ServerBound                  // A packet bound to a server.
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case ServerBound:
		return "ServerBound"
	case ClientBound:
		return "ClientBound"
	}
	return "UnknownBound"
}

// Protocol is a protocol version number specified by the upstream game.
type Protocol int

// String implements fmt.Stringer.
func (p Protocol) String() string {
	return strconv.Itoa(int(p))
}

// Version is a named protocol version.
type Version struct {
	Protocol        // The protocol number of the version.
	Name     string // The user-friendly version name.
}

// String implements fmt.Stringer.
func (v Version) String() string { return v.Name }

// Supported is the protocol version this server speaks.
// Packet IDs and body layouts are pinned to it.
var Supported = &Version{Protocol: 757, Name: "1.18.1"}

// PacketType is the non-pointer reflect.Type of a packet.
// Use the TypeOf helper function for convenience.
type PacketType reflect.Type

// TypeOf returns the non-pointer type of p.
func TypeOf(p Packet) PacketType {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
