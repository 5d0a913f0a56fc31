// Package state maps packet IDs to packet types per connection state.
package state

import (
	"fmt"
	"reflect"

	"github.com/quarrymc/quarry/pkg/proto"
)

// Registry is the packet registry of one connection state.
// It is populated once at init time and read-only afterwards.
type Registry struct {
	Name        string
	ServerBound *PacketRegistry
	ClientBound *PacketRegistry
}

// String implements fmt.Stringer.
func (r *Registry) String() string { return r.Name }

// NewRegistry returns a new empty state registry.
func NewRegistry(name string) *Registry {
	return &Registry{
		Name:        name,
		ServerBound: &PacketRegistry{Direction: proto.ServerBound},
		ClientBound: &PacketRegistry{Direction: proto.ClientBound},
	}
}

// FromDirection returns the registry for packets bound to the given direction.
func (r *Registry) FromDirection(direction proto.Direction) *PacketRegistry {
	if direction == proto.ServerBound {
		return r.ServerBound
	}
	return r.ClientBound
}

// PacketRegistry is a packet id<->type mapping for one direction
// within a state.
type PacketRegistry struct {
	Direction proto.Direction

	idToType map[proto.PacketID]proto.PacketType
	typeToID map[proto.PacketType]proto.PacketID
}

// Register registers a packet prototype under the given id.
// It panics on duplicate registrations, which are a program bug.
func (r *PacketRegistry) Register(packetOf proto.Packet, id proto.PacketID) {
	if r.idToType == nil {
		r.idToType = map[proto.PacketID]proto.PacketType{}
		r.typeToID = map[proto.PacketType]proto.PacketID{}
	}
	t := proto.TypeOf(packetOf)
	if _, ok := r.idToType[id]; ok {
		panic(fmt.Sprintf("packet id %s already registered %s", id, r.Direction))
	}
	if _, ok := r.typeToID[t]; ok {
		panic(fmt.Sprintf("packet type %s already registered %s", t, r.Direction))
	}
	r.idToType[id] = t
	r.typeToID[t] = id
}

// CreatePacket returns a new zero valued instance of the type of the
// mapped packet id, or nil if the id is unknown in this registry.
func (r *PacketRegistry) CreatePacket(id proto.PacketID) proto.Packet {
	t, ok := r.idToType[id]
	if !ok {
		return nil
	}
	p, ok := reflect.New(t).Interface().(proto.Packet)
	if !ok {
		return nil
	}
	return p
}

// PacketID returns the registered id of the packet's type.
func (r *PacketRegistry) PacketID(of proto.Packet) (id proto.PacketID, found bool) {
	id, found = r.typeToID[proto.TypeOf(of)]
	return
}
