// Package event defines the server's event types, fired on an
// event.Manager so embedding applications can observe connections.
package event

import (
	"net"

	"github.com/robinbraemer/event"

	"github.com/quarrymc/quarry/pkg/util/uuid"
)

// Manager is the event manager the server fires its events on.
type Manager = event.Manager

// New returns a new event manager.
func New() Manager { return event.New() }

// Subscribe subscribes fn to events of type T fired on mgr and
// returns a func that unsubscribes it again.
func Subscribe[T any](mgr Manager, priority int, fn func(T)) (unsubscribe func()) {
	return event.Subscribe(mgr, priority, fn)
}

// ConnectionEvent is fired when a client opens a connection,
// before the handshake is read.
type ConnectionEvent struct {
	RemoteAddr net.Addr
}

// PingEvent is fired when a status request was answered.
type PingEvent struct {
	RemoteAddr net.Addr
	// Status is the JSON document that was sent.
	Status string
}

// LoginEvent is fired after a player's identity was resolved and
// login succeeded, before the play state begins.
type LoginEvent struct {
	Username   string
	ID         uuid.UUID
	OnlineMode bool
	RemoteAddr net.Addr
}

// DisconnectEvent is fired when a player's connection ends,
// whatever the reason.
type DisconnectEvent struct {
	Username   string
	ID         uuid.UUID
	RemoteAddr net.Addr
}
