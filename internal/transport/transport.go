// Package transport adapts fiber websockets to the hub's delivery
// interface: addressable connections, named groups, global broadcast.
package transport

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/campfire-chat/campfire/internal/hub"
	"github.com/campfire-chat/campfire/internal/logger"
)

// EventSink receives inbound events; the hub implements it.
type EventSink interface {
	Post(hub.Event)
}

type Transport struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client
	sink    EventSink
}

func New() *Transport {
	return &Transport{
		clients: map[string]*Client{},
		groups:  map[string]map[string]*Client{},
	}
}

// SetSink wires the inbound side; must be called before Handle serves
// connections.
func (t *Transport) SetSink(sink EventSink) { t.sink = sink }

// Handle runs one websocket connection to completion. Registered for
// the /ws route via websocket.New.
func (t *Transport) Handle(conn *websocket.Conn) {
	id := uuid.NewString()
	c := &Client{ID: id, Conn: conn, Send: make(chan []byte, 64)}

	t.mu.Lock()
	t.clients[id] = c
	t.mu.Unlock()
	logger.Debug("conn_opened", "conn", id)

	go c.WritePump()
	c.ReadPump(t.sink)

	t.remove(id)
	t.sink.Post(hub.Event{Conn: id, Name: hub.EvDisconnect})
	logger.Debug("conn_closed", "conn", id)
}

// remove drops the client from the registry and every group and closes
// its send channel. The close happens while the write lock is held:
// every delivery runs under the read lock, so a send can never race
// the close.
func (t *Transport) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clients[id]
	if !ok {
		return
	}
	delete(t.clients, id)
	for name, members := range t.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(t.groups, name)
		}
	}
	close(c.Send)
}

func encode(event string, payload any) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("encode_failed", "event", event, "error", err)
		return nil
	}
	out, _ := json.Marshal(frame{Event: event, Data: data})
	return out
}

// deliver is non-blocking: a client whose send buffer is full misses
// the event rather than stalling the hub loop. Callers must hold t.mu
// (read side is enough); remove closes Send only under the write lock.
func deliver(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
	}
}

func (t *Transport) SendTo(connID, event string, payload any) {
	data := encode(event, payload)
	if data == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c := t.clients[connID]; c != nil {
		deliver(c, data)
	}
}

func (t *Transport) BroadcastTo(group, event string, payload any) {
	data := encode(event, payload)
	if data == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.groups[group] {
		deliver(c, data)
	}
}

func (t *Transport) BroadcastAll(event string, payload any) {
	data := encode(event, payload)
	if data == nil {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.clients {
		deliver(c, data)
	}
}

func (t *Transport) JoinGroup(connID, group string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clients[connID]
	if !ok {
		return
	}
	if t.groups[group] == nil {
		t.groups[group] = map[string]*Client{}
	}
	t.groups[group][connID] = c
}

func (t *Transport) LeaveGroup(connID, group string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	members := t.groups[group]
	if members == nil {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(t.groups, group)
	}
}
