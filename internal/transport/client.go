package transport

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"

	"github.com/campfire-chat/campfire/internal/hub"
)

// frame is the wire envelope in both directions.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Client struct {
	ID   string
	Conn ConnLike
	Send chan []byte
}

// ConnLike is the subset of the websocket connection the pumps need;
// tests substitute a fake.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// ReadPump decodes frames and posts them to the hub until the socket
// errors out. Undecodable frames are skipped.
func (c *Client) ReadPump(sink EventSink) {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			continue
		}
		sink.Post(hub.Event{Conn: c.ID, Name: f.Event, Data: f.Data})
	}
}

func (c *Client) WritePump() {
	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
