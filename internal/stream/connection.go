package stream

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	// Outbound frames buffered per client. A client that falls this far
	// behind is dropped; it reconnects for a fresh snapshot.
	sendBuffer = 1024
)

// Connection is one renderer attached over a websocket.
type Connection struct {
	ws     *websocket.Conn
	server *Server
	send   chan []byte
	done   chan struct{}

	closeOnce sync.Once
}

func newConnection(ws *websocket.Conn, server *Server) *Connection {
	return &Connection{
		ws:     ws,
		server: server,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// handle runs the connection until the peer goes away.
func (c *Connection) handle() {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	c.readPump()
}

func (c *Connection) readPump() {
	defer c.server.unregister(c)

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("stream: read error: %v", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.Camera == nil {
			c.sendError("expected {\"camera\":[x,y,z]}")
			continue
		}
		c.server.setCamera(mgl64.Vec3(*msg.Camera))
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("stream: write error: %v", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.server.ctx.Done():
			return
		}
	}
}

// enqueue queues a frame. It reports false when the client is too slow and
// has been closed.
func (c *Connection) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		log.Printf("stream: client %s fell behind, closing", c.ws.RemoteAddr())
		c.close()
		return false
	}
}

func (c *Connection) sendError(text string) {
	data, err := json.Marshal(&ServerMessage{Type: MsgTypeError, Error: text})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
