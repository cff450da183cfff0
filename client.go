package main

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client wraps one websocket connection with a buffered outbound queue. The
// simulation enqueues; only the write pump touches the network, so no room
// mutation ever blocks on I/O.
type client struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump without blocking. It reports false
// when the queue is saturated so the caller can drop the client; frames for
// an already-closed client are discarded quietly.
func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close shuts the connection down exactly once. The send channel is never
// closed; the write pump exits via done instead, so concurrent enqueues can
// never panic.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// writePump drains the outbound queue onto the wire with a write deadline
// per frame. A failed write tears the connection down.
func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		}
	}
}
