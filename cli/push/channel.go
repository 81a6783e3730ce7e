// Package push maintains the websocket connection to the dashboard and
// delivers change hints. The channel is a low-latency hint source, not a
// delivery guarantee: nothing is buffered across disconnects, the
// periodic refresh compensates for anything missed.
package push

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Status string

const (
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Event is one parsed push payload. The server sends
// welcome/service_update/alert_update/stats_update; the channel does not
// interpret types, it only parses and forwards.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// reconnectDelay is constant: no back-off, no retry cap. A missed hint
// costs at most one polling period.
const reconnectDelay = 5 * time.Second

// conn is the slice of *websocket.Conn the channel uses, injectable in
// tests.
type conn interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

type Channel struct {
	dial  func() (conn, error)
	delay time.Duration

	onMessage func(Event)
	onStatus  func(Status)

	mu     sync.Mutex
	active conn
	retry  *time.Timer
	closed bool
}

func New(url string) *Channel {
	return &Channel{
		dial: func() (conn, error) {
			c, _, err := websocket.DefaultDialer.Dial(url, nil)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		delay: reconnectDelay,
	}
}

// OnMessage registers the payload handler. Must be set before Connect.
func (ch *Channel) OnMessage(fn func(Event)) {
	ch.onMessage = fn
}

// OnStatus registers the connection-state handler. Must be set before
// Connect.
func (ch *Channel) OnStatus(fn func(Status)) {
	ch.onStatus = fn
}

// Connect opens the connection in the background. On failure, and on
// every later closure, one reconnection attempt is scheduled after a
// fixed delay, indefinitely.
func (ch *Channel) Connect() {
	go ch.connect()
}

func (ch *Channel) connect() {
	ch.emitStatus(StatusConnecting)

	c, err := ch.dial()
	if err != nil {
		log.Printf("push: connect failed: %v", err)
		ch.emitStatus(StatusDisconnected)
		ch.scheduleReconnect()
		return
	}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		c.Close()
		return
	}
	ch.active = c
	ch.mu.Unlock()

	ch.emitStatus(StatusConnected)
	ch.readLoop(c)
}

func (ch *Channel) readLoop(c conn) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			c.Close()
			ch.mu.Lock()
			closed := ch.closed
			ch.active = nil
			ch.mu.Unlock()
			if closed {
				return
			}
			log.Printf("push: connection lost: %v", err)
			ch.emitStatus(StatusDisconnected)
			ch.scheduleReconnect()
			return
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			// Malformed payloads never crash the channel.
			log.Printf("push: dropping malformed payload: %v", err)
			continue
		}
		if ch.onMessage != nil {
			ch.onMessage(evt)
		}
	}
}

// scheduleReconnect arms the retry timer unless one is already pending
// or the channel was closed. Only one pending timer may exist.
func (ch *Channel) scheduleReconnect() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.closed || ch.retry != nil {
		return
	}
	ch.retry = time.AfterFunc(ch.delay, func() {
		ch.mu.Lock()
		ch.retry = nil
		closed := ch.closed
		ch.mu.Unlock()
		if closed {
			return
		}
		ch.connect()
	})
}

// Close tears the channel down for good: the pending retry is stopped,
// the socket is closed and no further reconnects are attempted.
func (ch *Channel) Close() {
	ch.mu.Lock()
	ch.closed = true
	if ch.retry != nil {
		ch.retry.Stop()
		ch.retry = nil
	}
	active := ch.active
	ch.active = nil
	ch.mu.Unlock()

	if active != nil {
		active.Close()
	}
}

func (ch *Channel) emitStatus(s Status) {
	if ch.onStatus != nil {
		ch.onStatus(s)
	}
}
