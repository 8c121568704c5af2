package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/gorilla/websocket"
)

var (
	errClientGone     = errors.New("client disconnected")
	errSendBufferFull = errors.New("client send buffer full")
)

// Client is one realtime connection. Its context is cancelled when the
// connection ends; both pumps exit on it.
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	submitter Submitter

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, submitter Submitter) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		id:        newClientID(),
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, hub.opts.SendBuffer),
		submitter: submitter,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Client) ID() string {
	return c.id
}

// Done is closed once the client has disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// deliver queues data without blocking. The send channel is never closed;
// writePump stops on the context instead, so a late deliver cannot panic.
func (c *Client) deliver(data []byte) error {
	select {
	case <-c.ctx.Done():
		return errClientGone
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

// close ends the client. writePump owns the socket: it sends the close frame
// and then closes the connection.
func (c *Client) close() {
	c.closeOnce.Do(c.cancel)
}

func (c *Client) readPump() {
	defer c.hub.Disconnect(c)

	opts := c.hub.opts
	c.conn.SetReadLimit(opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(opts.PongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Str("client_id", c.id).Msg("websocket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError("INVALID_MESSAGE", "Message must be a JSON envelope")
			continue
		}

		c.handleMessage(&msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.opts.PingInterval)
	defer func() {
		ticker.Stop()
		c.hub.Disconnect(c)
		c.conn.Close()
	}()

	writeWait := c.hub.opts.WriteWait
	for {
		select {
		case <-c.ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeChatMessage:
		var payload SubmitChatPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			c.sendError("INVALID_PAYLOAD", "Invalid chat message payload")
			return
		}
		if _, err := c.submitter.Submit(c.ctx, payload.SenderID, payload.Body); err != nil {
			switch {
			case errors.Is(err, domain.ErrValidation):
				c.sendError("INVALID_PAYLOAD", err.Error())
			default:
				c.sendError("NOT_SENT", "Message could not be saved")
			}
		}

	case MessageTypeChatAck:
		c.submitter.Acknowledge()

	default:
		c.sendError("UNKNOWN_TYPE", "Unsupported message type")
	}
}

// sendError addresses this client only.
func (c *Client) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorPayload{
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.deliver(data)
}
