package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dom/storefront/internal/domain"
	"github.com/dom/storefront/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Submitter persists and broadcasts a chat message. Implemented by
// service.ChatService.
type Submitter interface {
	Submit(ctx context.Context, senderID, body string) (*domain.ChatMessage, error)
	Acknowledge() int
}

type Options struct {
	SendBuffer     int
	MaxMessageSize int64
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
}

func DefaultOptions() Options {
	return Options{
		SendBuffer:     256,
		MaxMessageSize: 64 * 1024,
		PingInterval:   54 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
	}
}

// Hub is the process-wide chat channel: one registry, every message goes to
// every client.
type Hub struct {
	registry *Registry
	opts     Options
	log      zerolog.Logger

	mu      sync.Mutex
	stopped bool
}

func NewHub(registry *Registry, opts Options) *Hub {
	def := DefaultOptions()
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = def.SendBuffer
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = def.MaxMessageSize
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	if opts.PongWait <= 0 {
		opts.PongWait = def.PongWait
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	return &Hub{
		registry: registry,
		opts:     opts,
		log:      logger.Component("chat-hub"),
	}
}

// Connect registers conn and starts its pumps. The returned client lives
// until Disconnect, a read/write failure, or Close.
func (h *Hub) Connect(conn *websocket.Conn, submitter Submitter) (*Client, error) {
	client := newClient(h, conn, submitter)
	if err := h.attach(client); err != nil {
		return nil, err
	}

	go client.writePump()
	go client.readPump()

	h.log.Info().Str("client_id", client.id).Int("clients", h.registry.Len()).Msg("client connected")
	return client, nil
}

var ErrHubStopped = errors.New("chat hub stopped")

func (h *Hub) attach(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return ErrHubStopped
	}
	h.registry.Add(c)
	return nil
}

// Disconnect removes the client and ends its connection. Safe to call more
// than once.
func (h *Hub) Disconnect(c *Client) {
	removed := h.registry.Remove(c)
	c.close()
	if removed {
		h.log.Info().Str("client_id", c.id).Int("clients", h.registry.Len()).Msg("client disconnected")
	}
}

// Broadcast delivers msg to every client registered at the time of the
// call and returns how many accepted it. Delivery never blocks: a client
// that is gone or backed up misses the message.
func (h *Hub) Broadcast(msg *Message) int {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to marshal broadcast")
		return 0
	}

	delivered := 0
	for _, c := range h.registry.Snapshot() {
		if err := c.deliver(data); err != nil {
			h.log.Debug().Err(err).Str("client_id", c.id).Str("type", string(msg.Type)).Msg("delivery dropped")
			continue
		}
		delivered++
	}
	return delivered
}

func (h *Hub) BroadcastChat(m *domain.ChatMessage) int {
	msg, err := NewMessage(MessageTypeChatMessage, ChatMessagePayload{
		ID:        m.ID.String(),
		SenderID:  m.SenderID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt.UnixMilli(),
	})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build chat event")
		return 0
	}
	return h.Broadcast(msg)
}

func (h *Hub) BroadcastAck() int {
	msg, err := NewMessage(MessageTypeChatAck, AckPayload{Message: AckText})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to build ack event")
		return 0
	}
	return h.Broadcast(msg)
}

func (h *Hub) ClientCount() int {
	return h.registry.Len()
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	for _, c := range h.registry.Snapshot() {
		h.Disconnect(c)
	}
}

func newClientID() string {
	return uuid.NewString()
}
