package handlers

import (
	"net/http"

	"github.com/dom/storefront/internal/logger"
	"github.com/dom/storefront/internal/service"
	"github.com/dom/storefront/internal/websocket"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // chat is open to any origin
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	chatService *service.ChatService
}

func NewWebSocketHandler(hub *websocket.Hub, chatService *service.ChatService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		chatService: chatService,
	}
}

// Handle upgrades the request and joins the connection to the chat hub. No
// session or handshake payload is required.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		l := logger.Ctx(r.Context())
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client, err := h.hub.Connect(conn, h.chatService)
	if err != nil {
		conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	l := logger.Ctx(r.Context())
	l.Debug().Str("client_id", client.ID()).Str("remote_addr", r.RemoteAddr).Msg("websocket joined chat")
}
