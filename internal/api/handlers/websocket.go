package handlers

import (
	"net/http"

	"github.com/dom/task-manager/internal/api/middleware"
	"github.com/dom/task-manager/internal/httpx"
	"github.com/dom/task-manager/internal/service"
	"github.com/dom/task-manager/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
	}
}

// Handle upgrades to a task event feed for the token's user. Browsers
// cannot set headers on websocket requests, so the token comes from the
// query string.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.Error(w, http.StatusUnauthorized, "Access token required")
		return
	}

	user, status, msg := middleware.Resolve(r.Context(), h.authService, token)
	if user == nil {
		httpx.Error(w, status, msg)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("WebSocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
