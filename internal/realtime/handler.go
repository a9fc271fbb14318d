package realtime

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/config"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Handler struct {
	hub    *Hub
	tokens SubscribeTokenValidator
}

func NewHandler(hub *Hub, tokens SubscribeTokenValidator) *Handler {
	return &Handler{hub: hub, tokens: tokens}
}

// ServeWs upgrades an authenticated request. Rooms are joined afterwards with join frames.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	logger := logger_lib.FromContext(r.Context(), config.KeyLogger)
	logger.AddFuncName("ServeWs")

	userID, ok := r.Context().Value(config.KeyUUID).(string)
	if !ok || userID == "" {
		logger.Error("failed to get user UUID")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to upgrade connection: %v", err))
		return
	}

	client := NewClient(h.hub, conn, userID, h.tokens)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
