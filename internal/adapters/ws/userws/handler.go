package userws

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"catalog-server/internal/adapters/http/middleware"
	"catalog-server/internal/logger"
)

type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewHandler(hub *Hub, log logger.Logger, allowedOrigins []string) *Handler {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			if !slices.Contains(allowedOrigins, origin) {
				log.Warn("ws auth: origin rejected", "origin", origin)
				return false
			}

			return true
		},
	}

	return &Handler{
		hub:      hub,
		upgrader: upgrader,
		log:      log,
	}
}

// Serve upgrades an authenticated request and subscribes the new client to
// the catalog feed and its own user channel.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		h.log.Warn("ws auth: missing principal")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws auth: upgrade failed", "error", err)
		return
	}

	c := NewClient(h.hub, conn, h.log, *principal)
	if !h.hub.Register(c) {
		h.log.Warn("ws: hub stopped, closing connection")
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
