package handler

import (
	"net/http"

	"socialchat/backend/internal/chathub"
	"socialchat/backend/internal/config"
	"socialchat/backend/internal/gateway"
	"socialchat/backend/internal/message"
	"socialchat/backend/internal/mw"
	"socialchat/backend/internal/room"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// Handler aggregates the HTTP handlers and the services behind them.
type Handler struct {
	Hub      *chathub.ManagerService
	Gateway  *gateway.Gateway
	Rooms    *room.Service
	Messages *message.Service
	Identity *IdentityResolver

	// Inbound WebSocket events allowed per connection; 0 disables the limit.
	EventsPerSecond float64
	EventBurst      int

	// APILimiter throttles the REST group. Close stops its sweeper.
	APILimiter *mw.KeyedLimiter

	upgrader websocket.Upgrader
}

func NewHandler(hub *chathub.ManagerService, gw *gateway.Gateway, rooms *room.Service, msgs *message.Service, identity *IdentityResolver, env string) *Handler {
	limiter := mw.NewKeyedLimiter(rate.Limit(config.APIRequestsPerSecond), config.APIRequestBurst, config.APILimiterIdle)
	return &Handler{
		Hub:        hub,
		Gateway:    gw,
		Rooms:      rooms,
		Messages:   msgs,
		Identity:   identity,
		APILimiter: limiter,
		upgrader:   websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return env == "dev" || origin == "" || mw.SameHost(origin, r.Host)
			},
		},
	}
}

// Close releases background work owned by the handler.
func (h *Handler) Close() {
	h.APILimiter.Close()
}
