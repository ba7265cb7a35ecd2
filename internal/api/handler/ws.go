package handler

import (
	"net/http"

	"socialchat/backend/internal/chathub"
	"socialchat/backend/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// ServeWebSocket resolves the caller's identity and upgrades to a WebSocket.
// Handshakes without identity become anonymous connections.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, verified, err := h.Identity.Resolve(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("websocket upgrade")
		return
	}

	var limiter *rate.Limiter
	if h.EventsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.EventsPerSecond), h.EventBurst)
	}
	client := chathub.NewWebSocketClient(conn, userID, h.Gateway, limiter)

	_ = h.Gateway.Route(h.Gateway.Ctx, client, gateway.Connect{UserID: userID, Verified: verified})
	client.Run()
}
