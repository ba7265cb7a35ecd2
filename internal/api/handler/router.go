package handler

import (
	"net/http"

	"socialchat/backend/internal/metrics"
	"socialchat/backend/internal/mw"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires middleware, the REST API and the WebSocket endpoint.
func SetupRouter(h *Handler, env string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mw.Logger())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(env))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", h.ServeWebSocket)

	api := r.Group("/api/chat")
	api.Use(h.APILimiter.Middleware())

	// gin needs one wildcard name per segment: :id is a user id on the
	// list route and a chat room id on the participant routes.
	api.GET("/room/:id", h.GetRooms)
	api.POST("/room", h.CreateRoom)
	api.POST("/group", h.CreateGroup)
	api.POST("/room/:id/participants", h.AddParticipant)
	api.DELETE("/room/:id/participants/:userId", h.LeaveRoom)

	api.GET("/message/:chatRoomId", h.GetMessages)
	api.POST("/message/send", h.SendMessage)

	api.GET("/online", h.GetOnlineUsers)
	return r
}
