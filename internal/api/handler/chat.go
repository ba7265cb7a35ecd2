package handler

import (
	"errors"
	"net/http"
	"strconv"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/message"
	"socialchat/backend/internal/room"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps chaterr kinds onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chaterr.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chaterr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// GetRooms lists the rooms of the user :id with participants and messages.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.Rooms.ListRoomsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req room.CreateDirectChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	created, err := h.Rooms.CreateDirectChat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) CreateGroup(c *gin.Context) {
	var req room.CreateGroupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	created, err := h.Rooms.CreateGroupChat(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) AddParticipant(c *gin.Context) {
	var req struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	msg, err := h.Rooms.AddParticipant(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	msg, err := h.Rooms.LeaveChat(c.Request.Context(), c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// GetMessages returns the whole history, or a newest-first page when limit or cursor is given.
func (h *Handler) GetMessages(c *gin.Context) {
	roomID := c.Param("chatRoomId")
	limitStr, hasLimit := c.GetQuery("limit")
	cursor, hasCursor := c.GetQuery("cursor")

	if !hasLimit && !hasCursor {
		msgs, err := h.Messages.GetMessages(c.Request.Context(), roomID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, msgs)
		return
	}

	limit := 0
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	page, err := h.Messages.GetMessagesPage(c.Request.Context(), roomID, limit, cursor)
	if err != nil {
		respondError(c, err)
		return
	}
	next := ""
	if len(page) > 0 {
		next = page[len(page)-1].ID
	}
	c.JSON(http.StatusOK, gin.H{"messages": page, "nextCursor": next})
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req message.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	receipt, err := h.Messages.Send(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"userIds": h.Hub.OnlineUsers()})
}
