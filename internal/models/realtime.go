package models

// Names of the events exchanged over a live connection.
const (
	// client -> server
	EventJoinChat    = "joinChat"
	EventSendMessage = "sendMessage"

	// server -> client
	EventOnlineUsers = "getOnlineUsers"
	EventNewMessage  = "newMessage"
	EventMessageAck  = "messageAck"
	EventError       = "error"
)

// Event is an outbound frame pushed to a connection.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// OnlineUsersEvent carries the current presence set. Order is unspecified.
func OnlineUsersEvent(userIDs []string) Event {
	if userIDs == nil {
		userIDs = []string{}
	}
	return Event{Event: EventOnlineUsers, Data: userIDs}
}

// NewMessageEvent carries a persisted message to its recipient.
func NewMessageEvent(msg *ChatMessage) Event {
	return Event{Event: EventNewMessage, Data: msg}
}

// MessageAck tells the sender whether the live push of a stored message succeeded.
type MessageAck struct {
	MessageID  string `json:"messageId"`
	ChatRoomID string `json:"chatRoomId"`
	Delivered  bool   `json:"delivered"`
}

// ErrorPayload reports a failed client event back to the connection that sent it.
type ErrorPayload struct {
	Event string `json:"event,omitempty"`
	Error string `json:"error"`
}
