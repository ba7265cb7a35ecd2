package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"socialchat/backend/internal/chaterr"
	"socialchat/backend/internal/message"
	"socialchat/backend/internal/models"
)

// Lifecycle events raised by the transport, never decoded from the wire.
const (
	EventConnect    = "connect"
	EventDisconnect = "disconnect"
)

var ErrUnknownEvent = errors.New("unknown event")

// Event is one inbound gateway event. The set of variants is closed:
// Connect, Disconnect, JoinChat and SendMessage.
type Event interface {
	Name() string
}

// Connect is raised when a connection is established. UserID is "" for anonymous handshakes.
// Verified marks an identity proven by a token; such a connection is pinned to it.
type Connect struct {
	UserID   string
	Verified bool
}

type Disconnect struct{}

// JoinChat (re)binds a user id to the current connection.
type JoinChat struct {
	UserID string `json:"userId"`
}

type SendMessage struct {
	message.SendRequest
}

func (Connect) Name() string     { return EventConnect }
func (Disconnect) Name() string  { return EventDisconnect }
func (JoinChat) Name() string    { return models.EventJoinChat }
func (SendMessage) Name() string { return models.EventSendMessage }

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// DecodeEvent parses a client frame of the form {"event": "...", "data": ...}.
// joinChat accepts either a bare user id string or {"userId": "..."}.
func DecodeEvent(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, chaterr.Validation("malformed frame: %v", err)
	}

	switch env.Event {
	case models.EventJoinChat:
		var ev JoinChat
		data := bytes.TrimSpace(env.Data)
		if len(data) > 0 && data[0] == '"' {
			if err := json.Unmarshal(data, &ev.UserID); err != nil {
				return nil, chaterr.Validation("malformed joinChat payload: %v", err)
			}
			return ev, nil
		}
		if err := decodeData(data, &ev); err != nil {
			return nil, err
		}
		return ev, nil

	case models.EventSendMessage:
		var ev SendMessage
		if err := decodeData(env.Data, &ev.SendRequest); err != nil {
			return nil, err
		}
		return ev, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return chaterr.Validation("missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return chaterr.Validation("malformed event data: %v", err)
	}
	return nil
}
