package ws

import "context"

// MessagePing is a client keepalive; the server answers with a pong.
type MessagePing struct{}

func (msg *MessagePing) GetType() string { return "ping" }

func (msg *MessagePing) Process(ctx *MessageContext) error {
	return ctx.Reply(map[string]string{"type": "pong"})
}

type MessagePong struct{}

func (msg *MessagePong) GetType() string { return "pong" }

func (msg *MessagePong) Process(*MessageContext) error { return nil }

// MessagePresence asks which of the listed users currently hold a
// connection. At most 100 ids are answered.
type MessagePresence struct {
	UserIDs []uint `json:"user_ids"`
}

func (msg *MessagePresence) GetType() string { return "presence" }

func (msg *MessagePresence) Process(ctx *MessageContext) error {
	ids := msg.UserIDs
	if len(ids) > 100 {
		ids = ids[:100]
	}
	online := make(map[uint]bool, len(ids))
	for _, id := range ids {
		online[id] = ctx.Hub.Online(context.Background(), id)
	}
	return ctx.Reply(map[string]any{"type": "presence", "online": online})
}
