package ws

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/gofiber/websocket/v2"
)

// MessageContext carries what an inbound frame needs to be processed.
type MessageContext struct {
	UserID uint
	Client *ClientConnection
	Hub    *Hub
}

// Reply writes v as a JSON text frame on the sender's connection.
func (ctx *MessageContext) Reply(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ctx.Client.write(websocket.TextMessage, data)
}

// Message is implemented by every client-to-server frame type.
type Message interface {
	GetType() string
	Process(ctx *MessageContext) error
}

// SerializedMessage is the wire envelope.
type SerializedMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ErrorResponse struct {
	Type    string `json:"type"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

var typeRegistry = map[string]reflect.Type{}

func init() {
	RegisterType(&MessagePing{})
	RegisterType(&MessagePong{})
	RegisterType(&MessagePresence{})
}

func RegisterType(msg Message) {
	typeRegistry[msg.GetType()] = reflect.TypeOf(msg).Elem()
}

// Deserialize decodes an envelope into its registered message type.
func Deserialize(data []byte) (Message, error) {
	var wrapper SerializedMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	t, ok := typeRegistry[wrapper.Type]
	if !ok {
		return nil, fmt.Errorf("unknown message type: %s", wrapper.Type)
	}
	msg := reflect.New(t).Interface().(Message)
	if len(wrapper.Payload) > 0 {
		if err := json.Unmarshal(wrapper.Payload, msg); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func SendError(ctx *MessageContext, code, message, details string) error {
	return ctx.Reply(ErrorResponse{Type: "error", Error: message, Code: code, Details: details})
}
