package entities

import (
	"encoding/json"
	"errors"
)

// MessageType is the discriminator of a frame protocol message.
type MessageType string

const (
	MessageInit     MessageType = "iselfietest-sdk-init"
	MessageAck      MessageType = "iselfietest-sdk-ack"
	MessageClose    MessageType = "iselfietest-close"
	MessageComplete MessageType = "iselfietest-complete"
	MessageError    MessageType = "iselfietest-error"
)

// InitPayload is the session data handed to the test frame.
type InitPayload struct {
	Options      Options             `json:"options"`
	Styles       map[string]string   `json:"styles"`
	Organization OrganizationSummary `json:"organization"`
	APIKey       string              `json:"apiKey"`
	Privilege    string              `json:"privilege,omitempty"`
	AppUserID    string              `json:"appUserId"`
	Domain       string              `json:"domain"`
}

// InitMessage is the only outbound message.
type InitMessage struct {
	Type MessageType `json:"type"`
	Data InitPayload `json:"data"`
}

// NewInitMessage wraps payload in an init envelope.
func NewInitMessage(payload InitPayload) InitMessage {
	return InitMessage{Type: MessageInit, Data: payload}
}

// InboundMessage is one of AckMessage, CloseMessage, CompleteMessage or
// ErrorMessage.
type InboundMessage interface {
	MessageType() MessageType
	inbound()
}

// AckMessage confirms the frame received the init message.
type AckMessage struct{}

// CloseMessage asks the host to tear the frame down.
type CloseMessage struct{}

// CompleteMessage carries the test result.
type CompleteMessage struct {
	Data json.RawMessage
}

// ErrorMessage carries a failure reported by the frame.
type ErrorMessage struct {
	Data json.RawMessage
}

func (AckMessage) MessageType() MessageType      { return MessageAck }
func (CloseMessage) MessageType() MessageType    { return MessageClose }
func (CompleteMessage) MessageType() MessageType { return MessageComplete }
func (ErrorMessage) MessageType() MessageType    { return MessageError }

func (AckMessage) inbound()      {}
func (CloseMessage) inbound()    {}
func (CompleteMessage) inbound() {}
func (ErrorMessage) inbound()    {}

// ErrUnknownMessage is returned for payloads that are not a recognized
// inbound variant.
var ErrUnknownMessage = errors.New("unrecognized frame message")

// DecodeInbound decodes a raw frame message. Payloads that are not JSON
// objects or carry an unknown type yield ErrUnknownMessage.
func DecodeInbound(raw []byte) (InboundMessage, error) {
	var envelope struct {
		Type MessageType     `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, ErrUnknownMessage
	}
	data := envelope.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	switch envelope.Type {
	case MessageAck:
		return AckMessage{}, nil
	case MessageClose:
		return CloseMessage{}, nil
	case MessageComplete:
		return CompleteMessage{Data: data}, nil
	case MessageError:
		return ErrorMessage{Data: data}, nil
	default:
		return nil, ErrUnknownMessage
	}
}
