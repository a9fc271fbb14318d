package model

import (
	"time"
)

const NegotiationChannelPrefix = "negotiation:"

type EventKind string

const (
	MessageEventKind EventKind = "negotiation.message"
	StatusEventKind  EventKind = "negotiation.status"
	ErrorEventKind   EventKind = "negotiation.error"
)

// StatusChange is pushed to a negotiation room after every status-affecting write.
type StatusChange struct {
	ChatID    string            `json:"chat_id"`
	Status    NegotiationStatus `json:"status"`
	Offer     *float64          `json:"offer,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RealtimeEvent is the envelope delivered on a negotiation channel.
type RealtimeEvent struct {
	Kind    EventKind           `json:"kind"`
	ChatID  string              `json:"chat_id"`
	Message *NegotiationMessage `json:"message,omitempty"`
	Status  *StatusChange       `json:"status,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func NegotiationChannel(chatID string) string {
	return NegotiationChannelPrefix + chatID
}

func NewMessageEvent(msg NegotiationMessage) RealtimeEvent {
	return RealtimeEvent{Kind: MessageEventKind, ChatID: msg.ChatID, Message: &msg}
}

func NewErrorEvent(chatID, reason string) RealtimeEvent {
	return RealtimeEvent{Kind: ErrorEventKind, ChatID: chatID, Error: reason}
}

func NewStatusEvent(chat Negotiation) RealtimeEvent {
	offer := chat.CurrentOffer
	return RealtimeEvent{
		Kind:   StatusEventKind,
		ChatID: chat.ID,
		Status: &StatusChange{
			ChatID:    chat.ID,
			Status:    chat.Status,
			Offer:     &offer,
			UpdatedAt: chat.UpdatedAt,
		},
	}
}
