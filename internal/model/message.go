package model

import "time"

type MessageType string

const (
	TextMessageType  MessageType = "TEXT"
	OfferMessageType MessageType = "OFFER"
)

type OfferStatus string

const (
	OfferPending    OfferStatus = "pending"
	OfferAccepted   OfferStatus = "accepted"
	OfferRejected   OfferStatus = "rejected"
	OfferSuperseded OfferStatus = "superseded"
)

type MessageList []NegotiationMessage

// NegotiationMessage is an append-only log entry of a negotiation. Only
// OfferStatus changes after creation. OfferStatus may be nil on records
// written before the column existed.
type NegotiationMessage struct {
	ID          string       `db:"id" json:"id"`
	ChatID      string       `db:"chat_id" json:"chat_id"`
	SenderID    string       `db:"sender_id" json:"sender_id"`
	Type        MessageType  `db:"type" json:"type"`
	Text        string       `db:"text" json:"text,omitempty"`
	OfferValue  *float64     `db:"offer_value" json:"offer_value,omitempty"`
	OfferStatus *OfferStatus `db:"offer_status" json:"offer_status,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

func (m NegotiationMessage) IsOffer() bool {
	return m.Type == OfferMessageType
}

// Status returns the offer status or an empty string when it is unknown.
func (m NegotiationMessage) Status() OfferStatus {
	if m.OfferStatus == nil {
		return ""
	}
	return *m.OfferStatus
}

func (m NegotiationMessage) Value() float64 {
	if m.OfferValue == nil {
		return 0
	}
	return *m.OfferValue
}
