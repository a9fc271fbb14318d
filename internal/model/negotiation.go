package model

import "time"

type NegotiationStatus string

const (
	StatusOpen     NegotiationStatus = "OPEN"
	StatusCounter  NegotiationStatus = "COUNTER"
	StatusAccepted NegotiationStatus = "ACCEPTED"
	StatusRejected NegotiationStatus = "REJECTED"
)

// Negotiable reports whether offers, texts and decisions are still allowed.
func (s NegotiationStatus) Negotiable() bool {
	return s == StatusOpen || s == StatusCounter
}

func (s NegotiationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

func (s NegotiationStatus) Valid() bool {
	return s.Negotiable() || s.Terminal()
}

type NegotiationList []Negotiation

// Negotiation is one buyer-farmer price thread for a listing and quantity.
type Negotiation struct {
	ID                string            `db:"id" json:"id"`
	ListingID         string            `db:"listing_id" json:"listing_id"`
	BuyerID           string            `db:"buyer_id" json:"buyer_id"`
	FarmerID          string            `db:"farmer_id" json:"farmer_id"`
	RequestedQuantity float64           `db:"requested_quantity" json:"requested_quantity"`
	CurrentOffer      float64           `db:"current_offer" json:"current_offer"`
	Status            NegotiationStatus `db:"status" json:"status"`
	Version           int64             `db:"version" json:"-"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

func (n Negotiation) IsParticipant(userID string) bool {
	return userID != "" && (userID == n.BuyerID || userID == n.FarmerID)
}

// Counterparty returns the other side of the thread for a participant.
func (n Negotiation) Counterparty(userID string) string {
	if userID == n.BuyerID {
		return n.FarmerID
	}
	return n.BuyerID
}
