package model

import "time"

// CheckoutHandoff is what the cart service needs to create a line item at the
// negotiated price.
type CheckoutHandoff struct {
	NegotiationID string    `json:"negotiation_id"`
	ListingID     string    `json:"listing_id"`
	BuyerID       string    `json:"buyer_id"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price"`
	AcceptedAt    time.Time `json:"accepted_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}
