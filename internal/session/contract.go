package session

import (
	"context"

	"github.com/agrilink/negotiation-service/internal/model"
)

// Store is the negotiation backend as seen by one participant.
type Store interface {
	GetByID(ctx context.Context, chatID string) (*model.Negotiation, error)
	GetMessages(ctx context.Context, chatID string) (model.MessageList, error)
	SendMessage(ctx context.Context, chatID, text string) (*model.NegotiationMessage, error)
	Counter(ctx context.Context, chatID string, price float64) (*model.NegotiationMessage, error)
	Accept(ctx context.Context, chatID, expectedOfferID string) (*model.Negotiation, error)
	Reject(ctx context.Context, chatID, expectedOfferID string) (*model.Negotiation, error)
	Checkout(ctx context.Context, chatID string) (*model.CheckoutHandoff, error)
}

// Bus delivers realtime events of negotiation rooms. Handlers may be called
// from the bus's own goroutine.
type Bus interface {
	JoinNegotiationRoom(ctx context.Context, chatID string) error
	LeaveNegotiationRoom(ctx context.Context, chatID string) error
	OnNegotiationMessage(chatID string, fn func(model.NegotiationMessage)) (unsubscribe func())
	OnNegotiationStatus(chatID string, fn func(model.StatusChange)) (unsubscribe func())
}
