//go:generate mockgen -destination=mock_contract_test.go -package=${GOPACKAGE} -source=contract.go
package rest

import (
	"context"

	api "github.com/agrilink/negotiation-service/internal/generated"
	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

type DBRepo interface {
	CreateNegotiation(ctx context.Context, chat *model.Negotiation) error
	GetNegotiation(ctx context.Context, id string, forUpdate bool) (*model.Negotiation, error)
	GetUserNegotiations(ctx context.Context, userID string, status model.NegotiationStatus, limit uint64) (*model.NegotiationList, error)
	GetNegotiationMessages(ctx context.Context, chatID string) (*model.MessageList, error)
	SaveMessage(ctx context.Context, message *model.NegotiationMessage) error
	ApplyUpdate(ctx context.Context, chat *model.Negotiation, upd negotiation.Update) error

	WithTx(ctx context.Context, cb func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event model.RealtimeEvent) error
}

type Validator interface {
	ValidateStartNegotiation(req *api.StartNegotiationRequest, buyerID string) error
	ValidateSendMessage(req *api.SendMessageRequest) error
	ValidateCounterOffer(req *api.CounterOfferRequest) error
}

type JWTGenerator interface {
	GenerateConnectToken(userID string) (string, int64, error)
	GenerateSubscribeToken(userID, negotiationID string) (string, int64, error)
}

type CheckoutProducer interface {
	Publish(ctx context.Context, handoff model.CheckoutHandoff) error
}
