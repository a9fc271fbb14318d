// Package api holds the HTTP contract of the negotiation service: wire types,
// the server interface and its chi binding.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

type Error struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type Negotiation struct {
	Id                string    `json:"id"`
	ListingId         string    `json:"listing_id"`
	BuyerId           string    `json:"buyer_id"`
	FarmerId          string    `json:"farmer_id"`
	RequestedQuantity float64   `json:"requested_quantity"`
	CurrentOffer      float64   `json:"current_offer"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Message struct {
	Id          string    `json:"id"`
	ChatId      string    `json:"chat_id"`
	SenderId    string    `json:"sender_id"`
	Type        string    `json:"type"`
	Text        *string   `json:"text,omitempty"`
	OfferValue  *float64  `json:"offer_value,omitempty"`
	OfferStatus *string   `json:"offer_status,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type StartNegotiationRequest struct {
	ListingId    string  `json:"listing_id"`
	FarmerId     string  `json:"farmer_id"`
	Quantity     float64 `json:"quantity"`
	InitialOffer float64 `json:"initial_offer"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

type CounterOfferRequest struct {
	Price float64 `json:"price"`
}

type DecisionRequest struct {
	ExpectedOfferId *string `json:"expected_offer_id,omitempty"`
}

type GetNegotiationsResponse struct {
	Negotiations []Negotiation `json:"negotiations"`
}

type GetMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type CheckoutResponse struct {
	NegotiationId string    `json:"negotiation_id"`
	ListingId     string    `json:"listing_id"`
	BuyerId       string    `json:"buyer_id"`
	Quantity      float64   `json:"quantity"`
	Price         float64   `json:"price"`
	AcceptedAt    time.Time `json:"accepted_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type GetConnectAccessTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type GetSubscribeTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	Channel   string `json:"channel"`
}

type GetNegotiationsParams struct {
	Status *string `form:"status,omitempty" json:"status,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

type ServerInterface interface {
	// (GET /api/negotiations)
	GetNegotiations(w http.ResponseWriter, r *http.Request, params GetNegotiationsParams)
	// (POST /api/negotiations)
	StartNegotiation(w http.ResponseWriter, r *http.Request)
	// (GET /api/negotiations/{negotiation_id})
	GetNegotiation(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (GET /api/negotiations/{negotiation_id}/messages)
	GetNegotiationMessages(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (POST /api/negotiations/{negotiation_id}/messages)
	SendMessage(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (POST /api/negotiations/{negotiation_id}/counter)
	CounterOffer(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (POST /api/negotiations/{negotiation_id}/accept)
	AcceptOffer(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (POST /api/negotiations/{negotiation_id}/reject)
	RejectOffer(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (POST /api/negotiations/{negotiation_id}/checkout)
	Checkout(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (GET /api/negotiations/{negotiation_id}/subscribe-token)
	GetSubscribeToken(w http.ResponseWriter, r *http.Request, negotiationId string)
	// (GET /api/realtime/token)
	GetConnectAccessToken(w http.ResponseWriter, r *http.Request)
}

type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) GetNegotiations(w http.ResponseWriter, r *http.Request) {
	var params GetNegotiationsParams

	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &params.Status); err != nil {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("invalid format for parameter status: %w", err))
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, fmt.Errorf("invalid format for parameter limit: %w", err))
		return
	}

	siw.Handler.GetNegotiations(w, r, params)
}

func (siw *ServerInterfaceWrapper) StartNegotiation(w http.ResponseWriter, r *http.Request) {
	siw.Handler.StartNegotiation(w, r)
}

func (siw *ServerInterfaceWrapper) GetConnectAccessToken(w http.ResponseWriter, r *http.Request) {
	siw.Handler.GetConnectAccessToken(w, r)
}

// withNegotiationID binds the negotiation_id path parameter before calling fn.
func (siw *ServerInterfaceWrapper) withNegotiationID(fn func(w http.ResponseWriter, r *http.Request, negotiationId string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var negotiationId string

		err := runtime.BindStyledParameterWithLocation("simple", false, "negotiation_id", runtime.ParamLocationPath, chi.URLParam(r, "negotiation_id"), &negotiationId)
		if err != nil {
			siw.ErrorHandlerFunc(w, r, fmt.Errorf("invalid format for parameter negotiation_id: %w", err))
			return
		}

		fn(w, r, negotiationId)
	}
}

// HandlerFromMux registers every route of the contract on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		},
	}

	r.Get("/api/negotiations", wrapper.GetNegotiations)
	r.Post("/api/negotiations", wrapper.StartNegotiation)
	r.Get("/api/negotiations/{negotiation_id}", wrapper.withNegotiationID(si.GetNegotiation))
	r.Get("/api/negotiations/{negotiation_id}/messages", wrapper.withNegotiationID(si.GetNegotiationMessages))
	r.Post("/api/negotiations/{negotiation_id}/messages", wrapper.withNegotiationID(si.SendMessage))
	r.Post("/api/negotiations/{negotiation_id}/counter", wrapper.withNegotiationID(si.CounterOffer))
	r.Post("/api/negotiations/{negotiation_id}/accept", wrapper.withNegotiationID(si.AcceptOffer))
	r.Post("/api/negotiations/{negotiation_id}/reject", wrapper.withNegotiationID(si.RejectOffer))
	r.Post("/api/negotiations/{negotiation_id}/checkout", wrapper.withNegotiationID(si.Checkout))
	r.Get("/api/negotiations/{negotiation_id}/subscribe-token", wrapper.withNegotiationID(si.GetSubscribeToken))
	r.Get("/api/realtime/token", wrapper.GetConnectAccessToken)

	return r
}
