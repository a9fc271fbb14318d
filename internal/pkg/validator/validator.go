package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	api "github.com/agrilink/negotiation-service/internal/generated"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

func (v *Validator) ValidateStartNegotiation(req *api.StartNegotiationRequest, buyerID string) error {
	if strings.TrimSpace(req.ListingId) == "" {
		return fmt.Errorf("%w: listing_id is required", negotiation.ErrInvalidInput)
	}

	if strings.TrimSpace(req.FarmerId) == "" {
		return fmt.Errorf("%w: farmer_id is required", negotiation.ErrInvalidInput)
	}

	if req.FarmerId == buyerID {
		return fmt.Errorf("%w: cannot negotiate on own listing", negotiation.ErrInvalidInput)
	}

	if !negotiation.ValidAmount(req.Quantity) {
		return fmt.Errorf("%w: quantity must be a positive number", negotiation.ErrInvalidAmount)
	}

	if !negotiation.ValidAmount(req.InitialOffer) {
		return fmt.Errorf("%w: initial_offer must be a positive number", negotiation.ErrInvalidAmount)
	}

	return nil
}

func (v *Validator) ValidateSendMessage(req *api.SendMessageRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return fmt.Errorf("%w: text cannot be empty", negotiation.ErrInvalidInput)
	}

	if utf8.RuneCountInString(req.Text) > negotiation.MaxTextLength {
		return fmt.Errorf("%w: text exceeds maximum length of %d characters", negotiation.ErrInvalidInput, negotiation.MaxTextLength)
	}

	return nil
}

func (v *Validator) ValidateCounterOffer(req *api.CounterOfferRequest) error {
	if !negotiation.ValidAmount(req.Price) {
		return fmt.Errorf("%w: price must be a positive number", negotiation.ErrInvalidAmount)
	}

	return nil
}
