package negotiation

import (
	"fmt"
	"time"

	"github.com/agrilink/negotiation-service/internal/model"
)

// CheckoutWindow is how long after acceptance the buyer may check out.
const CheckoutWindow = 2 * time.Hour

func CheckoutExpiresAt(chat model.Negotiation) time.Time {
	return chat.UpdatedAt.Add(CheckoutWindow)
}

// CheckoutWindowExpired is advisory: it never changes the negotiation status.
func CheckoutWindowExpired(chat model.Negotiation, now time.Time) bool {
	return chat.Status == model.StatusAccepted && now.Sub(chat.UpdatedAt) > CheckoutWindow
}

// CheckoutRemaining is the countdown shown while the window is open. It is
// recomputed from now on every call.
func CheckoutRemaining(chat model.Negotiation, now time.Time) time.Duration {
	if chat.Status != model.StatusAccepted {
		return 0
	}
	remaining := CheckoutExpiresAt(chat).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CheckoutOpen reports whether the countdown still has time left. At the exact
// expiry instant the window is closed even though CheckoutWindowExpired is not
// yet true.
func CheckoutOpen(chat model.Negotiation, now time.Time) bool {
	return CheckoutRemaining(chat, now) > 0
}

// Handoff builds the cart payload for an accepted negotiation.
func Handoff(chat model.Negotiation, actorID string, now time.Time) (model.CheckoutHandoff, error) {
	if actorID != chat.BuyerID {
		return model.CheckoutHandoff{}, fmt.Errorf("%w: only the buyer can check out", ErrForbidden)
	}
	if chat.Status != model.StatusAccepted {
		return model.CheckoutHandoff{}, fmt.Errorf("%w: cannot check out %s negotiation", ErrInvalidState, chat.Status)
	}
	if !CheckoutOpen(chat, now) {
		return model.CheckoutHandoff{}, fmt.Errorf("%w: accepted at %s", ErrCheckoutExpired, chat.UpdatedAt.Format(time.RFC3339))
	}

	return model.CheckoutHandoff{
		NegotiationID: chat.ID,
		ListingID:     chat.ListingID,
		BuyerID:       chat.BuyerID,
		Quantity:      chat.RequestedQuantity,
		Price:         chat.CurrentOffer,
		AcceptedAt:    chat.UpdatedAt,
		ExpiresAt:     CheckoutExpiresAt(chat),
	}, nil
}
