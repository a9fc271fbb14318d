package negotiation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/agrilink/negotiation-service/internal/model"
)

const MaxTextLength = 1000

// Thread is a negotiation together with its resolved message log. All
// transitions go through its methods so the offer invariants hold in one place.
type Thread struct {
	Chat     model.Negotiation
	Messages model.MessageList
}

// Update lists what a transition wrote: at most one appended message and the
// existing messages whose offer status changed.
type Update struct {
	Appended *model.NegotiationMessage
	Changed  model.MessageList
}

// WithRepairs folds offers repaired on load into the update so the stored log
// matches the resolved one. Statuses set by the transition win, and pending
// offers are ordered last so no write sees two pending offers at once.
func (u Update) WithRepairs(repairs model.MessageList) Update {
	latest := make(map[string]model.NegotiationMessage, len(repairs)+len(u.Changed))
	var order []string
	for _, list := range []model.MessageList{repairs, u.Changed} {
		for _, m := range list {
			if _, ok := latest[m.ID]; !ok {
				order = append(order, m.ID)
			}
			latest[m.ID] = m
		}
	}

	var changed, pending model.MessageList
	for _, id := range order {
		m := latest[id]
		if m.Status() == model.OfferPending {
			pending = append(pending, m)
			continue
		}
		changed = append(changed, m)
	}

	u.Changed = append(changed, pending...)
	return u
}

type StartParams struct {
	ListingID    string
	BuyerID      string
	FarmerID     string
	Quantity     float64
	InitialOffer float64
}

// NewThread resolves msgs against chat and returns the thread.
func NewThread(chat model.Negotiation, msgs model.MessageList) Thread {
	resolved, _ := Resolve(chat, msgs)
	return Thread{Chat: chat, Messages: resolved}
}

// Start opens a negotiation with the buyer's opening offer as its first message.
func Start(p StartParams, chatID, messageID string, now time.Time) (Thread, error) {
	if strings.TrimSpace(p.ListingID) == "" {
		return Thread{}, fmt.Errorf("%w: listing id is required", ErrInvalidInput)
	}
	if p.BuyerID == "" || p.FarmerID == "" {
		return Thread{}, fmt.Errorf("%w: buyer and farmer are required", ErrInvalidInput)
	}
	if p.BuyerID == p.FarmerID {
		return Thread{}, fmt.Errorf("%w: buyer cannot negotiate with themselves", ErrInvalidInput)
	}
	if !ValidAmount(p.Quantity) {
		return Thread{}, fmt.Errorf("%w: quantity %v", ErrInvalidAmount, p.Quantity)
	}
	if !ValidAmount(p.InitialOffer) {
		return Thread{}, fmt.Errorf("%w: offer %v", ErrInvalidAmount, p.InitialOffer)
	}

	chat := model.Negotiation{
		ID:                chatID,
		ListingID:         p.ListingID,
		BuyerID:           p.BuyerID,
		FarmerID:          p.FarmerID,
		RequestedQuantity: p.Quantity,
		CurrentOffer:      p.InitialOffer,
		Status:            model.StatusOpen,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	return Thread{
		Chat:     chat,
		Messages: model.MessageList{newOffer(chatID, messageID, p.BuyerID, p.InitialOffer, now)},
	}, nil
}

// ValidAmount reports whether v is a finite positive number.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func (t *Thread) SendText(senderID, text, messageID string, now time.Time) (Update, error) {
	if err := t.checkActor(senderID, "send text"); err != nil {
		return Update{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Update{}, fmt.Errorf("%w: text cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return Update{}, fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, MaxTextLength)
	}

	msg := model.NegotiationMessage{
		ID:        messageID,
		ChatID:    t.Chat.ID,
		SenderID:  senderID,
		Type:      model.TextMessageType,
		Text:      text,
		CreatedAt: now,
	}
	t.Messages = append(t.Messages, msg)

	return Update{Appended: &msg}, nil
}

// SendOffer supersedes the pending offer, appends a new pending one and moves
// the negotiation to COUNTER.
func (t *Thread) SendOffer(senderID string, price float64, messageID string, now time.Time) (Update, error) {
	if err := t.checkActor(senderID, "send offer"); err != nil {
		return Update{}, err
	}
	if !ValidAmount(price) {
		return Update{}, fmt.Errorf("%w: offer %v", ErrInvalidAmount, price)
	}

	var upd Update
	if i := t.pendingIndex(); i >= 0 {
		t.Messages[i].OfferStatus = statusPtr(model.OfferSuperseded)
		upd.Changed = append(upd.Changed, t.Messages[i])
	}

	msg := newOffer(t.Chat.ID, messageID, senderID, price, now)
	t.Messages = append(t.Messages, msg)
	upd.Appended = &msg

	t.Chat.CurrentOffer = price
	t.Chat.Status = model.StatusCounter
	t.Chat.UpdatedAt = now

	return upd, nil
}

// Accept closes the negotiation at the pending offer's price. The actor must be
// the receiving side of that offer.
func (t *Thread) Accept(actorID string, now time.Time) (Update, error) {
	i, err := t.decidable(actorID, "accept")
	if err != nil {
		return Update{}, err
	}

	t.Messages[i].OfferStatus = statusPtr(model.OfferAccepted)
	t.Chat.Status = model.StatusAccepted
	t.Chat.UpdatedAt = now

	return Update{Changed: model.MessageList{t.Messages[i]}}, nil
}

func (t *Thread) Reject(actorID string, now time.Time) (Update, error) {
	i, err := t.decidable(actorID, "reject")
	if err != nil {
		return Update{}, err
	}

	t.Messages[i].OfferStatus = statusPtr(model.OfferRejected)
	t.Chat.Status = model.StatusRejected
	t.Chat.UpdatedAt = now

	return Update{Changed: model.MessageList{t.Messages[i]}}, nil
}

// PendingOffer returns the offer awaiting a decision, if any.
func (t *Thread) PendingOffer() (model.NegotiationMessage, bool) {
	i := t.pendingIndex()
	if i < 0 {
		return model.NegotiationMessage{}, false
	}
	return t.Messages[i], true
}

func (t *Thread) checkActor(actorID, op string) error {
	if !t.Chat.IsParticipant(actorID) {
		return fmt.Errorf("%w: %s", ErrForbidden, actorID)
	}
	if !t.Chat.Status.Negotiable() {
		return fmt.Errorf("%w: cannot %s on %s negotiation", ErrInvalidState, op, t.Chat.Status)
	}
	return nil
}

func (t *Thread) decidable(actorID, op string) (int, error) {
	if err := t.checkActor(actorID, op); err != nil {
		return -1, err
	}

	i := t.pendingIndex()
	if i < 0 {
		return -1, fmt.Errorf("%w: no pending offer to %s", ErrInvalidState, op)
	}
	if t.Messages[i].SenderID == actorID {
		return -1, fmt.Errorf("%w: cannot %s own offer", ErrInvalidState, op)
	}

	return i, nil
}

func (t *Thread) pendingIndex() int {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].IsOffer() && t.Messages[i].Status() == model.OfferPending {
			return i
		}
	}
	return -1
}

func newOffer(chatID, messageID, senderID string, price float64, now time.Time) model.NegotiationMessage {
	value := price
	return model.NegotiationMessage{
		ID:          messageID,
		ChatID:      chatID,
		SenderID:    senderID,
		Type:        model.OfferMessageType,
		OfferValue:  &value,
		OfferStatus: statusPtr(model.OfferPending),
		CreatedAt:   now,
	}
}

func statusPtr(s model.OfferStatus) *model.OfferStatus {
	return &s
}
