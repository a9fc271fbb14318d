package negotiation

import (
	"sort"
	"time"

	"github.com/agrilink/negotiation-service/internal/model"
)

// Resolve returns msgs ordered by creation time, ties kept in arrival order,
// with every offer's status derived from chat: the latest offer mirrors the
// negotiation outcome and every earlier offer is superseded. The second return
// value counts offers whose stored status was missing or disagreed.
//
// Resolve is the only place that reads a possibly missing OfferStatus.
func Resolve(chat model.Negotiation, msgs model.MessageList) (model.MessageList, int) {
	out := make(model.MessageList, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	latest := latestOfferIndex(out)
	repaired := 0
	for i := range out {
		if !out[i].IsOffer() {
			continue
		}

		want := model.OfferSuperseded
		if i == latest {
			want = latestStatus(chat.Status)
		}
		if out[i].Status() != want {
			repaired++
		}
		out[i].OfferStatus = statusPtr(want)
	}

	return out, repaired
}

// Repairs returns the offers in resolved whose status differs from the one
// stored for the same id.
func Repairs(stored, resolved model.MessageList) model.MessageList {
	before := make(map[string]model.OfferStatus, len(stored))
	for _, m := range stored {
		if m.IsOffer() {
			before[m.ID] = m.Status()
		}
	}

	var out model.MessageList
	for _, m := range resolved {
		if !m.IsOffer() {
			continue
		}
		if status, ok := before[m.ID]; ok && status == m.Status() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// LatestOffer returns the most recent offer in resolved order.
func LatestOffer(msgs model.MessageList) (model.NegotiationMessage, bool) {
	i := latestOfferIndex(msgs)
	if i < 0 {
		return model.NegotiationMessage{}, false
	}
	return msgs[i], true
}

func latestOfferIndex(msgs model.MessageList) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsOffer() {
			return i
		}
	}
	return -1
}

func latestStatus(s model.NegotiationStatus) model.OfferStatus {
	switch s {
	case model.StatusAccepted:
		return model.OfferAccepted
	case model.StatusRejected:
		return model.OfferRejected
	default:
		return model.OfferPending
	}
}

// Log is a message log that ignores messages it has already seen, so the same
// message delivered by fetch and by push is kept once.
type Log struct {
	messages model.MessageList
	seen     map[string]struct{}
}

func NewLog(msgs ...model.NegotiationMessage) *Log {
	l := &Log{seen: make(map[string]struct{}, len(msgs))}
	l.Merge(msgs...)
	return l
}

// Merge appends messages whose id is not yet in the log and returns how many
// were added.
func (l *Log) Merge(msgs ...model.NegotiationMessage) int {
	added := 0
	for _, m := range msgs {
		if _, ok := l.seen[m.ID]; ok {
			continue
		}
		l.seen[m.ID] = struct{}{}
		l.messages = append(l.messages, m)
		added++
	}
	return added
}

func (l *Log) Contains(id string) bool {
	_, ok := l.seen[id]
	return ok
}

func (l *Log) Len() int {
	return len(l.messages)
}

// Messages returns a copy in arrival order.
func (l *Log) Messages() model.MessageList {
	out := make(model.MessageList, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Resolved(chat model.Negotiation) model.MessageList {
	out, _ := Resolve(chat, l.messages)
	return out
}

// Affordances is what a participant may do next, computed from resolved state.
type Affordances struct {
	LatestOfferID string
	CanSendText   bool
	CanCounter    bool
	CanAccept     bool
	CanReject     bool
	CanCheckout   bool
	Expired       bool
	Remaining     time.Duration
}

// Actions derives the affordances of viewerID. Accept and reject attach only to
// the latest offer and only for the participant who did not send it.
func Actions(chat model.Negotiation, resolved model.MessageList, viewerID string, now time.Time) Affordances {
	var a Affordances
	if !chat.IsParticipant(viewerID) {
		return a
	}

	latest, ok := LatestOffer(resolved)
	if ok {
		a.LatestOfferID = latest.ID
	}

	if chat.Status.Negotiable() {
		a.CanSendText = true
		a.CanCounter = true
		respond := ok && latest.Status() == model.OfferPending && latest.SenderID != viewerID
		a.CanAccept = respond
		a.CanReject = respond
	}

	if chat.Status == model.StatusAccepted {
		a.Remaining = CheckoutRemaining(chat, now)
		a.Expired = a.Remaining <= 0
		a.CanCheckout = viewerID == chat.BuyerID && !a.Expired
	}

	return a
}
