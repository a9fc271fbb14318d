package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func openSession(t *testing.T, b *backend, userID string, opts ...Option) *Session {
	t.Helper()

	opts = append([]Option{WithClock(fixedClock(t0.Add(time.Hour)))}, opts...)
	s := New(chatID, userID, b.storeFor(userID), b.bus, quietLogger(t), opts...)
	require.NoError(t, s.Open(context.Background()))
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func pendingOffers(msgs model.MessageList) []model.NegotiationMessage {
	var out []model.NegotiationMessage
	for _, m := range msgs {
		if m.IsOffer() && m.Status() == model.OfferPending {
			out = append(out, m)
		}
	}
	return out
}

func requireActionError(t *testing.T, err error, sentinel error) *ActionError {
	t.Helper()

	var actionErr *ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.ErrorIs(t, err, sentinel)
	return actionErr
}

func TestSession_ScenarioA_CounterThenAccept(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.SendOffer(context.Background(), 22))

	for _, s := range []*Session{buyer, farmer} {
		view := s.View()
		assert.Equal(t, model.StatusCounter, view.Chat.Status)
		assert.Equal(t, 22.0, view.Chat.CurrentOffer)
		require.Len(t, pendingOffers(view.Messages), 1)
		assert.Equal(t, farmerID, pendingOffers(view.Messages)[0].SenderID)
	}
	assert.True(t, buyer.View().Actions.CanAccept)
	assert.False(t, farmer.View().Actions.CanAccept)

	require.NoError(t, buyer.Accept(context.Background()))

	for _, s := range []*Session{buyer, farmer} {
		view := s.View()
		assert.Equal(t, model.StatusAccepted, view.Chat.Status)
		assert.Equal(t, 22.0, view.Chat.CurrentOffer)
		assert.Empty(t, pendingOffers(view.Messages))
		assert.False(t, view.Actions.CanCounter)
	}
	assert.True(t, buyer.View().Actions.CanCheckout)
	assert.False(t, farmer.View().Actions.CanCheckout)

	handoff, err := buyer.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 50.0, handoff.Quantity)
	assert.Equal(t, 22.0, handoff.Price)
	assert.Equal(t, "listing-1", handoff.ListingID)
}

func TestSession_ScenarioB_CounterAfterReject(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.SendOffer(context.Background(), 22))
	require.NoError(t, buyer.Reject(context.Background()))
	assert.Equal(t, model.StatusRejected, farmer.View().Chat.Status)

	calls := b.callCount()
	err := farmer.SendOffer(context.Background(), 21)

	actionErr := requireActionError(t, err, negotiation.ErrInvalidState)
	assert.Equal(t, "21", actionErr.Input)
	assert.Equal(t, calls, b.callCount(), "refused locally without a store call")
	assert.Equal(t, model.StatusRejected, farmer.View().Chat.Status)
}

func TestSession_LocalValidation(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	calls := b.callCount()

	t.Run("self_accept", func(t *testing.T) {
		requireActionError(t, buyer.Accept(context.Background()), negotiation.ErrInvalidState)
	})

	t.Run("invalid_amount", func(t *testing.T) {
		actionErr := requireActionError(t, buyer.SendOffer(context.Background(), -5), negotiation.ErrInvalidAmount)
		assert.Equal(t, "-5", actionErr.Input)
	})

	t.Run("empty_text", func(t *testing.T) {
		requireActionError(t, buyer.SendText(context.Background(), "   "), negotiation.ErrInvalidInput)
	})

	t.Run("checkout_before_accept", func(t *testing.T) {
		_, err := buyer.Checkout(context.Background())
		requireActionError(t, err, negotiation.ErrInvalidState)
	})

	assert.Equal(t, calls, b.callCount())
}

func TestSession_IdempotentMerge(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.SendText(context.Background(), "Fresh from the field"))

	view := buyer.View()
	require.Len(t, view.Messages, 2)
	pushed := view.Messages[1]

	// Same message again by push and by refetch.
	b.bus.deliverMessage(pushed)
	require.NoError(t, buyer.Refresh(context.Background()))
	require.NoError(t, farmer.Refresh(context.Background()))

	assert.Len(t, buyer.View().Messages, 2)
	assert.Len(t, farmer.View().Messages, 2)
	assert.Equal(t, buyer.View().Messages, farmer.View().Messages)
}

func TestSession_ConflictForcesRefresh(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.SendOffer(context.Background(), 22))
	b.silently(func() {
		require.NoError(t, farmer.SendOffer(context.Background(), 24))
	})
	assert.Equal(t, 22.0, buyer.View().Chat.CurrentOffer, "buyer missed the push")

	err := buyer.Accept(context.Background())

	requireActionError(t, err, negotiation.ErrConflict)
	view := buyer.View()
	assert.Equal(t, model.StatusCounter, view.Chat.Status)
	assert.Equal(t, 24.0, view.Chat.CurrentOffer)
	require.Len(t, pendingOffers(view.Messages), 1)
	assert.Equal(t, 24.0, pendingOffers(view.Messages)[0].Value())
}

func TestSession_NetworkFailureKeepsInput(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	before := buyer.View()

	b.failNext(fmt.Errorf("%w: connection reset", negotiation.ErrNetworkFailure))
	err := buyer.SendText(context.Background(), "Can you do 21?")

	actionErr := requireActionError(t, err, negotiation.ErrNetworkFailure)
	assert.Equal(t, "Can you do 21?", actionErr.Input)
	assert.Equal(t, before, buyer.View())
}

func TestSession_OpenFailureLeavesEmptyView(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.failNext(fmt.Errorf("%w: timeout", negotiation.ErrNetworkFailure))

	s := New(chatID, buyerID, b.storeFor(buyerID), b.bus, quietLogger(t))
	err := s.Open(context.Background())

	assert.ErrorIs(t, err, negotiation.ErrNetworkFailure)
	assert.False(t, s.View().Loaded)
	requireActionError(t, s.SendText(context.Background(), "hi"), ErrNotLoaded)
}

func TestSession_JoinFailureStillLoads(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	b.bus.joinError = errors.New("socket closed")

	s := New(chatID, buyerID, b.storeFor(buyerID), b.bus, quietLogger(t))
	require.NoError(t, s.Open(context.Background()))

	assert.True(t, s.View().Loaded)
}

type gatedStore struct {
	*userStore
	gate    chan struct{}
	entered chan struct{}
}

func (g *gatedStore) SendMessage(ctx context.Context, id, text string) (*model.NegotiationMessage, error) {
	close(g.entered)
	<-g.gate
	return g.userStore.SendMessage(ctx, id, text)
}

func TestSession_LateResponseAfterClose(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	store := &gatedStore{userStore: b.storeFor(buyerID), gate: make(chan struct{}), entered: make(chan struct{})}

	s := New(chatID, buyerID, store, b.bus, quietLogger(t))
	require.NoError(t, s.Open(context.Background()))
	before := s.View()

	done := make(chan error, 1)
	go func() { done <- s.SendText(context.Background(), "late") }()

	<-store.entered
	require.NoError(t, s.Close(context.Background()))
	close(store.gate)

	require.NoError(t, <-done)
	assert.Equal(t, before, s.View())
	assert.Equal(t, 0, b.bus.joined[chatID])

	requireActionError(t, s.SendText(context.Background(), "again"), ErrClosed)
}

func TestSession_StatusPushGapTriggersRefresh(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	farmer := openSession(t, b, farmerID)

	var msg *model.NegotiationMessage
	b.silently(func() {
		var err error
		msg, err = farmer.store.Counter(context.Background(), chatID, 23)
		require.NoError(t, err)
	})

	offer := 23.0
	b.bus.deliverStatus(model.StatusChange{ChatID: chatID, Status: model.StatusCounter, Offer: &offer, UpdatedAt: msg.CreatedAt})

	assert.Eventually(t, func() bool {
		view := buyer.View()
		for _, m := range view.Messages {
			if m.ID == msg.ID {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 23.0, buyer.View().Chat.CurrentOffer)
}

func TestSession_StalePushIgnored(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	buyer := openSession(t, b, buyerID)
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.SendOffer(context.Background(), 22))
	require.NoError(t, buyer.Accept(context.Background()))

	offer := 22.0
	b.bus.deliverStatus(model.StatusChange{ChatID: chatID, Status: model.StatusCounter, Offer: &offer, UpdatedAt: t0})

	assert.Equal(t, model.StatusAccepted, buyer.View().Chat.Status)
}

func TestSession_ScenarioC_CheckoutWindow(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	farmer := openSession(t, b, farmerID)
	require.NoError(t, farmer.Accept(context.Background()))

	acceptedAt := farmer.View().Chat.UpdatedAt

	early := openSession(t, b, buyerID, WithClock(fixedClock(acceptedAt.Add(time.Hour+59*time.Minute))))
	view := early.View()
	assert.False(t, view.Actions.Expired)
	assert.True(t, view.Actions.CanCheckout)
	assert.Equal(t, time.Minute, view.Actions.Remaining)

	late := openSession(t, b, buyerID, WithClock(fixedClock(acceptedAt.Add(2*time.Hour+time.Minute))))
	view = late.View()
	assert.True(t, view.Actions.Expired)
	assert.False(t, view.Actions.CanCheckout)
	assert.Equal(t, time.Duration(0), view.Actions.Remaining)
	assert.Equal(t, model.StatusAccepted, view.Chat.Status)

	calls := b.callCount()
	_, err := late.Checkout(context.Background())
	requireActionError(t, err, negotiation.ErrCheckoutExpired)
	assert.Equal(t, calls, b.callCount())
}

func TestSession_ShareContact(t *testing.T) {
	t.Parallel()

	b := newBackend(t)
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.ShareContact(context.Background(), "Asha", "+91 98450 12345"))

	msgs := farmer.View().Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "Contact shared: Asha, +91 98450 12345", msgs[1].Text)

	requireActionError(t, farmer.ShareContact(context.Background(), "Asha", ""), negotiation.ErrInvalidInput)
}

func TestSession_OnChange(t *testing.T) {
	t.Parallel()

	b := newBackend(t)

	var (
		mu    sync.Mutex
		views []View
	)
	_ = openSession(t, b, buyerID, WithOnChange(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, v)
	}))
	farmer := openSession(t, b, farmerID)

	require.NoError(t, farmer.SendOffer(context.Background(), 22))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, views)
	last := views[len(views)-1]
	assert.Equal(t, model.StatusCounter, last.Chat.Status)
	assert.True(t, last.Actions.CanAccept)
}
