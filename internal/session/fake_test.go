package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

const (
	chatID   = "chat-1"
	buyerID  = "buyer-1"
	farmerID = "farmer-1"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func quietLogger(t *testing.T) logger_lib.LoggerInterface {
	t.Helper()

	logger := logger_lib.NewMockLoggerInterface(gomock.NewController(t))
	logger.EXPECT().AddFuncName(gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return logger
}

// backend is an in-memory negotiation store that runs the real state machine
// and publishes to a fakeBus the way the service does.
type backend struct {
	mu     sync.Mutex
	thread negotiation.Thread
	bus    *fakeBus
	clock  time.Time
	seq    int
	calls  int
	muted  bool
	fail   error
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	thread, err := negotiation.Start(negotiation.StartParams{
		ListingID:    "listing-1",
		BuyerID:      buyerID,
		FarmerID:     farmerID,
		Quantity:     50,
		InitialOffer: 20,
	}, chatID, "offer-0", t0)
	require.NoError(t, err)

	return &backend{thread: thread, bus: newFakeBus(), clock: t0}
}

func (b *backend) storeFor(userID string) *userStore {
	return &userStore{b: b, userID: userID}
}

// silently applies fn without publishing, as if the push was lost.
func (b *backend) silently(fn func()) {
	b.mu.Lock()
	b.muted = true
	b.mu.Unlock()

	fn()

	b.mu.Lock()
	b.muted = false
	b.mu.Unlock()
}

func (b *backend) failNext(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

func (b *backend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *backend) enter() (time.Time, error) {
	b.calls++
	if b.fail != nil {
		err := b.fail
		b.fail = nil
		return time.Time{}, err
	}
	b.clock = b.clock.Add(time.Minute)
	return b.clock, nil
}

func (b *backend) nextID() string {
	b.seq++
	return fmt.Sprintf("msg-%d", b.seq)
}

func (b *backend) publish(upd negotiation.Update, statusChanged bool) {
	if b.muted {
		return
	}
	if upd.Appended != nil {
		b.bus.deliverMessage(*upd.Appended)
	}
	if statusChanged {
		b.bus.deliverStatus(*model.NewStatusEvent(b.thread.Chat).Status)
	}
}

type userStore struct {
	b      *backend
	userID string
}

func (s *userStore) GetByID(_ context.Context, id string) (*model.Negotiation, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, err := s.b.enter(); err != nil {
		return nil, err
	}
	if id != chatID {
		return nil, fmt.Errorf("%w: %s", negotiation.ErrNotFound, id)
	}
	chat := s.b.thread.Chat
	return &chat, nil
}

func (s *userStore) GetMessages(_ context.Context, _ string) (model.MessageList, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, err := s.b.enter(); err != nil {
		return nil, err
	}
	resolved, _ := negotiation.Resolve(s.b.thread.Chat, s.b.thread.Messages)
	return resolved, nil
}

func (s *userStore) SendMessage(_ context.Context, _ string, text string) (*model.NegotiationMessage, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	now, err := s.b.enter()
	if err != nil {
		return nil, err
	}
	upd, err := s.b.thread.SendText(s.userID, text, s.b.nextID(), now)
	if err != nil {
		return nil, err
	}
	s.b.publish(upd, false)
	return upd.Appended, nil
}

func (s *userStore) Counter(_ context.Context, _ string, price float64) (*model.NegotiationMessage, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	now, err := s.b.enter()
	if err != nil {
		return nil, err
	}
	upd, err := s.b.thread.SendOffer(s.userID, price, s.b.nextID(), now)
	if err != nil {
		return nil, err
	}
	s.b.publish(upd, true)
	return upd.Appended, nil
}

func (s *userStore) Accept(_ context.Context, _ string, expectedOfferID string) (*model.Negotiation, error) {
	return s.decide(expectedOfferID, (*negotiation.Thread).Accept)
}

func (s *userStore) Reject(_ context.Context, _ string, expectedOfferID string) (*model.Negotiation, error) {
	return s.decide(expectedOfferID, (*negotiation.Thread).Reject)
}

func (s *userStore) decide(expectedOfferID string, fn decisionFunc) (*model.Negotiation, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	now, err := s.b.enter()
	if err != nil {
		return nil, err
	}
	if s.b.thread.Chat.Status.Terminal() {
		return nil, fmt.Errorf("%w: already decided", negotiation.ErrConflict)
	}
	if pending, ok := s.b.thread.PendingOffer(); expectedOfferID != "" && (!ok || pending.ID != expectedOfferID) {
		return nil, fmt.Errorf("%w: offer moved on", negotiation.ErrConflict)
	}
	upd, err := fn(&s.b.thread, s.userID, now)
	if err != nil {
		return nil, err
	}
	s.b.publish(upd, true)
	chat := s.b.thread.Chat
	return &chat, nil
}

func (s *userStore) Checkout(_ context.Context, _ string) (*model.CheckoutHandoff, error) {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()

	if _, err := s.b.enter(); err != nil {
		return nil, err
	}
	handoff, err := negotiation.Handoff(s.b.thread.Chat, s.userID, s.b.thread.Chat.UpdatedAt.Add(time.Minute))
	if err != nil {
		return nil, err
	}
	return &handoff, nil
}

// fakeBus delivers synchronously on the publishing goroutine.
type fakeBus struct {
	mu        sync.Mutex
	next      int
	messages  map[int]func(model.NegotiationMessage)
	statuses  map[int]func(model.StatusChange)
	joined    map[string]int
	joinError error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		messages: make(map[int]func(model.NegotiationMessage)),
		statuses: make(map[int]func(model.StatusChange)),
		joined:   make(map[string]int),
	}
}

func (b *fakeBus) JoinNegotiationRoom(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.joinError != nil {
		return b.joinError
	}
	b.joined[id]++
	return nil
}

func (b *fakeBus) LeaveNegotiationRoom(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.joined[id]--
	return nil
}

func (b *fakeBus) OnNegotiationMessage(_ string, fn func(model.NegotiationMessage)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.messages[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.messages, id)
	}
}

func (b *fakeBus) OnNegotiationStatus(_ string, fn func(model.StatusChange)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.statuses[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.statuses, id)
	}
}

func (b *fakeBus) deliverMessage(msg model.NegotiationMessage) {
	b.mu.Lock()
	handlers := make([]func(model.NegotiationMessage), 0, len(b.messages))
	for _, fn := range b.messages {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(msg)
	}
}

func (b *fakeBus) deliverStatus(change model.StatusChange) {
	b.mu.Lock()
	handlers := make([]func(model.StatusChange), 0, len(b.statuses))
	for _, fn := range b.statuses {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(change)
	}
}
