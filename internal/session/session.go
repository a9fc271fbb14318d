// Package session mirrors one open negotiation for one participant. It checks
// every action against the mirrored state before calling the store and merges
// store responses and realtime events into a deduplicated message log.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

const backgroundRefreshTimeout = 10 * time.Second

// localMessageID names the message a dry run would append. It never leaves the session.
const localMessageID = "local"

var (
	ErrClosed    = errors.New("session: closed")
	ErrNotLoaded = errors.New("session: negotiation not loaded")
)

// ActionError is returned by a failed action. Input holds what the user
// typed so the caller can offer it again.
type ActionError struct {
	Op    string
	Input string
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// View is a consistent snapshot of the mirrored negotiation.
type View struct {
	Loaded   bool
	Chat     model.Negotiation
	Messages model.MessageList
	Actions  negotiation.Affordances
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOnChange registers fn to receive a snapshot after every change of the
// mirror. fn runs without the session lock held.
func WithOnChange(fn func(View)) Option {
	return func(s *Session) { s.onChange = fn }
}

type Session struct {
	chatID   string
	viewerID string
	store    Store
	bus      Bus
	logger   logger_lib.LoggerInterface
	now      func() time.Time
	onChange func(View)

	mu     sync.Mutex
	chat   *model.Negotiation
	log    *negotiation.Log
	closed bool
	unsubs []func()
}

func New(chatID, viewerID string, store Store, bus Bus, logger logger_lib.LoggerInterface, opts ...Option) *Session {
	s := &Session{
		chatID:   chatID,
		viewerID: viewerID,
		store:    store,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
		log:      negotiation.NewLog(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open subscribes to the negotiation room and loads the negotiation. A failed
// join is logged and repaired by later refreshes; a failed load is returned and
// leaves the view empty.
func (s *Session) Open(ctx context.Context) error {
	unsubs := []func(){
		s.bus.OnNegotiationMessage(s.chatID, s.handleMessage),
		s.bus.OnNegotiationStatus(s.chatID, s.handleStatus),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		for _, unsub := range unsubs {
			unsub()
		}
		return ErrClosed
	}
	s.unsubs = append(s.unsubs, unsubs...)
	s.mu.Unlock()

	if err := s.bus.JoinNegotiationRoom(ctx, s.chatID); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to join negotiation room %s: %v", s.chatID, err))
	}

	return s.Refresh(ctx)
}

// Refresh refetches the negotiation and its messages and merges them into the mirror.
func (s *Session) Refresh(ctx context.Context) error {
	chat, err := s.store.GetByID(ctx, s.chatID)
	if err != nil {
		return fmt.Errorf("failed to load negotiation %s: %w", s.chatID, err)
	}

	messages, err := s.store.GetMessages(ctx, s.chatID)
	if err != nil {
		return fmt.Errorf("failed to load messages of %s: %w", s.chatID, err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.applyChatLocked(*chat)
	s.log.Merge(messages...)
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// Close leaves the room and detaches the session. Responses and events that
// arrive afterwards are dropped.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}

	return s.bus.LeaveNegotiationRoom(ctx, s.chatID)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) SendText(ctx context.Context, text string) error {
	const op = "send text"

	if err := s.dryRun(op, text, func(t *negotiation.Thread, now time.Time) error {
		_, err := t.SendText(s.viewerID, text, localMessageID, now)
		return err
	}); err != nil {
		return err
	}

	msg, err := s.store.SendMessage(ctx, s.chatID, text)
	if err != nil {
		return s.failed(ctx, op, text, err)
	}

	s.commit(func() { s.log.Merge(*msg) })
	return nil
}

// ShareContact sends the viewer's contact details as a text message.
func (s *Session) ShareContact(ctx context.Context, name, phone string) error {
	text, err := negotiation.ContactShareText(name, phone)
	if err != nil {
		return &ActionError{Op: "share contact", Input: phone, Err: err}
	}
	return s.SendText(ctx, text)
}

func (s *Session) SendOffer(ctx context.Context, price float64) error {
	const op = "send offer"
	input := fmt.Sprintf("%g", price)

	if err := s.dryRun(op, input, func(t *negotiation.Thread, now time.Time) error {
		_, err := t.SendOffer(s.viewerID, price, localMessageID, now)
		return err
	}); err != nil {
		return err
	}

	msg, err := s.store.Counter(ctx, s.chatID, price)
	if err != nil {
		return s.failed(ctx, op, input, err)
	}

	s.commit(func() {
		s.log.Merge(*msg)
		if s.chat != nil {
			next := *s.chat
			next.CurrentOffer = msg.Value()
			next.Status = model.StatusCounter
			next.UpdatedAt = msg.CreatedAt
			s.applyChatLocked(next)
		}
	})
	return nil
}

func (s *Session) Accept(ctx context.Context) error {
	return s.decide(ctx, "accept", (*negotiation.Thread).Accept, s.store.Accept)
}

func (s *Session) Reject(ctx context.Context) error {
	return s.decide(ctx, "reject", (*negotiation.Thread).Reject, s.store.Reject)
}

// Checkout hands the accepted negotiation to the cart. Expiry is checked
// locally first; the store checks it again.
func (s *Session) Checkout(ctx context.Context) (*model.CheckoutHandoff, error) {
	const op = "checkout"

	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return nil, &ActionError{Op: op, Err: err}
	}
	_, err := negotiation.Handoff(*s.chat, s.viewerID, s.now())
	s.mu.Unlock()
	if err != nil {
		return nil, &ActionError{Op: op, Err: err}
	}

	handoff, err := s.store.Checkout(ctx, s.chatID)
	if err != nil {
		return nil, s.failed(ctx, op, "", err)
	}

	return handoff, nil
}

type decisionFunc func(t *negotiation.Thread, actorID string, now time.Time) (negotiation.Update, error)

type storeDecision func(ctx context.Context, chatID, expectedOfferID string) (*model.Negotiation, error)

func (s *Session) decide(ctx context.Context, op string, local decisionFunc, remote storeDecision) error {
	var offerID string
	if err := s.dryRun(op, "", func(t *negotiation.Thread, now time.Time) error {
		pending, ok := t.PendingOffer()
		if ok {
			offerID = pending.ID
		}
		_, err := local(t, s.viewerID, now)
		return err
	}); err != nil {
		return err
	}

	chat, err := remote(ctx, s.chatID, offerID)
	if err != nil {
		return s.failed(ctx, op, "", err)
	}

	s.commit(func() { s.applyChatLocked(*chat) })
	return nil
}

// dryRun applies fn to a copy of the mirror so invalid actions fail before any network call.
func (s *Session) dryRun(op, input string, fn func(t *negotiation.Thread, now time.Time) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usableLocked(); err != nil {
		return &ActionError{Op: op, Input: input, Err: err}
	}

	thread := negotiation.NewThread(*s.chat, s.log.Messages())
	if err := fn(&thread, s.now()); err != nil {
		return &ActionError{Op: op, Input: input, Err: err}
	}

	return nil
}

// failed wraps a store error. A conflict means the mirror is stale, so it is
// refetched before returning.
func (s *Session) failed(ctx context.Context, op, input string, err error) error {
	if errors.Is(err, negotiation.ErrConflict) {
		if rerr := s.Refresh(ctx); rerr != nil {
			s.logger.Warn(fmt.Sprintf("failed to refresh %s after conflict: %v", s.chatID, rerr))
		}
	}
	return &ActionError{Op: op, Input: input, Err: err}
}

// commit runs fn under the lock unless the session was closed meanwhile.
func (s *Session) commit(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn()
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
}

func (s *Session) handleMessage(msg model.NegotiationMessage) {
	if msg.ChatID != s.chatID {
		return
	}

	s.mu.Lock()
	if s.closed || s.log.Merge(msg) == 0 {
		s.mu.Unlock()
		return
	}
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
}

// handleStatus applies a pushed status unless it is older than the mirror.
// When the pushed offer is not the latest offer in the log a message was
// missed, and the session refetches in the background.
func (s *Session) handleStatus(change model.StatusChange) {
	if change.ChatID != s.chatID {
		return
	}
	if !change.Status.Valid() {
		s.logger.Warn(fmt.Sprintf("ignoring unknown status %q for %s", change.Status, s.chatID))
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.chat == nil {
		s.mu.Unlock()
		go s.refreshInBackground()
		return
	}

	next := *s.chat
	next.Status = change.Status
	next.UpdatedAt = change.UpdatedAt
	if change.Offer != nil {
		next.CurrentOffer = *change.Offer
	}
	applied := s.applyChatLocked(next)

	gap := false
	if applied && change.Offer != nil {
		latest, ok := negotiation.LatestOffer(s.log.Resolved(*s.chat))
		gap = !ok || latest.Value() != *change.Offer
	}
	view := s.viewLocked()
	s.mu.Unlock()

	if applied {
		s.notify(view)
	}
	if gap {
		go s.refreshInBackground()
	}
}

func (s *Session) refreshInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
	defer cancel()

	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn(fmt.Sprintf("background refresh of %s failed: %v", s.chatID, err))
	}
}

// applyChatLocked replaces the mirrored negotiation unless next is older.
// Once decided, a negotiation never goes back to a negotiable state.
func (s *Session) applyChatLocked(next model.Negotiation) bool {
	if s.chat != nil {
		if next.UpdatedAt.Before(s.chat.UpdatedAt) {
			return false
		}
		if s.chat.Status.Terminal() && next.Status != s.chat.Status {
			return false
		}
	}
	s.chat = &next
	return true
}

func (s *Session) usableLocked() error {
	if s.closed {
		return ErrClosed
	}
	if s.chat == nil {
		return ErrNotLoaded
	}
	return nil
}

func (s *Session) viewLocked() View {
	if s.chat == nil {
		return View{}
	}

	resolved := s.log.Resolved(*s.chat)
	return View{
		Loaded:   true,
		Chat:     *s.chat,
		Messages: resolved,
		Actions:  negotiation.Actions(*s.chat, resolved, s.viewerID, s.now()),
	}
}

func (s *Session) notify(view View) {
	if s.onChange != nil {
		s.onChange(view)
	}
}
