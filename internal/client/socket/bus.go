// Package socket is the WebSocket side of a negotiation client. Bus joins
// negotiation rooms on the service's /ws endpoint and hands pushed events to
// per-room handlers.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/infra"
	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
	"github.com/agrilink/negotiation-service/internal/realtime"
)

const writeWait = 10 * time.Second

// TokenSource issues room subscribe tokens. The HTTP store client is one.
type TokenSource interface {
	SubscribeToken(ctx context.Context, chatID string) (string, error)
}

type Config struct {
	// URL is the ws:// or wss:// address of the /ws endpoint.
	URL string
	// ConnectToken authenticates the socket. When empty, UserID is sent in the
	// gateway header instead.
	ConnectToken string
	UserID       string
}

type Bus struct {
	conn   *websocket.Conn
	tokens TokenSource
	logger logger_lib.LoggerInterface

	writeMu sync.Mutex

	mu       sync.Mutex
	next     int
	messages map[string]map[int]func(model.NegotiationMessage)
	statuses map[string]map[int]func(model.StatusChange)

	done chan struct{}
}

func Dial(ctx context.Context, cfg Config, tokens TokenSource, logger logger_lib.LoggerInterface) (*Bus, error) {
	header := http.Header{}
	if cfg.ConnectToken != "" {
		header.Set("Authorization", "Bearer "+cfg.ConnectToken)
	} else if cfg.UserID != "" {
		header.Set(infra.UserHeader, cfg.UserID)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to dial %s: %v", negotiation.ErrNetworkFailure, cfg.URL, err)
	}

	b := &Bus{
		conn:     conn,
		tokens:   tokens,
		logger:   logger,
		messages: make(map[string]map[int]func(model.NegotiationMessage)),
		statuses: make(map[string]map[int]func(model.StatusChange)),
		done:     make(chan struct{}),
	}
	go b.readLoop()

	return b, nil
}

// Done is closed when the socket stops delivering events.
func (b *Bus) Done() <-chan struct{} {
	return b.done
}

func (b *Bus) Close() error {
	b.writeMu.Lock()
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	b.writeMu.Unlock()

	err := b.conn.Close()
	<-b.done
	return err
}

func (b *Bus) JoinNegotiationRoom(ctx context.Context, chatID string) error {
	token, err := b.tokens.SubscribeToken(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to get subscribe token for %s: %w", chatID, err)
	}
	return b.write(realtime.Frame{Action: realtime.ActionJoin, ChatID: chatID, Token: token})
}

func (b *Bus) LeaveNegotiationRoom(_ context.Context, chatID string) error {
	return b.write(realtime.Frame{Action: realtime.ActionLeave, ChatID: chatID})
}

func (b *Bus) OnNegotiationMessage(chatID string, fn func(model.NegotiationMessage)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextIDLocked()
	if b.messages[chatID] == nil {
		b.messages[chatID] = make(map[int]func(model.NegotiationMessage))
	}
	b.messages[chatID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.messages[chatID], id)
	}
}

func (b *Bus) OnNegotiationStatus(chatID string, fn func(model.StatusChange)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextIDLocked()
	if b.statuses[chatID] == nil {
		b.statuses[chatID] = make(map[int]func(model.StatusChange))
	}
	b.statuses[chatID][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.statuses[chatID], id)
	}
}

func (b *Bus) nextIDLocked() int {
	b.next++
	return b.next
}

func (b *Bus) write(frame realtime.Frame) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	_ = b.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := b.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: failed to send %s frame: %v", negotiation.ErrNetworkFailure, frame.Action, err)
	}
	return nil
}

func (b *Bus) readLoop() {
	defer close(b.done)

	for {
		var event model.RealtimeEvent
		if err := b.conn.ReadJSON(&event); err != nil {
			if !errors.Is(err, net.ErrClosed) && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Warn(fmt.Sprintf("negotiation socket closed: %v", err))
			}
			return
		}
		b.dispatch(event)
	}
}

// dispatch runs handlers on the read goroutine, outside the lock.
func (b *Bus) dispatch(event model.RealtimeEvent) {
	switch event.Kind {
	case model.MessageEventKind:
		if event.Message == nil {
			return
		}
		b.mu.Lock()
		handlers := make([]func(model.NegotiationMessage), 0, len(b.messages[event.ChatID]))
		for _, fn := range b.messages[event.ChatID] {
			handlers = append(handlers, fn)
		}
		b.mu.Unlock()

		for _, fn := range handlers {
			fn(*event.Message)
		}
	case model.StatusEventKind:
		if event.Status == nil {
			return
		}
		b.mu.Lock()
		handlers := make([]func(model.StatusChange), 0, len(b.statuses[event.ChatID]))
		for _, fn := range b.statuses[event.ChatID] {
			handlers = append(handlers, fn)
		}
		b.mu.Unlock()

		for _, fn := range handlers {
			fn(*event.Status)
		}
	case model.ErrorEventKind:
		b.logger.Warn(fmt.Sprintf("negotiation socket error for %s: %s", event.ChatID, event.Error))
	default:
		b.logger.Warn(fmt.Sprintf("ignoring unknown event kind %q", event.Kind))
	}
}
