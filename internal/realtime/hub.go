package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	logger_lib "github.com/s21platform/logger-lib"

	"github.com/agrilink/negotiation-service/internal/model"
)

type membership struct {
	client *Client
	room   string
}

type delivery struct {
	room    string
	payload []byte
}

type reply struct {
	client  *Client
	payload []byte
}

// Hub owns room membership for every WebSocket connection of this instance.
// All maps are touched only by the Run goroutine.
type Hub struct {
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	join       chan membership
	leave      chan membership
	broadcast  chan delivery
	direct     chan reply
	done       chan struct{}

	logger logger_lib.LoggerInterface
}

func NewHub(logger logger_lib.LoggerInterface) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan membership),
		leave:      make(chan membership),
		broadcast:  make(chan delivery),
		direct:     make(chan reply),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves hub requests until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return nil

		case client := <-h.register:
			h.clients[client] = struct{}{}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case m := <-h.join:
			if _, ok := h.clients[m.client]; !ok {
				continue
			}
			room, ok := h.rooms[m.room]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[m.room] = room
			}
			room[m.client] = struct{}{}
			m.client.rooms[m.room] = struct{}{}

		case m := <-h.leave:
			h.removeFromRoom(m.client, m.room)

		case d := <-h.broadcast:
			for client := range h.rooms[d.room] {
				select {
				case client.send <- d.payload:
				default:
					h.logger.Warn(fmt.Sprintf("dropping slow client of user %s", client.userID))
					h.drop(client)
				}
			}

		case r := <-h.direct:
			if _, ok := h.clients[r.client]; !ok {
				continue
			}
			select {
			case r.client.send <- r.payload:
			default:
			}
		}
	}
}

// Dispatch delivers payload to every local member of room.
func (h *Hub) Dispatch(ctx context.Context, room string, payload []byte) {
	select {
	case h.broadcast <- delivery{room: room, payload: payload}:
	case <-ctx.Done():
	case <-h.done:
	}
}

// DispatchEvent encodes event and delivers it to the event's negotiation room.
func (h *Hub) DispatchEvent(ctx context.Context, event model.RealtimeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	h.Dispatch(ctx, model.NegotiationChannel(event.ChatID), payload)
	return nil
}

func (h *Hub) Register(client *Client) {
	h.send(h.register, client)
}

func (h *Hub) Unregister(client *Client) {
	h.send(h.unregister, client)
}

func (h *Hub) Join(client *Client, room string) {
	select {
	case h.join <- membership{client: client, room: room}:
	case <-h.done:
	}
}

func (h *Hub) Leave(client *Client, room string) {
	select {
	case h.leave <- membership{client: client, room: room}:
	case <-h.done:
	}
}

func (h *Hub) replyTo(client *Client, event model.RealtimeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case h.direct <- reply{client: client, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) send(ch chan *Client, client *Client) {
	select {
	case ch <- client:
	case <-h.done:
	}
}

func (h *Hub) removeFromRoom(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	delete(client.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) drop(client *Client) {
	for room := range client.rooms {
		h.removeFromRoom(client, room)
	}
	delete(h.clients, client)
	close(client.send)
}
