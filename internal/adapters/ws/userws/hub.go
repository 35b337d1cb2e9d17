// Package userws pushes catalog events to authenticated websocket clients.
package userws

import (
	"context"

	jsoniter "github.com/json-iterator/go"

	"catalog-server/internal/domain"
	"catalog-server/internal/logger"
)

type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	clients  map[*Client]bool
	channels map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *Subscription
	unsubscribe chan *Subscription
	events      chan *domain.WsServerEvent

	log logger.Logger
}

type Subscription struct {
	client  *Client
	channel string
}

func NewHub(parent context.Context, log logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)

	return &Hub{
		ctx:    ctx,
		cancel: cancel,

		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),

		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		subscribe:   make(chan *Subscription, 64),
		unsubscribe: make(chan *Subscription, 64),
		events:      make(chan *domain.WsServerEvent, 256),

		log: log,
	}
}

// Run owns every map of the hub; it returns when the parent context is
// cancelled or Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.log.Info("ws: hub shutting down...")
			for client := range h.clients {
				close(client.send)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			for _, channel := range c.initial {
				h.join(c, channel)
			}
			h.log.Debug("ws: client registered", "id", c.ID, "user_id", c.principal.UserID)

		case c := <-h.unregister:
			h.remove(c)

		case sub := <-h.subscribe:
			if h.clients[sub.client] {
				h.join(sub.client, sub.channel)
			}

		case sub := <-h.unsubscribe:
			h.leave(sub.client, sub.channel)

		case ev := <-h.events:
			h.handleEvent(ev)
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

// Register hands c to the hub. It reports false when the hub stopped
// before accepting c.
func (h *Hub) Register(c *Client) bool {
	return offer(h.ctx, h.register, c)
}

func (h *Hub) Unregister(c *Client) {
	offer(h.ctx, h.unregister, c)
}

func (h *Hub) Subscribe(c *Client, channel string) {
	offer(h.ctx, h.subscribe, &Subscription{client: c, channel: channel})
}

func (h *Hub) Unsubscribe(c *Client, channel string) {
	offer(h.ctx, h.unsubscribe, &Subscription{client: c, channel: channel})
}

// offer blocks until ch accepts v or ctx is done, so callers never hang on
// a hub that is no longer running.
func offer[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) Broadcast(ev *domain.WsServerEvent) {
	select {
	case h.events <- ev:
	case <-h.ctx.Done():
	default:
		h.log.Warn("ws: broadcast buffer full, dropping event", "event", ev.Event)
	}
}

func (h *Hub) remove(c *Client) {
	if !h.clients[c] {
		return
	}

	delete(h.clients, c)
	close(c.send)
	h.log.Debug("ws: client unregistered", "id", c.ID)

	for chID := range h.channels {
		h.leave(c, chID)
	}
}

func (h *Hub) join(c *Client, channel string) {
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][c] = true
}

func (h *Hub) leave(c *Client, channel string) {
	subs, ok := h.channels[channel]
	if !ok {
		return
	}
	delete(subs, c)
	if len(subs) == 0 {
		delete(h.channels, channel)
	}
}

func (h *Hub) handleEvent(ev *domain.WsServerEvent) {
	message, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(ev)
	if err != nil {
		h.log.Error("ws: failed to marshal server event", "error", err)
		return
	}

	targetClients := h.clients

	if ev.Channel != "" {
		subs, ok := h.channels[ev.Channel]
		if !ok {
			h.log.Debug("ws: event channel has no subscribers", "channel", ev.Channel)
			return
		}
		targetClients = subs
	}

	var slow []*Client
	for client := range targetClients {
		select {
		case client.send <- message:
		default:
			slow = append(slow, client)
		}
	}

	for _, client := range slow {
		h.log.Warn("ws: client buffer full, dropping client", "id", client.ID)
		h.remove(client)
	}
}
