package subscribers

import (
	"catalog-server/internal/domain"
)

type BookAssigned struct {
	hub Broadcaster
}

func NewBookAssigned(hub Broadcaster) *BookAssigned {
	return &BookAssigned{hub: hub}
}

func (s *BookAssigned) Handle(event any) {
	evt, ok := event.(domain.BookAssigned)
	if !ok {
		return
	}

	s.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.UserChannel(evt.UserID),
		Event:   domain.EventBookAssigned,
		Payload: evt,
	})

	s.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.WsChannelCatalog,
		Event:   domain.EventBookAssigned,
		Payload: evt,
	})
}

type BookDeassigned struct {
	hub Broadcaster
}

func NewBookDeassigned(hub Broadcaster) *BookDeassigned {
	return &BookDeassigned{hub: hub}
}

func (s *BookDeassigned) Handle(event any) {
	evt, ok := event.(domain.BookDeassigned)
	if !ok {
		return
	}

	s.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.UserChannel(evt.UserID),
		Event:   domain.EventBookDeassigned,
		Payload: evt,
	})

	s.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.WsChannelCatalog,
		Event:   domain.EventBookDeassigned,
		Payload: evt,
	})
}
