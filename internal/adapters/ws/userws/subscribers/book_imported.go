package subscribers

import (
	"catalog-server/internal/domain"
)

type BookImported struct {
	hub Broadcaster
}

func NewBookImported(hub Broadcaster) *BookImported {
	return &BookImported{hub: hub}
}

func (s *BookImported) Handle(event any) {
	evt, ok := event.(domain.BookImported)
	if !ok {
		return
	}

	s.hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.WsChannelCatalog,
		Event:   domain.EventBookImported,
		Payload: evt,
	})
}
