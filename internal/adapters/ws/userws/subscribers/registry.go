// Package subscribers forwards domain events from the bus to the hub.
package subscribers

import (
	"catalog-server/internal/adapters/ws/userws"
	"catalog-server/internal/domain"
	"catalog-server/internal/event"
)

type EventBus interface {
	Subscribe(name string, h event.Handler)
}

type Broadcaster interface {
	Broadcast(ev *domain.WsServerEvent)
}

var _ Broadcaster = (*userws.Hub)(nil)

func Register(bus EventBus, hub Broadcaster) {
	bus.Subscribe(domain.EventBookAssigned, NewBookAssigned(hub).Handle)
	bus.Subscribe(domain.EventBookDeassigned, NewBookDeassigned(hub).Handle)
	bus.Subscribe(domain.EventBookImported, NewBookImported(hub).Handle)
}
