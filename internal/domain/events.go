package domain

import "fmt"

const (
	EventBookAssigned   = "book_assigned"
	EventBookDeassigned = "book_deassigned"
	EventBookImported   = "book_imported"
)

const (
	WsChannelCatalog      = "catalog"
	WsChannelUserTemplate = "user:%d"
)

type BookAssigned struct {
	UserID int64 `json:"user_id"`
	BookID int64 `json:"book_id"`
}

type BookDeassigned struct {
	UserID int64 `json:"user_id"`
	BookID int64 `json:"book_id"`
}

type BookImported struct {
	Book *Book `json:"book"`
}

const (
	WsSubscribe   = "subscribe"
	WsUnsubscribe = "unsubscribe"
)

type WsClientMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}

type WsServerEvent struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func UserChannel(userID int64) string {
	return fmt.Sprintf(WsChannelUserTemplate, userID)
}
