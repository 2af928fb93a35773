package model

import (
	"context"
	"errors"
)

var (
	ErrConnectionClosed = errors.New("live connection closed")
	ErrPushQueueFull    = errors.New("live push queue full")
)

// Live event names.
const (
	EventConnected   = "connected"
	EventSendMessage = "sendMessage"
	EventError       = "error"
)

// Event is a server-to-client live notification.
type Event struct {
	Name    string
	Title   string
	Message *MessageRecord
	Email   string
	Error   string
}

// LiveConnection is a handle on a connected client. Push must not block.
type LiveConnection interface {
	Push(event Event) error
}

// PresenceRegistry maps a user's email to their active live connection.
type PresenceRegistry interface {
	Set(email string, conn LiveConnection)
	Get(email string) (LiveConnection, bool)
	Remove(email string, conn LiveConnection)
}

// Notifier delivers a sent message to its recipient if they are online.
// Failures are absorbed; the message is already durable.
type Notifier interface {
	Notify(ctx context.Context, recipient Participant, record MessageRecord)
}
