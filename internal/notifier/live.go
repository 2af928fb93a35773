package notifier

import (
	"context"

	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

var _ model.Notifier = (*Live)(nil)

// NewMessageTitle is the title attached to sendMessage push events.
const NewMessageTitle = "New message has been received."

// Live pushes freshly sent messages to the recipient's live connection.
// Delivery is attempted once; an absent or saturated connection is skipped
// because the recipient will see the message on the next fetch.
type Live struct {
	registry model.PresenceRegistry
	logger   *logger.Logger
}

func NewLive(registry model.PresenceRegistry, logger *logger.Logger) *Live {
	return &Live{registry: registry, logger: logger}
}

// Notify never blocks and never reports failure to the caller.
func (n *Live) Notify(_ context.Context, recipient model.Participant, record model.MessageRecord) {
	conn, ok := n.registry.Get(recipient.Email)
	if !ok {
		n.logger.Debug("recipient is offline, skipping live push", "recipient_id", recipient.ID)
		return
	}

	err := conn.Push(model.Event{
		Name:    model.EventSendMessage,
		Title:   NewMessageTitle,
		Message: &record,
	})
	if err != nil {
		n.logger.Warn("live push failed",
			"recipient_id", recipient.ID,
			"message_id", record.ID,
			"error", err)
	}
}
