package model

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultPageSize is the number of messages returned per conversation page.
const DefaultPageSize = 15

// MaxPage is the largest page number accepted from clients.
const MaxPage = 1 << 20

// PageOffset returns how many messages precede page. ok is false when the
// offset is not representable, in which case the page is past any history.
func PageOffset(page, pageSize int) (offset int, ok bool) {
	if page < 0 || pageSize <= 0 || page > math.MaxInt/pageSize {
		return 0, false
	}
	return page * pageSize, true
}

// ConversationStore defines persistence operations over messages and
// per-user contact counters.
type ConversationStore interface {
	FindUserByEmail(ctx context.Context, email string) (User, error)
	InsertMessage(ctx context.Context, msg Message) (uuid.UUID, error)
	// FindMessagesBetween returns one page of the conversation between userA
	// and userB in either direction, newest first.
	FindMessagesBetween(ctx context.Context, userA, userB uuid.UUID, page, pageSize int) ([]Message, error)
	// MarkMessagesRead flips is_read on the given messages addressed to
	// receiverID and returns how many were actually unread before the call.
	MarkMessagesRead(ctx context.Context, receiverID uuid.UUID, ids []uuid.UUID) (int, error)
	// AdjustUnreadCounter atomically adds delta to ownerID's contact entry for
	// contactID. A missing entry is not an error.
	AdjustUnreadCounter(ctx context.Context, ownerID, contactID uuid.UUID, delta int) error
}

// Cipher encrypts message bodies at rest.
type Cipher interface {
	Encrypt(plaintext []byte) (EncryptedBody, error)
	Decrypt(body EncryptedBody) ([]byte, error)
}

// Participant is a copy of a user's identifying fields taken at send time.
type Participant struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// EncryptedBody is a self-contained ciphertext: the IV travels with it.
type EncryptedBody struct {
	IV         []byte
	CipherText []byte
}

// Message represents a stored direct message.
type Message struct {
	ID        uuid.UUID
	Seq       int64
	Sender    Participant
	Receiver  Participant
	Body      EncryptedBody
	IsRead    bool
	CreatedAt time.Time
}

// MessageRecord is a message with its body decrypted, ready for display.
type MessageRecord struct {
	ID        uuid.UUID
	Message   string
	Sender    Participant
	Receiver  Participant
	IsRead    bool
	CreatedAt time.Time
	// Corrupt is set when the stored body could not be decrypted.
	Corrupt bool
}

// SendParams contains the fields of a send request.
type SendParams struct {
	ReceiverEmail string `validate:"required"`
	Message       string `validate:"required"`
}

// FetchParams contains the fields of a history request.
type FetchParams struct {
	CounterpartEmail string `validate:"required"`
	Page             int    `validate:"gte=0"`
}

// Conversation is one fetched page together with both participants.
type Conversation struct {
	Messages []MessageRecord
	User     User
	Receiver User
}
