package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines read access to user profiles owned by the identity provider.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// User represents a registered member together with their contact list.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Contacts  []ContactEntry
	CreatedAt time.Time
}

// ContactEntry tracks a known counterpart and the number of messages from
// that counterpart the owner has not read yet. A fetch racing a send may
// briefly take UnreadMessages below zero; it settles once the send completes.
type ContactEntry struct {
	ContactUserID  uuid.UUID
	Email          string
	Name           string
	UnreadMessages int
}

// Participant returns the snapshot of identifying fields stored on messages.
func (u User) Participant() Participant {
	return Participant{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Contact returns the owner's entry for contactID, if present.
func (u User) Contact(contactID uuid.UUID) (ContactEntry, bool) {
	for _, c := range u.Contacts {
		if c.ContactUserID == contactID {
			return c, true
		}
	}
	return ContactEntry{}, false
}
