package badger

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dtroode/chatstation-server/internal/model"
)

// Timestamps are kept as UnixNano so ordering survives the round trip.

type contactDoc struct {
	ContactID uuid.UUID `cbor:"contact_id"`
	Email     string    `cbor:"email"`
	Name      string    `cbor:"name"`
	Unread    int       `cbor:"unread"`
}

type userDoc struct {
	ID        uuid.UUID    `cbor:"id"`
	Email     string       `cbor:"email"`
	Name      string       `cbor:"name"`
	CreatedAt int64        `cbor:"created_at"`
	Contacts  []contactDoc `cbor:"contacts"`
}

type participantDoc struct {
	ID    uuid.UUID `cbor:"id"`
	Name  string    `cbor:"name"`
	Email string    `cbor:"email"`
}

type messageDoc struct {
	ID         uuid.UUID      `cbor:"id"`
	Seq        int64          `cbor:"seq"`
	Sender     participantDoc `cbor:"sender"`
	Receiver   participantDoc `cbor:"receiver"`
	IV         []byte         `cbor:"iv"`
	CipherText []byte         `cbor:"cipher_text"`
	IsRead     bool           `cbor:"is_read"`
	CreatedAt  int64          `cbor:"created_at"`
}

func fromUser(u model.User) userDoc {
	return userDoc{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.UnixNano(),
		Contacts: lo.Map(u.Contacts, func(c model.ContactEntry, _ int) contactDoc {
			return contactDoc{ContactID: c.ContactUserID, Email: c.Email, Name: c.Name, Unread: c.UnreadMessages}
		}),
	}
}

func (d userDoc) toUser() model.User {
	return model.User{
		ID:        d.ID,
		Email:     d.Email,
		Name:      d.Name,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
		Contacts: lo.Map(d.Contacts, func(c contactDoc, _ int) model.ContactEntry {
			return model.ContactEntry{ContactUserID: c.ContactID, Email: c.Email, Name: c.Name, UnreadMessages: c.Unread}
		}),
	}
}

func fromParticipant(p model.Participant) participantDoc {
	return participantDoc{ID: p.ID, Name: p.Name, Email: p.Email}
}

func (d participantDoc) toParticipant() model.Participant {
	return model.Participant{ID: d.ID, Name: d.Name, Email: d.Email}
}

func fromMessage(m model.Message) messageDoc {
	return messageDoc{
		ID:         m.ID,
		Seq:        m.Seq,
		Sender:     fromParticipant(m.Sender),
		Receiver:   fromParticipant(m.Receiver),
		IV:         m.Body.IV,
		CipherText: m.Body.CipherText,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt.UnixNano(),
	}
}

func (d messageDoc) toMessage() model.Message {
	return model.Message{
		ID:        d.ID,
		Seq:       d.Seq,
		Sender:    d.Sender.toParticipant(),
		Receiver:  d.Receiver.toParticipant(),
		Body:      model.EncryptedBody{IV: d.IV, CipherText: d.CipherText},
		IsRead:    d.IsRead,
		CreatedAt: time.Unix(0, d.CreatedAt).UTC(),
	}
}
