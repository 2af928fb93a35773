package handler

import (
	"github.com/samber/lo"

	"github.com/dtroode/chatstation-server/internal/model"
)

type participantDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type messageDTO struct {
	ID        string         `json:"_id"`
	Message   string         `json:"message"`
	Sender    participantDTO `json:"sender"`
	Receiver  participantDTO `json:"receiver"`
	IsRead    bool           `json:"isRead"`
	CreatedAt int64          `json:"createdAt"`
	Corrupt   bool           `json:"corrupt,omitempty"`
}

type contactDTO struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	UnreadMessages int    `json:"unreadMessages"`
}

type userDTO struct {
	ID       string       `json:"_id"`
	Name     string       `json:"name"`
	Email    string       `json:"email"`
	Contacts []contactDTO `json:"contacts"`
}

type sendResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	MessageObject messageDTO `json:"messageObject"`
}

type fetchResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message"`
	Messages []messageDTO   `json:"messages"`
	User     userDTO        `json:"user"`
	Receiver participantDTO `json:"receiver"`
}

type userResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	User    userDTO `json:"user"`
}

func toParticipantDTO(p model.Participant) participantDTO {
	return participantDTO{ID: p.ID.String(), Name: p.Name, Email: p.Email}
}

// toMessageDTO renders createdAt as epoch milliseconds.
func toMessageDTO(r model.MessageRecord) messageDTO {
	return messageDTO{
		ID:        r.ID.String(),
		Message:   r.Message,
		Sender:    toParticipantDTO(r.Sender),
		Receiver:  toParticipantDTO(r.Receiver),
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt.UnixMilli(),
		Corrupt:   r.Corrupt,
	}
}

func toUserDTO(u model.User) userDTO {
	return userDTO{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Contacts: lo.Map(u.Contacts, func(c model.ContactEntry, _ int) contactDTO {
			return contactDTO{
				ID:             c.ContactUserID.String(),
				Name:           c.Name,
				Email:          c.Email,
				UnreadMessages: c.UnreadMessages,
			}
		}),
	}
}
