package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

// Chat sends and pages direct messages between members and keeps each
// member's per-contact unread counters in step with read state.
type Chat struct {
	store    model.ConversationStore
	cipher   model.Cipher
	notifier model.Notifier
	validate *validator.Validate
	logger   *logger.Logger
	pageSize int
	now      func() time.Time
}

func NewChat(
	store model.ConversationStore,
	cipher model.Cipher,
	notifier model.Notifier,
	logger *logger.Logger,
	pageSize int,
) *Chat {
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}
	return &Chat{
		store:    store,
		cipher:   cipher,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// Send stores an encrypted message from sender to the member registered
// under params.ReceiverEmail, bumps the receiver's unread counter for the
// sender and pushes the message to the receiver if they are online.
func (s *Chat) Send(ctx context.Context, sender model.User, params model.SendParams) (model.MessageRecord, error) {
	if err := s.validate.Struct(params); err != nil {
		return model.MessageRecord{}, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	receiver, err := s.store.FindUserByEmail(ctx, params.ReceiverEmail)
	if errors.Is(err, model.ErrNotFound) {
		s.logger.Info("Chat service: receiver is not a member",
			"sender_id", sender.ID,
			"receiver_email", params.ReceiverEmail)
		return model.MessageRecord{}, model.ErrUnknownRecipient
	}
	if err != nil {
		s.logger.Error("Chat service: failed to resolve receiver",
			"sender_id", sender.ID,
			"error", err.Error())
		return model.MessageRecord{}, fmt.Errorf("%w: find receiver: %w", model.ErrStoreUnavailable, err)
	}

	body, err := s.cipher.Encrypt([]byte(params.Message))
	if err != nil {
		s.logger.Error("Chat service: failed to encrypt message",
			"sender_id", sender.ID,
			"error", err.Error())
		return model.MessageRecord{}, fmt.Errorf("failed to encrypt message: %w", err)
	}

	msg := model.Message{
		Sender:    sender.Participant(),
		Receiver:  receiver.Participant(),
		Body:      body,
		CreatedAt: s.now().UTC(),
	}

	msg.ID, err = s.store.InsertMessage(ctx, msg)
	if err != nil {
		s.logger.Error("Chat service: failed to insert message",
			"sender_id", sender.ID,
			"receiver_id", receiver.ID,
			"error", err.Error())
		return model.MessageRecord{}, fmt.Errorf("%w: insert message: %w", model.ErrStoreUnavailable, err)
	}

	if err := s.store.AdjustUnreadCounter(ctx, receiver.ID, sender.ID, 1); err != nil {
		s.logger.Error("Chat service: message stored but unread counter not incremented",
			"message_id", msg.ID,
			"owner_id", receiver.ID,
			"contact_id", sender.ID,
			"delta", 1,
			"error", err.Error())
		return model.MessageRecord{}, fmt.Errorf("%w: %w: message %s, increment unread counter: %w",
			model.ErrStoreUnavailable, model.ErrMessageStored, msg.ID, err)
	}

	record := model.MessageRecord{
		ID:        msg.ID,
		Message:   params.Message,
		Sender:    msg.Sender,
		Receiver:  msg.Receiver,
		IsRead:    false,
		CreatedAt: msg.CreatedAt,
	}

	s.notifier.Notify(ctx, record.Receiver, record)

	s.logger.Debug("Chat service: message sent",
		"message_id", record.ID,
		"sender_id", sender.ID,
		"receiver_id", receiver.ID)

	return record, nil
}

// Fetch returns one page of the conversation between caller and the member
// registered under params.CounterpartEmail, newest first. Messages on the
// page addressed to caller are marked read and the caller's unread counter
// for the counterpart drops by the number actually flipped. The returned
// records carry read state as it was before the call.
func (s *Chat) Fetch(ctx context.Context, caller model.User, params model.FetchParams) (model.Conversation, error) {
	if err := s.validate.Struct(params); err != nil {
		return model.Conversation{}, fmt.Errorf("%w: %w", model.ErrValidation, err)
	}

	counterpart, err := s.store.FindUserByEmail(ctx, params.CounterpartEmail)
	if errors.Is(err, model.ErrNotFound) {
		return model.Conversation{}, model.ErrUnknownRecipient
	}
	if err != nil {
		s.logger.Error("Chat service: failed to resolve counterpart",
			"user_id", caller.ID,
			"error", err.Error())
		return model.Conversation{}, fmt.Errorf("%w: find counterpart: %w", model.ErrStoreUnavailable, err)
	}

	messages, err := s.store.FindMessagesBetween(ctx, caller.ID, counterpart.ID, params.Page, s.pageSize)
	if err != nil {
		s.logger.Error("Chat service: failed to load messages",
			"user_id", caller.ID,
			"counterpart_id", counterpart.ID,
			"page", params.Page,
			"error", err.Error())
		return model.Conversation{}, fmt.Errorf("%w: find messages: %w", model.ErrStoreUnavailable, err)
	}

	records := lo.Map(messages, func(m model.Message, _ int) model.MessageRecord {
		return s.decryptRecord(m)
	})

	unread := lo.FilterMap(messages, func(m model.Message, _ int) (uuid.UUID, bool) {
		return m.ID, m.Receiver.ID == caller.ID && !m.IsRead
	})

	if len(unread) > 0 {
		if err := s.markRead(ctx, caller, counterpart, unread); err != nil {
			return model.Conversation{}, err
		}
	}

	user, err := s.store.FindUserByEmail(ctx, caller.Email)
	if err != nil {
		s.logger.Warn("Chat service: failed to reload caller, returning request snapshot",
			"user_id", caller.ID,
			"error", err.Error())
		user = caller
	}

	return model.Conversation{
		Messages: records,
		User:     user,
		Receiver: counterpart,
	}, nil
}

func (s *Chat) markRead(ctx context.Context, caller, counterpart model.User, ids []uuid.UUID) error {
	flipped, err := s.store.MarkMessagesRead(ctx, caller.ID, ids)
	if err != nil {
		s.logger.Error("Chat service: failed to mark messages read",
			"user_id", caller.ID,
			"count", len(ids),
			"error", err.Error())
		return fmt.Errorf("%w: mark messages read: %w", model.ErrStoreUnavailable, err)
	}
	if flipped == 0 {
		return nil
	}

	if err := s.store.AdjustUnreadCounter(ctx, caller.ID, counterpart.ID, -flipped); err != nil {
		s.logger.Error("Chat service: messages marked read but unread counter not decremented",
			"user_id", caller.ID,
			"counterpart_id", counterpart.ID,
			"flipped", flipped,
			"error", err.Error())
		return fmt.Errorf("%w: decrement unread counter: %w", model.ErrStoreUnavailable, err)
	}
	return nil
}

// decryptRecord never fails the page: an undecryptable body is returned
// empty and flagged so one bad row does not hide the rest of the history.
func (s *Chat) decryptRecord(m model.Message) model.MessageRecord {
	record := model.MessageRecord{
		ID:        m.ID,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}

	plaintext, err := s.cipher.Decrypt(m.Body)
	if err != nil {
		s.logger.Warn("Chat service: failed to decrypt message",
			"message_id", m.ID,
			"error", err.Error())
		record.Corrupt = true
		return record
	}

	record.Message = string(plaintext)
	return record
}
