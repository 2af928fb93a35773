package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/lo"

	"github.com/dtroode/chatstation-server/internal/api/http/respond"
	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

// ChatService sends and pages direct messages.
type ChatService interface {
	Send(ctx context.Context, sender model.User, params model.SendParams) (model.MessageRecord, error)
	Fetch(ctx context.Context, caller model.User, params model.FetchParams) (model.Conversation, error)
}

// Chat serves the /chat routes.
type Chat struct {
	service        ChatService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewChat(service ChatService, contextManager model.ContextManager, logger *logger.Logger) *Chat {
	return &Chat{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Send handles POST /chat/send with fields email and message.
func (h *Chat) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	record, err := h.service.Send(r.Context(), user, model.SendParams{
		ReceiverEmail: req.Email,
		Message:       req.Message,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, sendResponse{
		Status:        respond.StatusSuccess,
		Message:       "Message has been sent.",
		MessageObject: toMessageDTO(record),
	})
}

// Fetch handles POST /chat/fetch with fields email and optional page.
func (h *Chat) Fetch(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Fetch(r.Context(), user, model.FetchParams{
		CounterpartEmail: req.Email,
		Page:             req.Page,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, fetchResponse{
		Status:   respond.StatusSuccess,
		Message:  "Messages has been fetched.",
		Messages: lo.Map(conv.Messages, func(m model.MessageRecord, _ int) messageDTO { return toMessageDTO(m) }),
		User:     toUserDTO(conv.User),
		Receiver: toParticipantDTO(conv.Receiver.Participant()),
	})
}

func (h *Chat) decode(w http.ResponseWriter, r *http.Request) (chatRequest, bool) {
	req, err := decodeChatRequest(w, r)
	if errors.Is(err, errInvalidPage) {
		respond.Error(w, http.StatusOK, msgInvalidPage)
		return chatRequest{}, false
	}
	if err != nil {
		h.logger.Debug("rejected malformed chat request", "path", r.URL.Path, "error", err.Error())
		respond.Error(w, http.StatusBadRequest, "Invalid request body.")
		return chatRequest{}, false
	}
	return req, true
}
