package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/chatstation-server/internal/api/http/context"
	"github.com/dtroode/chatstation-server/internal/model"
	"github.com/dtroode/chatstation-server/internal/testutil"
)

type chatServiceMock struct {
	mock.Mock
}

func (m *chatServiceMock) Send(ctx context.Context, sender model.User, params model.SendParams) (model.MessageRecord, error) {
	args := m.Called(ctx, sender, params)
	return args.Get(0).(model.MessageRecord), args.Error(1)
}

func (m *chatServiceMock) Fetch(ctx context.Context, caller model.User, params model.FetchParams) (model.Conversation, error) {
	args := m.Called(ctx, caller, params)
	return args.Get(0).(model.Conversation), args.Error(1)
}

var (
	alice = model.User{ID: uuid.New(), Email: "alice@x.com", Name: "Alice"}
	bob   = model.User{ID: uuid.New(), Email: "bob@x.com", Name: "Bob"}
)

func authedRequest(t *testing.T, target, body string, user *model.User) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(httpctx.NewManager().SetUserToContext(req.Context(), *user))
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChat_Send(t *testing.T) {
	createdAt := time.UnixMilli(1709287200000).UTC()
	record := model.MessageRecord{
		ID:        uuid.New(),
		Message:   "hi",
		Sender:    alice.Participant(),
		Receiver:  bob.Participant(),
		CreatedAt: createdAt,
	}

	tests := []struct {
		name        string
		body        string
		user        *model.User
		serviceErr  error
		callService bool
		params      model.SendParams
		wantStatus  int
		wantBody    map[string]any
	}{
		{
			name:       "unauthenticated",
			body:       `{"email":"bob@x.com","message":"hi"}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   map[string]any{"status": "error", "message": msgUnauthorized},
		},
		{
			name:        "validation failure keeps 200 framing",
			body:        `{"email":"bob@x.com"}`,
			user:        &alice,
			serviceErr:  model.ErrValidation,
			callService: true,
			params:      model.SendParams{ReceiverEmail: "bob@x.com"},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]any{"status": "error", "message": msgMissingFields},
		},
		{
			name:        "unknown receiver",
			body:        `{"email":"ghost@x.com","message":"hi"}`,
			user:        &alice,
			serviceErr:  model.ErrUnknownRecipient,
			callService: true,
			params:      model.SendParams{ReceiverEmail: "ghost@x.com", Message: "hi"},
			wantStatus:  http.StatusOK,
			wantBody:    map[string]any{"status": "error", "message": msgUnknownReceiver},
		},
		{
			name:        "store unavailable",
			body:        `{"email":"bob@x.com","message":"hi"}`,
			user:        &alice,
			serviceErr:  errors.Join(model.ErrStoreUnavailable, errors.New("timeout")),
			callService: true,
			params:      model.SendParams{ReceiverEmail: "bob@x.com", Message: "hi"},
			wantStatus:  http.StatusInternalServerError,
			wantBody:    map[string]any{"status": "error", "message": msgInternal},
		},
		{
			name:        "stored but counter not updated",
			body:        `{"email":"bob@x.com","message":"hi"}`,
			user:        &alice,
			serviceErr:  fmt.Errorf("%w: %w: counter", model.ErrStoreUnavailable, model.ErrMessageStored),
			callService: true,
			params:      model.SendParams{ReceiverEmail: "bob@x.com", Message: "hi"},
			wantStatus:  http.StatusInternalServerError,
			wantBody:    map[string]any{"status": "error", "message": msgStoredPartially},
		},
		{
			name:       "malformed body",
			body:       `{"email":`,
			user:       &alice,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"status": "error", "message": "Invalid request body."},
		},
		{
			name:        "sent",
			body:        `{"email":"bob@x.com","message":"hi"}`,
			user:        &alice,
			callService: true,
			params:      model.SendParams{ReceiverEmail: "bob@x.com", Message: "hi"},
			wantStatus:  http.StatusOK,
			wantBody: map[string]any{
				"status":  "success",
				"message": "Message has been sent.",
				"messageObject": map[string]any{
					"_id":       record.ID.String(),
					"message":   "hi",
					"sender":    map[string]any{"_id": alice.ID.String(), "name": "Alice", "email": "alice@x.com"},
					"receiver":  map[string]any{"_id": bob.ID.String(), "name": "Bob", "email": "bob@x.com"},
					"isRead":    false,
					"createdAt": float64(1709287200000),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &chatServiceMock{}
			if tt.callService {
				svc.On("Send", mock.Anything, *tt.user, tt.params).Return(record, tt.serviceErr)
			}

			rec := httptest.NewRecorder()
			NewChat(svc, httpctx.NewManager(), testutil.MakeNoopLogger()).Send(rec, authedRequest(t, "/chat/send", tt.body, tt.user))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantBody, decodeBody(t, rec))
			svc.AssertExpectations(t)
		})
	}
}

func TestChat_Fetch(t *testing.T) {
	bobWithCounter := bob
	bobWithCounter.Contacts = []model.ContactEntry{{ContactUserID: alice.ID, Email: alice.Email, Name: alice.Name, UnreadMessages: 0}}

	conv := model.Conversation{
		Messages: []model.MessageRecord{
			{ID: uuid.New(), Message: "hi", Sender: alice.Participant(), Receiver: bob.Participant(), CreatedAt: time.UnixMilli(2000)},
			{ID: uuid.New(), Sender: alice.Participant(), Receiver: bob.Participant(), CreatedAt: time.UnixMilli(1000), Corrupt: true},
		},
		User:     bobWithCounter,
		Receiver: alice,
	}

	t.Run("fetched", func(t *testing.T) {
		svc := &chatServiceMock{}
		svc.On("Fetch", mock.Anything, bob, model.FetchParams{CounterpartEmail: "alice@x.com", Page: 1}).Return(conv, nil)

		rec := httptest.NewRecorder()
		NewChat(svc, httpctx.NewManager(), testutil.MakeNoopLogger()).
			Fetch(rec, authedRequest(t, "/chat/fetch", `{"email":"alice@x.com","page":1}`, &bob))

		require.Equal(t, http.StatusOK, rec.Code)
		var body fetchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "success", body.Status)
		assert.Equal(t, "Messages has been fetched.", body.Message)
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "hi", body.Messages[0].Message)
		assert.Equal(t, int64(2000), body.Messages[0].CreatedAt)
		assert.True(t, body.Messages[1].Corrupt)
		assert.Equal(t, bob.Email, body.User.Email)
		require.Len(t, body.User.Contacts, 1)
		assert.Equal(t, alice.ID.String(), body.User.Contacts[0].ID)
		assert.Equal(t, participantDTO{ID: alice.ID.String(), Name: "Alice", Email: "alice@x.com"}, body.Receiver)
		svc.AssertExpectations(t)
	})

	t.Run("page defaults to zero", func(t *testing.T) {
		svc := &chatServiceMock{}
		svc.On("Fetch", mock.Anything, bob, model.FetchParams{CounterpartEmail: "alice@x.com"}).Return(model.Conversation{User: bob, Receiver: alice}, nil)

		rec := httptest.NewRecorder()
		NewChat(svc, httpctx.NewManager(), testutil.MakeNoopLogger()).
			Fetch(rec, authedRequest(t, "/chat/fetch", `{"email":"alice@x.com"}`, &bob))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, decodeBody(t, rec)["messages"])
		svc.AssertExpectations(t)
	})

	t.Run("invalid page", func(t *testing.T) {
		svc := &chatServiceMock{}

		rec := httptest.NewRecorder()
		NewChat(svc, httpctx.NewManager(), testutil.MakeNoopLogger()).
			Fetch(rec, authedRequest(t, "/chat/fetch", `{"email":"alice@x.com","page":-2}`, &bob))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"status": "error", "message": msgInvalidPage}, decodeBody(t, rec))
		svc.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("corrupt ciphertext error", func(t *testing.T) {
		svc := &chatServiceMock{}
		svc.On("Fetch", mock.Anything, bob, mock.Anything).Return(model.Conversation{}, model.ErrCorruptCiphertext)

		rec := httptest.NewRecorder()
		NewChat(svc, httpctx.NewManager(), testutil.MakeNoopLogger()).
			Fetch(rec, authedRequest(t, "/chat/fetch", `{"email":"alice@x.com"}`, &bob))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, msgCorrupt, decodeBody(t, rec)["message"])
	})
}
