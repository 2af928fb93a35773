package handler

import (
	"errors"
	"net/http"

	"github.com/dtroode/chatstation-server/internal/api/http/respond"
	"github.com/dtroode/chatstation-server/internal/model"
)

// User-facing messages. Validation and membership failures keep the
// historical 200 framing so existing clients read them from the body.
const (
	msgMissingFields   = "Please enter all fields."
	msgInvalidPage     = "Page must be a non-negative integer within range."
	msgUnknownReceiver = "The receiver is not a member of Chat Station."
	msgUnauthorized    = "Unauthorized."
	msgCorrupt         = "Message could not be decrypted."
	msgStoredPartially = "Message has been stored but delivery bookkeeping failed. Do not resend."
	msgInternal        = "Internal server error."
)

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		respond.Error(w, http.StatusOK, msgMissingFields)
	case errors.Is(err, model.ErrUnknownRecipient):
		respond.Error(w, http.StatusOK, msgUnknownReceiver)
	case errors.Is(err, model.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, msgUnauthorized)
	case errors.Is(err, model.ErrMessageStored):
		respond.Error(w, http.StatusInternalServerError, msgStoredPartially)
	case errors.Is(err, model.ErrCorruptCiphertext):
		respond.Error(w, http.StatusInternalServerError, msgCorrupt)
	default:
		respond.Error(w, http.StatusInternalServerError, msgInternal)
	}
}
