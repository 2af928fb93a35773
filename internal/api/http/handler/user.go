package handler

import (
	"net/http"

	"github.com/dtroode/chatstation-server/internal/api/http/respond"
	"github.com/dtroode/chatstation-server/internal/model"
)

// User serves the authenticated member's profile.
type User struct {
	contextManager model.ContextManager
}

func NewUser(contextManager model.ContextManager) *User {
	return &User{contextManager: contextManager}
}

// Get handles POST /getUser. Counters are as fresh as the authentication
// lookup that produced the context user.
func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.contextManager.GetUserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	respond.JSON(w, http.StatusOK, userResponse{
		Status:  respond.StatusSuccess,
		Message: "Data has been fetched.",
		User:    toUserDTO(user),
	})
}
