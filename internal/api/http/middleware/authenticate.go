package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dtroode/chatstation-server/internal/api/http/respond"
	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

// Authenticator resolves a bearer token into a member.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// Authenticate validates bearer tokens and injects the member into context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Handle reads the token from the Authorization header, falling back to the
// token query parameter for browser websocket clients.
func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticator.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			if errors.Is(err, model.ErrUnauthenticated) {
				respond.Error(w, http.StatusUnauthorized, "Unauthorized.")
				return
			}
			m.logger.Error("failed to authenticate request",
				"path", r.URL.Path,
				"error", err.Error())
			respond.Error(w, http.StatusInternalServerError, "Internal server error.")
			return
		}

		next.ServeHTTP(w, r.WithContext(m.contextManager.SetUserToContext(r.Context(), user)))
	})
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		// the auth scheme is case-insensitive (RFC 9110 section 11.1)
		if scheme, token, ok := strings.Cut(strings.TrimSpace(header), " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return strings.TrimSpace(header)
	}
	return r.URL.Query().Get("token")
}
