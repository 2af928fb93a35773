package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/chatstation-server/internal/logger"
	"github.com/dtroode/chatstation-server/internal/model"
)

// Identity resolves bearer tokens issued by the identity provider into
// member profiles.
type Identity struct {
	tokenManager model.TokenManager
	userStore    model.UserStore
	logger       *logger.Logger
}

func NewIdentity(tokenManager model.TokenManager, userStore model.UserStore, logger *logger.Logger) *Identity {
	return &Identity{
		tokenManager: tokenManager,
		userStore:    userStore,
		logger:       logger,
	}
}

func (i *Identity) Authenticate(ctx context.Context, token string) (model.User, error) {
	if token == "" {
		return model.User{}, model.ErrUnauthenticated
	}

	userID, err := i.tokenManager.ParseAccessToken(token)
	if err != nil {
		i.logger.Debug("Identity service: rejected access token", "error", err.Error())
		return model.User{}, fmt.Errorf("%w: %w", model.ErrUnauthenticated, err)
	}

	user, err := i.userStore.GetByID(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		i.logger.Info("Identity service: token subject is not a member", "user_id", userID)
		return model.User{}, model.ErrUnauthenticated
	}
	if err != nil {
		i.logger.Error("Identity service: failed to load user",
			"user_id", userID,
			"error", err.Error())
		return model.User{}, fmt.Errorf("%w: get user: %w", model.ErrStoreUnavailable, err)
	}

	return user, nil
}
