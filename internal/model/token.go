package model

import "github.com/google/uuid"

// TokenManager generates and validates access tokens issued by the identity provider.
type TokenManager interface {
	GenerateAccessToken(userID uuid.UUID) (string, error)
	ParseAccessToken(token string) (uuid.UUID, error)
}
