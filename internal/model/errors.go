package model

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrUnknownRecipient  = errors.New("unknown recipient")
	ErrCorruptCiphertext = errors.New("corrupt ciphertext")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrUnauthenticated   = errors.New("unauthenticated")
	// ErrMessageStored marks a send whose message was persisted although a
	// later step failed. Retrying such a send duplicates the message.
	ErrMessageStored     = errors.New("message stored")
)
