package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("username already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrPasswordTooLong   = errors.New("password exceeds 72 bytes")
	ErrChatNotFound      = errors.New("chat not found")
	ErrInvalidMessages   = errors.New("messages must be non-empty user/assistant pairs")
	ErrMessageEmpty      = errors.New("message content is empty")
)
