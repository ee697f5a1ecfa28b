package domain

import "errors"

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Task errors
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrEmptyTitle        = errors.New("title is required")
	ErrInvalidTaskStatus = errors.New("status must be pending or completed")
)
