package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTOTPRequired       = errors.New("totp code required")
	ErrTOTPInvalid        = errors.New("invalid totp code")
	ErrTOTPNotEnabled     = errors.New("totp not enabled")
	ErrTOTPAlreadyEnabled = errors.New("totp already enabled")
)
