package models

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidHour     = errors.New("hour must be between 0 and 23")
	ErrUnknownSendType = errors.New("unknown send type")
	ErrUnknownField    = errors.New("unknown email field")
	ErrUnknownKind     = errors.New("unknown digest type")
)
