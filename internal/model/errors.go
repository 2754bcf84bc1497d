package model

import "errors"

// Storage outcomes. ErrTransport means the backend never answered;
// ErrConstraintViolation means it answered and refused the row.
var (
	ErrTransport           = errors.New("backend unavailable")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnknownTable        = errors.New("unknown table")
	ErrRowNotFound         = errors.New("row not found")
	ErrTrashItemNotFound   = errors.New("trash item not found")
	ErrInvalidInput        = errors.New("invalid input")
)

// Identity and session outcomes.
var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrIdentityExists     = errors.New("identity already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("refresh token not found")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)
