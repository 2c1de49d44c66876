package shared

import "errors"

var (
	// ErrCallerTokenMissing occurs when a request carries no caller token.
	ErrCallerTokenMissing = errors.New("caller token missing")
	// ErrCallerTokenInvalid occurs when the token is malformed or its MAC does not match.
	ErrCallerTokenInvalid = errors.New("caller token invalid")
	// ErrCallerTokenExpired occurs when the token lifetime has passed.
	ErrCallerTokenExpired = errors.New("caller token expired")
)
