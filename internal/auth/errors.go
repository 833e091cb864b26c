package auth

import "errors"

// Token validation failures. Callers distinguish expiry from every other
// failure, so ErrTokenExpired is never wrapped into ErrTokenInvalid.
var (
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("invalid token type")
	ErrInvalidSubject = errors.New("invalid token subject")
)

// Credential failures. ErrUnknownIdentity and ErrBadCredentials are collapsed
// into one response at the HTTP layer.
var (
	ErrUnknownIdentity  = errors.New("unknown identity")
	ErrInactiveIdentity = errors.New("identity is inactive")
	ErrBadCredentials   = errors.New("bad credentials")
)
