package auth

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenType tags a token with the only context it may be used in.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Valid reports whether t is a known token type.
func (t TokenType) Valid() bool {
	return t == TokenTypeAccess || t == TokenTypeRefresh
}

// Payload is the signed body of a token. It carries exactly these four
// claims; anything else is rejected at decode time.
type Payload struct {
	Subject   string    `json:"sub"`
	Type      TokenType `json:"type"`
	IssuedAt  int64     `json:"iat"`
	ExpiresAt int64     `json:"exp"`
}

// UserID parses the subject back into a user id.
func (p Payload) UserID() (int64, error) {
	id, err := strconv.ParseInt(p.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSubject, p.Subject)
	}
	return id, nil
}

// TokenPair is what a successful login returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// NewTokenManager builds a new manager. Non-positive TTLs fall back to the
// package defaults.
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	tm := &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		// Expiry is checked against tm.now after the payload shape is known.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithJSONNumber(),
		),
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// AccessTTL returns the configured access token lifetime.
func (tm *TokenManager) AccessTTL() time.Duration { return tm.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration { return tm.refreshTTL }

// IssueToken signs a token for subject. A negative ttl yields a token that
// is already expired. Sub-second lifetimes round away from zero so exp never
// collapses onto iat.
func (tm *TokenManager) IssueToken(subject string, typ TokenType, ttl time.Duration) (string, error) {
	if !typ.Valid() {
		return "", fmt.Errorf("issue token: unknown type %q", typ)
	}
	now := tm.now().Unix()
	claims := jwt.MapClaims{
		"sub":  subject,
		"type": string(typ),
		"iat":  now,
		"exp":  now + lifetimeSeconds(ttl),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func lifetimeSeconds(ttl time.Duration) int64 {
	if ttl < 0 {
		return int64(math.Floor(ttl.Seconds()))
	}
	return int64(math.Ceil(ttl.Seconds()))
}

// IssueAccessToken signs an access token with the configured lifetime.
func (tm *TokenManager) IssueAccessToken(subject string) (string, error) {
	return tm.IssueToken(subject, TokenTypeAccess, tm.accessTTL)
}

// IssueRefreshToken signs a refresh token with the configured lifetime.
func (tm *TokenManager) IssueRefreshToken(subject string) (string, error) {
	return tm.IssueToken(subject, TokenTypeRefresh, tm.refreshTTL)
}

// IssuePair signs an access and a refresh token for the same subject.
func (tm *TokenManager) IssuePair(subject string) (TokenPair, error) {
	access, err := tm.IssueAccessToken(subject)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := tm.IssueRefreshToken(subject)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Decode verifies the signature, checks the payload shape and then the
// expiry. It returns ErrTokenInvalid or ErrTokenExpired.
func (tm *TokenManager) Decode(tokenStr string) (Payload, error) {
	claims := jwt.MapClaims{}
	if _, err := tm.parser.ParseWithClaims(tokenStr, claims, tm.keyFunc); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	payload, err := payloadFromClaims(claims)
	if err != nil {
		return Payload{}, err
	}

	if tm.now().Unix() > payload.ExpiresAt {
		return Payload{}, ErrTokenExpired
	}
	return payload, nil
}

// DecodeAs decodes the token and requires it to carry the given type. The
// type is only inspected once signature and expiry have passed.
func (tm *TokenManager) DecodeAs(tokenStr string, want TokenType) (Payload, error) {
	payload, err := tm.Decode(tokenStr)
	if err != nil {
		return Payload{}, err
	}
	if payload.Type != want {
		return Payload{}, fmt.Errorf("%w: got %s, want %s", ErrWrongTokenType, payload.Type, want)
	}
	return payload, nil
}

func (tm *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return tm.secret, nil
}

var payloadFields = []string{"sub", "type", "iat", "exp"}

func payloadFromClaims(claims jwt.MapClaims) (Payload, error) {
	if len(claims) != len(payloadFields) {
		return Payload{}, fmt.Errorf("%w: expected %d claims, got %d", ErrTokenInvalid, len(payloadFields), len(claims))
	}
	for _, field := range payloadFields {
		if _, ok := claims[field]; !ok {
			return Payload{}, fmt.Errorf("%w: missing %s claim", ErrTokenInvalid, field)
		}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Payload{}, fmt.Errorf("%w: sub must be a non-empty string", ErrTokenInvalid)
	}
	typ, ok := claims["type"].(string)
	if !ok || !TokenType(typ).Valid() {
		return Payload{}, fmt.Errorf("%w: unknown token type", ErrTokenInvalid)
	}
	iat, err := intClaim(claims, "iat")
	if err != nil {
		return Payload{}, err
	}
	exp, err := intClaim(claims, "exp")
	if err != nil {
		return Payload{}, err
	}

	return Payload{Subject: sub, Type: TokenType(typ), IssuedAt: iat, ExpiresAt: exp}, nil
}

func intClaim(claims jwt.MapClaims, name string) (int64, error) {
	num, ok := claims[name].(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: %s must be a number", ErrTokenInvalid, name)
	}
	v, err := num.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrTokenInvalid, name)
	}
	return v, nil
}
