// Package tokens verifies HMAC-signed JWTs and extracts the caller identity
package tokens

import (
	stderrs "errors"
	"time"

	"darkroom/internal/platform/config"
	perr "darkroom/internal/platform/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel causes. Callers branch with errors.Is; every one of them maps
// to the Unauthorized error code on the wire
var (
	ErrMalformed      = stderrs.New("token malformed")
	ErrSignature      = stderrs.New("token signature invalid")
	ErrExpired        = stderrs.New("token expired")
	ErrNotYetValid    = stderrs.New("token not yet valid")
	ErrMissingSubject = stderrs.New("token missing subject")
	ErrMissingUserID  = stderrs.New("token missing user id")
)

// Identity is the authenticated principal carried by a verified token
type Identity struct {
	// UserID is the uid claim, the routing key for notifications
	UserID string
	// Subject is the sub claim, the account email
	Subject string
	Claims  map[string]any
}

// Verifier is the admission seam transports depend on
type Verifier interface {
	Verify(token string) (Identity, error)
}

// claims is the internal claims type used for parsing
type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// HMAC verifies HS256 tokens with a shared secret
type HMAC struct {
	secret []byte
	leeway time.Duration
}

// NewHMAC reads JWT_SECRET under the conf prefix. The secret is required
func NewHMAC(cfg config.Conf) *HMAC {
	return &HMAC{
		secret: []byte(cfg.MustString("JWT_SECRET")),
		leeway: cfg.MayDuration("JWT_LEEWAY", 0),
	}
}

// NewHMACStatic builds a verifier from a literal secret
func NewHMACStatic(secret string) *HMAC { return &HMAC{secret: []byte(secret)} }

// Verify parses and validates raw, returning the identity on success.
// All failures carry the Unauthorized code with a sentinel root cause
func (v *HMAC) Verify(raw string) (Identity, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(raw, &c,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return Identity{}, unauthorized(mapParseError(err))
	}
	if !parsed.Valid {
		return Identity{}, unauthorized(ErrMalformed)
	}
	if c.Subject == "" {
		return Identity{}, unauthorized(ErrMissingSubject)
	}
	if c.UserID == "" {
		return Identity{}, unauthorized(ErrMissingUserID)
	}
	return Identity{
		UserID:  c.UserID,
		Subject: c.Subject,
		Claims:  map[string]any{"uid": c.UserID, "sub": c.Subject},
	}, nil
}

func unauthorized(cause error) error {
	return perr.Wrap(cause, perr.ErrorCodeUnauthorized, "token rejected")
}

func mapParseError(err error) error {
	switch {
	case stderrs.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case stderrs.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case stderrs.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrSignature
	default:
		return ErrMalformed
	}
}

// Sign mints an HS256 token for the given identity, used by tests and dev tooling
func Sign(secret, userID, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
