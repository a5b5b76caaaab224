package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/staff-portal/models"
)

var (
	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("token signing secret is not configured")

	// ErrInvalidToken is returned when the token cannot be decoded or its signature does not verify
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrMalformedToken is returned when a verified token carries an unusable payload
	ErrMalformedToken = errors.New("malformed token payload")
)

// Claims is the payload of an access token
type Claims struct {
	UserID   string          `json:"userId"`
	UserName string          `json:"userName,omitempty"`
	UserRole models.UserRole `json:"userRole"`
	jwt.RegisteredClaims
}

// Config holds token settings shared by Signer and Verifier
type Config struct {
	Secret string
	TTL    time.Duration
	Clock  func() time.Time // defaults to time.Now
}

func (c Config) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now()
}

// Signer issues HS256 access tokens
type Signer struct {
	cfg Config
}

// NewSigner creates a new token signer
func NewSigner(cfg Config) *Signer {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Signer{cfg: cfg}
}

// Sign issues a token for user and returns it with its expiry
func (s *Signer) Sign(user *models.User) (string, time.Time, error) {
	if s.cfg.Secret == "" {
		return "", time.Time{}, ErrMissingSecret
	}

	now := s.cfg.now()
	expiresAt := now.Add(s.cfg.TTL)

	claims := Claims{
		UserID:   user.UserID,
		UserName: user.DisplayName(),
		UserRole: user.UserRole,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verifier checks access tokens issued by Signer
type Verifier struct {
	cfg Config
}

// NewVerifier creates a new token verifier
func NewVerifier(cfg Config) *Verifier {
	return &Verifier{cfg: cfg}
}

// Verify checks the signature and expiry of tokenString and returns its claims.
// Errors are one of ErrMissingSecret, ErrInvalidToken, ErrTokenExpired or
// ErrMalformedToken, possibly wrapped.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	if v.cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(v.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.cfg.now),
	)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		case errors.As(err, &typeErr):
			// claims are decoded before the signature is checked
			if !v.signatureValid(tokenString) {
				return nil, fmt.Errorf("%w: signature is invalid", ErrInvalidToken)
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: userId claim missing", ErrMalformedToken)
	}
	if !claims.UserRole.IsValid() {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, models.ErrUnknownRole)
	}

	return claims, nil
}

func (v *Verifier) signatureValid(tokenString string) bool {
	i := strings.LastIndex(tokenString, ".")
	if i < 0 {
		return false
	}
	sig, err := jwt.NewParser().DecodeSegment(tokenString[i+1:])
	if err != nil {
		return false
	}
	return jwt.SigningMethodHS256.Verify(tokenString[:i], sig, []byte(v.cfg.Secret)) == nil
}
