package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
)

// Session tokens are HS256 only; any other alg, including none, is rejected.
var signingMethod = jwt.SigningMethodHS256

// clockSkew tolerates drift between the sign-in provider and this host.
const clockSkew = 30 * time.Second

var ErrInvalidToken = errors.New("invalid session token")

func checkSigningConfig(cfg config.SessionConfig, minting bool) error {
	var errs error
	if cfg.Secret == "" {
		errs = multierr.Append(errs, errors.New("session secret is required"))
	}
	if minting && cfg.Issuer == "" {
		errs = multierr.Append(errs, errors.New("session issuer is required"))
	}
	if minting && cfg.TTL <= 0 {
		errs = multierr.Append(errs, errors.New("session ttl must be positive"))
	}
	return errs
}

// MintSessionToken signs a session for payload, valid from now for cfg.TTL.
// A blank SessionID gets a fresh uuid.
func MintSessionToken(cfg config.SessionConfig, now time.Time, payload SessionPayload) (string, error) {
	if err := checkSigningConfig(cfg, true); err != nil {
		return "", err
	}
	email := strings.TrimSpace(payload.Email)
	if email == "" {
		return "", errors.New("session email is required")
	}
	sessionID := strings.TrimSpace(payload.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	token := jwt.NewWithClaims(signingMethod, SessionClaims{
		Email: email,
		Name:  strings.TrimSpace(payload.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    cfg.Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies signature, issuer and expiry. Failures wrap
// ErrInvalidToken.
func ParseSessionToken(cfg config.SessionConfig, raw string) (*SessionClaims, error) {
	if err := checkSigningConfig(cfg, false); err != nil {
		return nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	claims := &SessionClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: session id missing", ErrInvalidToken)
	}
	return claims, nil
}
