package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 10 * 24 * time.Hour

	refreshAudienceSuffix = ":refresh"
)

var (
	errMissingSigningSecret = errors.New("signing secret must be provided")
	errMissingSubjectClaim  = errors.New("subject claim must be provided")
)

// TokenManagerConfig configures the first-party JWT issuer.
type TokenManagerConfig struct {
	SigningSecret []byte
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Clock         func() time.Time
}

// TokenManager issues and validates the access and refresh tokens that
// authenticate every request. Refresh tokens carry a distinct audience so a
// refresh token can never pass as an access token.
type TokenManager struct {
	config TokenManagerConfig
	clock  func() time.Time
}

// NewTokenManager constructs a TokenManager with sane defaults.
func NewTokenManager(cfg TokenManagerConfig) *TokenManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &TokenManager{config: cfg, clock: cfg.Clock}
}

// IssueAccessToken produces a signed access JWT and its expiry in seconds.
func (m *TokenManager) IssueAccessToken(userID string) (string, int64, error) {
	return m.issue(userID, m.config.Audience, m.config.AccessTTL)
}

// IssueRefreshToken produces a signed refresh JWT.
func (m *TokenManager) IssueRefreshToken(userID string) (string, error) {
	token, _, err := m.issue(userID, m.config.Audience+refreshAudienceSuffix, m.config.RefreshTTL)
	return token, err
}

func (m *TokenManager) issue(userID, audience string, ttl time.Duration) (string, int64, error) {
	if len(m.config.SigningSecret) == 0 {
		return "", 0, errMissingSigningSecret
	}
	if userID == "" {
		return "", 0, errMissingSubjectClaim
	}

	now := m.clock().UTC()
	expiresAt := now.Add(ttl).UTC()

	registered := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    m.config.Issuer,
		Audience:  []string{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registered)
	signed, err := token.SignedString(m.config.SigningSecret)
	if err != nil {
		return "", 0, err
	}

	return signed, int64(expiresAt.Sub(now).Seconds()), nil
}

// ValidateAccessToken ensures an access JWT is well formed and returns the
// subject user id.
func (m *TokenManager) ValidateAccessToken(tokenString string) (string, error) {
	return m.validate(tokenString, m.config.Audience)
}

// ValidateRefreshToken ensures a refresh JWT is well formed and returns the
// subject user id.
func (m *TokenManager) ValidateRefreshToken(tokenString string) (string, error) {
	return m.validate(tokenString, m.config.Audience+refreshAudienceSuffix)
}

func (m *TokenManager) validate(tokenString, audience string) (string, error) {
	if len(m.config.SigningSecret) == 0 {
		return "", errMissingSigningSecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return m.config.SigningSecret, nil
		},
		jwt.WithAudience(audience),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.clock),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errMissingSubjectClaim
	}
	return claims.Subject, nil
}
