package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/course-portal-api/internal/models"
	appErrors "github.com/noah-isme/course-portal-api/pkg/errors"
)

// TokenConfig configures issued access tokens.
type TokenConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// TokenIssuer signs and parses HS256 access tokens.
type TokenIssuer struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	return &TokenIssuer{config: cfg, now: time.Now}
}

// Expiration is the lifetime of issued tokens.
func (t *TokenIssuer) Expiration() time.Duration {
	return t.config.Expiration
}

// Issue signs a token for identity.
func (t *TokenIssuer) Issue(identity Identity) (string, *models.JWTClaims, error) {
	issuedAt := t.now().UTC()
	claims := &models.JWTClaims{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.config.Issuer,
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.config.Expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.config.Secret))
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Parse validates tokenString and returns its claims.
func (t *TokenIssuer) Parse(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(t.config.Secret), nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}
