package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
	domain "github.com/duskmire/auth-service/internal/domain/auth/token"
	"github.com/duskmire/auth-service/internal/infra/config"
)

const leeway = 2 * time.Minute

// HSCodec signs and verifies tokens with a shared HS256 secret. The jti is a
// fresh uuid per mint, so two tokens for the same subject in the same instant
// still differ.
type HSCodec struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewCodec(cfg *config.Config) *HSCodec {
	return &HSCodec{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		now:      time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (c *HSCodec) WithClock(now func() time.Time) *HSCodec {
	c.now = now
	return c
}

func (c *HSCodec) Mint(userID uuid.UUID, username string, typ domain.Type, ttl time.Duration) (string, domain.Claims, error) {
	now := c.now()
	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Username:  username,
		TokenType: typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", domain.Claims{}, customErrors.WrapInternal(err, "sign token")
	}
	return signed, claims, nil
}

func (c *HSCodec) Verify(raw string, expected domain.Type) (domain.Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &domain.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return c.secret, nil
	}, jwt.WithIssuedAt(), jwt.WithLeeway(leeway), jwt.WithTimeFunc(c.now))

	switch {
	case err == nil && parsed.Valid:
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.Claims{}, customErrors.ErrExpiredToken
	default:
		return domain.Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*domain.Claims)
	if !ok {
		return domain.Claims{}, customErrors.WrapInternal(errors.New("claims type mismatch"), "Verify")
	}

	if claims.Subject == "" || claims.ID == "" || claims.TokenType != expected {
		return domain.Claims{}, customErrors.ErrInvalidToken
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return domain.Claims{}, customErrors.ErrInvalidToken
	}

	if c.audience != "" {
		okAudi := false
		for _, a := range claims.Audience {
			if a == c.audience {
				okAudi = true
				break
			}
		}
		if !okAudi {
			return domain.Claims{}, customErrors.ErrInvalidToken
		}
	}

	return *claims, nil
}
