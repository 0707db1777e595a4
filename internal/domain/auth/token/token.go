package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
)

// Type tags a token as access or refresh. A codec must never accept one
// where the other is expected.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	TokenType Type   `json:"type"`
}

// UserID parses the subject claim.
func (c Claims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, customErrors.ErrInvalidToken
	}
	return id, nil
}

type Codec interface {
	Mint(userID uuid.UUID, username string, typ Type, ttl time.Duration) (signed string, claims Claims, err error)
	Verify(raw string, expected Type) (Claims, error)
}
