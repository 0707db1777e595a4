package hash

import (
	"github.com/alexedwards/argon2id"

	customErrors "github.com/duskmire/auth-service/internal/domain/auth/errors"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher produces and checks salted one-way password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type argonHasher struct {
	pepper string
}

func New(pepper string) Hasher {
	return &argonHasher{pepper: pepper}
}

func (h *argonHasher) Hash(password string) (string, error) {
	out, err := argon2id.CreateHash(password+h.pepper, params)
	if err != nil {
		return "", customErrors.WrapInternal(err, "hash password")
	}
	return out, nil
}

// Verify reports whether password matches hash. Malformed hashes verify
// false rather than erroring.
func (h *argonHasher) Verify(password, hash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(password+h.pepper, hash)
	if err != nil {
		return false
	}
	return ok
}
