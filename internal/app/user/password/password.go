package password

import (
	"strings"

	"github.com/alexedwards/argon2id"

	customErrors "github.com/playtube/user-service/internal/domain/user/errors"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher is the one-way credential primitive. Hash output is salted and
// non-deterministic; Verify never panics on malformed stored hashes.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

type Argon2Hasher struct {
	pepper string
}

func NewArgon2(pepper string) *Argon2Hasher {
	return &Argon2Hasher{pepper: pepper}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	hash, err := argon2id.CreateHash(plaintext+h.pepper, argonParams)
	if err != nil {
		return "", customErrors.WrapInternal(err, "Hash")
	}
	return hash, nil
}

func (h *Argon2Hasher) Verify(plaintext, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(plaintext+h.pepper, hash)
	if err != nil {
		return false, customErrors.WrapInternal(err, "Verify")
	}
	return ok, nil
}

// IsHashed reports whether s carries the argon2id encoding prefix. It is a
// read-back sanity check for values loaded from the store, never a reason to
// skip hashing user input: registration is the only write path that touches
// the password column, and it always hashes.
func IsHashed(s string) bool {
	return strings.HasPrefix(s, "$argon2id$")
}
