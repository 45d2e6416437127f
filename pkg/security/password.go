// Package security contains everything related to the security of user data
package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinCost is the lowest bcrypt work factor an account password may be
// hashed with. Anything below is rejected at construction time.
const MinCost = 10

const DefaultCost = 12

type Hasher struct {
	Cost int
}

func NewHasher(cost int) *Hasher {
	if cost < MinCost {
		cost = DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	return &Hasher{Cost: cost}
}

func (h *Hasher) GenerateFromPassword(p string) (string, error) {
	if p == "" {
		return "", errors.New("no password provided")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p), h.Cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPasswd compares a password p with the stored encoded hash e.
// The comparison is constant time, courtesy of bcrypt itself.
func (h *Hasher) VerifyPasswd(p, e string) (ok bool, err error) {
	err = bcrypt.CompareHashAndPassword([]byte(e), []byte(p))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}
