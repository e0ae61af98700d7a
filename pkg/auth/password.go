package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher 以 bcrypt 雜湊密碼
type BcryptHasher struct {
	Cost int
}

// Hash 產生雜湊，Cost 為 0 時用 bcrypt.DefaultCost
func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare 密碼不符回傳 bcrypt.ErrMismatchedHashAndPassword
func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
