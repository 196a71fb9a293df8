package account

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNoPassword        = errors.New("account has no password")
	ErrNoPicturePassword = errors.New("account has no picture password")
)

const bcryptCost = 12

// HashPassword returns a bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the stored hash.
func (u User) CheckPassword(pw string) (bool, error) {
	if u.PasswordHash == "" {
		return false, ErrNoPassword
	}
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// CheckPicturePassword requires the same length and the same order.
// Partial or reordered sequences fail.
func (u User) CheckPicturePassword(seq []string) (bool, error) {
	if len(u.PicturePassword) == 0 {
		return false, ErrNoPicturePassword
	}
	if len(seq) != len(u.PicturePassword) {
		return false, nil
	}
	for i := range seq {
		if seq[i] != u.PicturePassword[i] {
			return false, nil
		}
	}
	return true, nil
}
