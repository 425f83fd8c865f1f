package auth

import (
	"crypto/rand"
	"errors"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

const DefaultPasswordLength = 12

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*"
	allChars    = upperChars + lowerChars + digitChars + symbolChars
)

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GeneratePassword возвращает пароль длины length, в котором есть хотя бы
// одна заглавная, одна строчная буква, одна цифра и один символ из !@#$%^&*.
func GeneratePassword(length int) (string, error) {
	if length < 4 {
		return "", errors.New("длина пароля должна быть не меньше 4")
	}

	password := make([]byte, 0, length)
	for _, set := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	for len(password) < length {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	// перемешивание Фишера-Йетса
	for i := len(password) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		password[i], password[j] = password[j], password[i]
	}

	return string(password), nil
}

func randomChar(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
