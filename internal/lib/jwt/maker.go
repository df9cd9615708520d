// Package jwt выпускает и проверяет токены оператора для служебного HTTP-сервера.
package jwt

import (
	"time"
)

// RoleAdmin роль, открывающая /admin.
const RoleAdmin = "admin"

// Maker выпускает и разбирает токены.
type Maker interface {
	GenerateToken(subject, role string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены общим секретом HMAC.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl с секретом и временем жизни токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
