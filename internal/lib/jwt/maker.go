// Package jwt выпускает и проверяет токены личности пользователя.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/entitlements/internal/models"
)

// Maker описывает выпуск и разбор токенов личности.
type Maker interface {
	GenerateToken(id models.Identity) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl подписывает токены HS256 секретным ключом.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewJWTMaker создаёт MakerImpl с ключом secretKey и временем жизни ttl.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
