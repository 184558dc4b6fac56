package jwt

import (
	"errors"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

const adminSubject = "trustshield-admin"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
	ErrMissingKey   = errors.New("secret key is not configured")
)

//go:generate mockery --name=Manager --dir=. --output=mocks/ --filename=jwt_manager_mock.go --case=underscore
type (
	Manager interface {
		CreateToken() (string, error)
		ValidateToken(tokenString string) error
	}
	manager struct {
		secret []byte
		ttl    time.Duration
		now    func() time.Time
	}
)

// NewJwtManager issues and checks HS256 tokens for the admin API.
func NewJwtManager(cfg *config.ServerConfig) Manager {
	return &manager{
		secret: []byte(cfg.SecretKey),
		ttl:    cfg.AdminTokenTTL,
		now:    time.Now,
	}
}

type Claims struct {
	jwt.RegisteredClaims
}

func (m *manager) CreateToken() (string, error) {
	if len(m.secret) == 0 {
		return "", ErrMissingKey
	}
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  adminSubject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if m.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *manager) ValidateToken(tokenString string) error {
	if len(m.secret) == 0 {
		return ErrMissingKey
	}
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return m.secret, nil
		},
		jwt.WithSubject(adminSubject),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
