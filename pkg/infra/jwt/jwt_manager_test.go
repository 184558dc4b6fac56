package jwt

import (
	"testing"
	"time"

	"github.com/NeuralTrust/TrustShield/pkg/config"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(secret string, ttl time.Duration) *manager {
	return NewJwtManager(&config.ServerConfig{SecretKey: secret, AdminTokenTTL: ttl}).(*manager)
}

func TestCreateToken_AndValidate(t *testing.T) {
	mgr := newManager("test-secret", time.Hour)

	token, err := mgr.CreateToken()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NoError(t, mgr.ValidateToken(token))
}

func TestValidateToken_OtherSecret(t *testing.T) {
	token, err := newManager("other-secret", time.Hour).CreateToken()
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidToken, newManager("test-secret", time.Hour).ValidateToken(token))
}

func TestValidateToken_Expired(t *testing.T) {
	mgr := newManager("expire-secret", time.Minute)
	token, err := mgr.CreateToken()
	require.NoError(t, err)

	mgr.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, ErrExpiredToken, mgr.ValidateToken(token))
}

func TestValidateToken_WrongSubject(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: "someone-else"}}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidToken, newManager("test-secret", 0).ValidateToken(signed))
}

func TestValidateToken_NoneAlgorithm(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwtlib.RegisteredClaims{Subject: adminSubject}}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidToken, newManager("test-secret", 0).ValidateToken(signed))
}

func TestMissingSecret(t *testing.T) {
	mgr := newManager("", 0)

	_, err := mgr.CreateToken()
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.ErrorIs(t, mgr.ValidateToken("anything"), ErrMissingKey)
}
