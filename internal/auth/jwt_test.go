package auth

import (
	"testing"
	"time"

	"github.com/example/ec-pickup-shop/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-secret-key-for-testing-purposes", "", 15*time.Minute)
}

func TestNewJWTService(t *testing.T) {
	service := newTestJWTService()
	assert.NotNil(t, service)
	assert.Equal(t, 15*time.Minute, service.GetAccessTokenExpiry())
}

func TestJWTService_GenerateAccessToken_Success(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateAccessToken("user-123", "test@example.com", RoleCustomer)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(16*time.Minute)))
}

func TestJWTService_ValidateAccessToken_Valid(t *testing.T) {
	service := newTestJWTService()

	token, _, err := service.GenerateAccessToken("user-456", "test@example.com", RoleStaff)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)

	require.NoError(t, err)
	assert.Equal(t, "user-456", claims.UserID)
	assert.Equal(t, "test@example.com", claims.Email)
	assert.Equal(t, RoleStaff, claims.Role)
	assert.Equal(t, "user-456", claims.Subject)
}

func TestJWTService_ValidateAccessToken_Expired(t *testing.T) {
	// Create a service with very short expiry
	service := NewJWTService("test-secret", "", 1*time.Millisecond)

	token, _, err := service.GenerateAccessToken("user-123", "test@example.com", RoleCustomer)
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(1100 * time.Millisecond)

	claims, err := service.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_Invalid(t *testing.T) {
	service := newTestJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateAccessToken_WrongSignature(t *testing.T) {
	service1 := NewJWTService("secret-key-1", "", 15*time.Minute)
	service2 := NewJWTService("secret-key-2", "", 15*time.Minute)

	token, _, err := service1.GenerateAccessToken("user-123", "test@example.com", RoleCustomer)
	require.NoError(t, err)

	claims, err := service2.ValidateAccessToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_WrongAlgorithm(t *testing.T) {
	service := newTestJWTService()

	// Create a token with a different algorithm (none)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID: "user-123",
		Email:  "test@example.com",
		Role:   RoleCustomer,
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateAccessToken_Issuer(t *testing.T) {
	issuer := NewJWTService("shared-secret", "pickup-idp", 15*time.Minute)
	other := NewJWTService("shared-secret", "someone-else", 15*time.Minute)

	token, _, err := other.GenerateAccessToken("user-123", "", RoleCustomer)
	require.NoError(t, err)
	_, err = issuer.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	token, _, err = issuer.GenerateAccessToken("user-123", "", RoleCustomer)
	require.NoError(t, err)
	_, err = issuer.ValidateAccessToken(token)
	assert.NoError(t, err)
}

func TestJWTService_ValidateAccessToken_NoSubject(t *testing.T) {
	service := newTestJWTService()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	})
	tokenString, err := token.SignedString([]byte("test-secret-key-for-testing-purposes"))
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_Session(t *testing.T) {
	claims := &Claims{UserID: "user-1", Email: "a@example.com", Role: RoleStaff}

	sess := claims.Session()

	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "a@example.com", sess.Email)
	assert.Equal(t, RoleStaff, sess.Role)

	fromSubject := (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"}}).Session()
	assert.Equal(t, "user-2", fromSubject.UserID)
}

func TestClaims_Session_NoUserIsAnonymous(t *testing.T) {
	claims := &Claims{Email: "a@example.com", Role: RoleStaff}

	_, ok := claims.CurrentUserID()
	sess := claims.Session()

	assert.False(t, ok)
	assert.Equal(t, session.Anonymous, sess)
	assert.False(t, sess.Authenticated())
}
