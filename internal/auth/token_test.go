package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", testSecret, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token, testSecret)
	req.NoError(err)
	req.Equal("alice", claims.Username)
	req.Equal("alice", claims.Subject)
	req.Equal(issuer, claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	expired, err := GenerateToken("alice", testSecret, -time.Minute)
	require.NoError(t, err)

	otherSecret, err := GenerateToken("alice", "another-secret", time.Hour)
	require.NoError(t, err)

	noUsername, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"signed with another secret", otherSecret},
		{"missing username", noUsername},
		{"unexpected algorithm", wrongAlg},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateToken(tt.token, testSecret)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
