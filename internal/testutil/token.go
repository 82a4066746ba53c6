package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Secret signs the tokens issued by Token.
const Secret = "test-secret"

// Token issues an HS256 access token for userID, valid for an hour.
func Token(t testing.TB, userID uuid.UUID) string {
	t.Helper()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(Secret))
	require.NoError(t, err)
	return s
}
