package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/document-summarizer/internal/config"
)

const testSecret = "test-secret-key-at-least-16-chars"

func newTestCSRFService() *CSRFService {
	return NewCSRFService(&config.CSRFConfig{Secret: testSecret, ExpirationHours: 12})
}

func TestCSRFService_GenerateAndValidate(t *testing.T) {
	svc := newTestCSRFService()

	token, expiresAt, err := svc.GenerateToken("session-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(12*time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", claims.GetSessionID())
}

func TestCSRFService_GenerateToken_EmptySession(t *testing.T) {
	_, _, err := newTestCSRFService().GenerateToken("")
	assert.Error(t, err)
}

func TestCSRFService_ValidateToken_Errors(t *testing.T) {
	svc := newTestCSRFService()
	token, _, err := svc.GenerateToken("session-1")
	require.NoError(t, err)

	other := NewCSRFService(&config.CSRFConfig{Secret: "another-secret-of-enough-length", ExpirationHours: 12})
	_, err = other.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token signature")

	_, err = svc.ValidateToken("")
	assert.Error(t, err)

	_, err = svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed token")
}

func TestCSRFService_ValidateToken_Expired(t *testing.T) {
	svc := newTestCSRFService()
	token, _, err := svc.GenerateToken("session-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(13 * time.Hour) }
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestCSRFService_RejectsOtherAlgorithms(t *testing.T) {
	svc := newTestCSRFService()

	claims := &Claims{SessionID: "session-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestCSRFService_RejectsMissingSession(t *testing.T) {
	svc := newTestCSRFService()

	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not valid"))
}

func TestCSRFService_AsTokenValidator(t *testing.T) {
	svc := newTestCSRFService()
	token, _, err := svc.GenerateToken("session-9")
	require.NoError(t, err)

	getter, err := svc.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "session-9", getter.GetSessionID())

	_, err = svc.AsTokenValidator().ValidateToken("bad")
	assert.Error(t, err)
}
