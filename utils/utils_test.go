package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone(t *testing.T) {
	assert.True(t, ValidatePhone("+39 333 123 4567"))
	assert.True(t, ValidatePhone("(02) 555-1234"))
	assert.False(t, ValidatePhone("0123"))
	assert.False(t, ValidatePhone("call me"))
}

func TestNextAnniversary(t *testing.T) {
	from := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

	same := NextAnniversary(time.Date(1990, 10, 17, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), same)

	passed := NextAnniversary(time.Date(1990, 3, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2027, 3, 2, 0, 0, 0, 0, time.UTC), passed)
}

func TestRelativeDayLabel(t *testing.T) {
	assert.Equal(t, "Today", RelativeDayLabel(0))
	assert.Equal(t, "Tomorrow", RelativeDayLabel(1))
	assert.Equal(t, "4 days", RelativeDayLabel(4))
}

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(6)
	assert.Len(t, s, 6)
	for _, r := range s {
		assert.Contains(t, randomAlphabet, string(r))
	}
}

func TestTokenRoundTripThroughMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("5f0a4c8e-8a7e-4a6a-9f55-0f3f1b7f2d11", "0b0e3f2c-3a41-4d7b-8c55-6a1f9e2d7c10")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", AuthMiddleware(), func(c *gin.Context) {
		salonID, ok := SalonID(c)
		if !ok {
			return
		}
		c.String(http.StatusOK, salonID.String())
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0b0e3f2c-3a41-4d7b-8c55-6a1f9e2d7c10", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestParseTokenRejectsForeignTokens(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u", "salonId": "s"}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = ParseToken(other)
	assert.Error(t, err)

	noSalon, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ParseToken(noSalon)
	assert.Error(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u", "salonId": "s"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = ParseToken(hs512)
	assert.Error(t, err)

	good, err := GenerateToken("u", "s")
	require.NoError(t, err)
	claims, err := ParseToken(good)
	require.NoError(t, err)
	assert.Equal(t, "u", claims.Subject)
	assert.Equal(t, "s", claims.SalonID)
}
