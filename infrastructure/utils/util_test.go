package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "short", in: "boom", max: 500, want: "boom"},
		{name: "exact", in: "12345", max: 5, want: "12345"},
		{name: "long", in: "1234567890", max: 4, want: "1234"},
		{name: "multibyte", in: "发布失败了", max: 2, want: "发布"},
		{name: "empty", in: "", max: 10, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}

	long := strings.Repeat("x", 600)
	assert.Len(t, Truncate(long, 500), 500)
}

func TestURLSafeToken(t *testing.T) {
	a, err := URLSafeToken(32)
	require.NoError(t, err)
	b, err := URLSafeToken(32)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestHexToken(t *testing.T) {
	v, err := HexToken(16)
	require.NoError(t, err)
	assert.Len(t, v, 32)
}

func TestGenerateToken(t *testing.T) {
	tokenString, err := GenerateToken(map[string]interface{}{"sub": "user-1"}, "secret")
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	clock.Advance(11 * time.Minute)
	assert.Equal(t, start.Add(11*time.Minute), clock.Now())

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}
