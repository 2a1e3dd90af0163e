package utils

import (
    "strings"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("s3cret", 42, "STAFF", 15*time.Minute, time.Now())
    require.NoError(t, err)

    claims, err := ParseAccessToken("s3cret", tok.Token)
    require.NoError(t, err)
    require.Equal(t, "STAFF", claims.Role)
    id, err := claims.UserID()
    require.NoError(t, err)
    require.Equal(t, uint64(42), id)
    require.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, err := NewAccessToken("s3cret", 1, "GUEST", time.Minute, time.Now())
    require.NoError(t, err)

    _, err = ParseAccessToken("other", good.Token)
    require.Error(t, err)

    expired, err := NewAccessToken("s3cret", 1, "GUEST", time.Minute, time.Now().Add(-time.Hour))
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", expired.Token)
    require.Error(t, err)

    foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": "1", "role": "STAFF", "exp": time.Now().Add(time.Hour).Unix(), "iss": "someone-else",
    }).SignedString([]byte("s3cret"))
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", foreign)
    require.Error(t, err)

    unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{Role: "STAFF"}).
        SignedString(jwt.UnsafeAllowNoneSignatureType)
    require.NoError(t, err)
    _, err = ParseAccessToken("s3cret", unsigned)
    require.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
    now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
    a, err := NewRefreshToken(24*time.Hour, now)
    require.NoError(t, err)
    b, err := NewRefreshToken(24*time.Hour, now)
    require.NoError(t, err)
    require.Len(t, a.Raw, 96)
    require.NotEqual(t, a.Raw, b.Raw)
    require.Equal(t, now.Add(24*time.Hour), a.Exp)

    h := HashRefreshRaw(a.Raw)
    require.Len(t, h, 64)
    require.Equal(t, h, HashRefreshRaw(a.Raw))
    require.False(t, strings.Contains(h, a.Raw))
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("correct horse", 4)
    require.NoError(t, err)
    require.True(t, VerifyPassword(hash, "correct horse"))
    require.False(t, VerifyPassword(hash, "battery staple"))
    require.False(t, VerifyPassword("", "correct horse"))

    _, err = HashPassword("short", 4)
    require.ErrorIs(t, err, ErrWeakPassword)
    require.ErrorIs(t, CheckPassword(strings.Repeat("x", MaxPasswordLen+1)), ErrWeakPassword)
    require.NoError(t, CheckPassword(strings.Repeat("x", MaxPasswordLen)))
}
