package security

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenRejections(t *testing.T) {
	issuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	other, err := NewTokenIssuer("different", time.Hour)
	require.NoError(t, err)

	forged, err := other.Issue(42)
	require.NoError(t, err)

	expiredIssuer, err := NewTokenIssuer("s3cret", time.Hour)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue(42)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong secret", forged},
		{"expired", expired},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = issuer.Issue(0)
	assert.Error(t, err)

	_, err = NewTokenIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d", i)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"))

	rl.cleanup(time.Now().Add(3 * time.Hour))
	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "127.0.0.1:5000", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "127.0.0.1:5000", "10.0.0.3"},
		{"remote addr", nil, "192.168.1.9:443", "192.168.1.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(r))
		})
	}
}

func TestRequestID(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	generated := RequestID(r)
	assert.Len(t, generated, 36)

	r.Header.Set(RequestIDHeader, generated)
	assert.Equal(t, generated, RequestID(r))

	r.Header.Set(RequestIDHeader, "<script>")
	assert.NotEqual(t, "<script>", RequestID(r))
}
