package auth

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type headerCarrier http.Header

func (h headerCarrier) Get(key string) string      { return http.Header(h).Get(key) }
func (h headerCarrier) Set(key, value string)      { http.Header(h).Set(key, value) }
func (h headerCarrier) Add(key, value string)      { http.Header(h).Add(key, value) }
func (h headerCarrier) Values(key string) []string { return http.Header(h).Values(key) }
func (h headerCarrier) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// testTransport 仅提供请求头的最小 Transporter
type testTransport struct {
	header headerCarrier
}

func (t *testTransport) Kind() transport.Kind            { return transport.KindHTTP }
func (t *testTransport) Endpoint() string                { return "" }
func (t *testTransport) Operation() string               { return "/test" }
func (t *testTransport) RequestHeader() transport.Header { return t.header }
func (t *testTransport) ReplyHeader() transport.Header   { return headerCarrier{} }

func sign(t *testing.T, claims jwt.Claims, method jwt.SigningMethod) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "user-42",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

func TestJWTVerifier(t *testing.T) {
	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	noSub := validClaims()
	noSub.Subject = ""
	noExp := validClaims()
	noExp.ExpiresAt = nil
	otherAud := validClaims()
	otherAud.Audience = jwt.ClaimStrings{"anon"}

	cases := []struct {
		name   string
		token  string
		wantID string
	}{
		{"valid", sign(t, validClaims(), jwt.SigningMethodHS256), "user-42"},
		{"expired", sign(t, expired, jwt.SigningMethodHS256), ""},
		{"no subject", sign(t, noSub, jwt.SigningMethodHS256), ""},
		{"no expiry", sign(t, noExp, jwt.SigningMethodHS256), ""},
		{"wrong audience", sign(t, otherAud, jwt.SigningMethodHS256), ""},
		{"wrong algorithm", sign(t, validClaims(), jwt.SigningMethodHS512), ""},
		{"garbage", "not-a-token", ""},
	}

	v := NewJWTVerifier(secret, "authenticated")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := v.Verify(context.Background(), tc.token)
			if tc.wantID == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestJWTVerifier_NoAudienceConfigured(t *testing.T) {
	claims := validClaims()
	claims.Audience = nil

	id, err := NewJWTVerifier(secret, "").Verify(context.Background(), sign(t, claims, jwt.SigningMethodHS256))
	require.NoError(t, err)
	assert.Equal(t, "user-42", id)
}

func TestServer(t *testing.T) {
	token := sign(t, validClaims(), jwt.SigningMethodHS256)
	mw := Server(NewJWTVerifier(secret, ""))

	cases := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"valid", "Bearer " + token, 0},
		{"lowercase scheme", "bearer " + token, 0},
		{"missing", "", 401},
		{"basic", "Basic abc", 401},
		{"empty bearer", "Bearer ", 401},
		{"bad token", "Bearer nope", 401},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := headerCarrier{}
			if tc.header != "" {
				h.Set("Authorization", tc.header)
			}
			ctx := transport.NewServerContext(context.Background(), &testTransport{header: h})

			var seen string
			_, err := mw(func(ctx context.Context, req any) (any, error) {
				seen, _ = FromContext(ctx)
				return nil, nil
			})(ctx, nil)

			if tc.wantCode == 0 {
				require.NoError(t, err)
				assert.Equal(t, "user-42", seen)
				return
			}
			assert.Equal(t, tc.wantCode, errors.Code(err))
			assert.Empty(t, seen)
		})
	}
}

func TestServer_NoTransport(t *testing.T) {
	_, err := Server(NewJWTVerifier(secret, ""))(func(ctx context.Context, req any) (any, error) {
		return nil, nil
	})(context.Background(), nil)
	assert.Equal(t, 401, errors.Code(err))
}

func TestFromContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	id, ok := FromContext(NewContext(context.Background(), "u"))
	assert.True(t, ok)
	assert.Equal(t, "u", id)
}
