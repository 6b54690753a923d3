package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/golang-jwt/jwt/v5"
	"github.com/supabase-community/supabase-go"

	"github.com/iWorld-y/stress_detector/app/wellness/internal/conf"
	"github.com/iWorld-y/stress_detector/app/wellness/internal/data"
)

const (
	ModeJWT      = "jwt"
	ModeSupabase = "supabase"

	reason = "UNAUTHORIZED"
)

var errMissingSubject = stderrors.New("token has no subject")

// Verifier 校验访问令牌并返回用户 ID
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type userKey struct{}

// NewContext 把用户 ID 放入上下文
func NewContext(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// FromContext 取出认证中间件写入的用户 ID
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userKey{}).(string)
	return id, ok && id != ""
}

// NewVerifier 按配置选择校验方式
func NewVerifier(c *conf.Auth, d *data.Data) (Verifier, error) {
	mode := ModeJWT
	if c != nil && c.Mode != "" {
		mode = c.Mode
	}

	switch mode {
	case ModeJWT:
		if c == nil || c.JwtSecret == "" {
			return nil, fmt.Errorf("auth jwt_secret is missing")
		}
		return NewJWTVerifier(c.JwtSecret, c.Audience), nil
	case ModeSupabase:
		if d.Supabase() == nil {
			return nil, fmt.Errorf("auth mode supabase requires data.supabase")
		}
		return NewSupabaseVerifier(d.Supabase()), nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", mode)
	}
}

// JWTVerifier 使用共享密钥校验 HS256 令牌，用户 ID 取自 sub
type JWTVerifier struct {
	secret   []byte
	audience string
}

func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errMissingSubject
	}
	return claims.Subject, nil
}

// SupabaseVerifier 通过 Supabase Auth 服务换取用户信息
type SupabaseVerifier struct {
	client *supabase.Client
}

func NewSupabaseVerifier(client *supabase.Client) *SupabaseVerifier {
	return &SupabaseVerifier{client: client}
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	user, err := v.client.Auth.WithToken(token).GetUser()
	if err != nil {
		return "", err
	}
	return user.ID.String(), nil
}

// Server 从 Authorization 头读取 Bearer 令牌，校验通过后把用户 ID 写入上下文
func Server(v Verifier) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req any) (any, error) {
			tr, ok := transport.FromServerContext(ctx)
			if !ok {
				return nil, errors.Unauthorized(reason, "Missing authorization")
			}
			token, ok := bearer(tr.RequestHeader().Get("Authorization"))
			if !ok {
				return nil, errors.Unauthorized(reason, "Missing authorization")
			}
			userID, err := v.Verify(ctx, token)
			if err != nil {
				return nil, errors.Unauthorized(reason, "Invalid or expired token").WithCause(err)
			}
			return handler(NewContext(ctx, userID), req)
		}
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
