package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/xGLETONAx/billares-chapinlandia/internal/common"
)

// Oracle decides whether an admin session token is valid.
type Oracle interface {
	Validate(ctx context.Context, token string) (Session, error)
}

// Session identifies the operator behind a validated token.
type Session struct {
	Subject string
	Role    string
}

// TokenOracle validates HS256 session tokens issued by the front desk
// login flow.
type TokenOracle struct {
	Secret    []byte
	Issuer    string
	ClockSkew time.Duration
	Now       func() time.Time
}

func (o *TokenOracle) clock() jwt.Clock {
	if o.Now != nil {
		return jwt.ClockFunc(o.Now)
	}
	return jwt.ClockFunc(time.Now)
}

func (o *TokenOracle) Validate(ctx context.Context, token string) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, common.NewAppError("UNAUTHORIZED", "missing session token", http.StatusUnauthorized, nil)
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithContext(ctx),
		jwt.WithKey(jwa.HS256, o.Secret),
		jwt.WithValidate(true),
		jwt.WithClock(o.clock()),
	}
	if o.ClockSkew > 0 {
		parseOpts = append(parseOpts, jwt.WithAcceptableSkew(o.ClockSkew))
	}
	if o.Issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(o.Issuer))
	}

	tok, err := jwt.Parse([]byte(token), parseOpts...)
	if err != nil {
		return Session{}, common.NewAppError("UNAUTHORIZED", "invalid or expired session token", http.StatusUnauthorized, err)
	}

	sess := Session{Subject: tok.Subject()}
	if role, ok := tok.Get("role"); ok {
		if value, ok := role.(string); ok {
			sess.Role = value
		}
	}
	return sess, nil
}

type contextKey struct{}

// WithSession stores a validated session in the request context.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// SessionFromContext returns the validated session, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
