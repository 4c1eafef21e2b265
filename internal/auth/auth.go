// Package auth turns a bearer token into the owner id the ledger scopes every
// operation to. Session issuing itself lives outside this module; tokens are
// HS256 JWTs whose subject is the owner id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"organizer/internal/core"
	"organizer/internal/log"
)

type contextKey struct{}

// WithOwner returns ctx carrying owner as the resolved session.
func WithOwner(ctx context.Context, owner core.OwnerID) context.Context {
	return context.WithValue(ctx, contextKey{}, owner)
}

// OwnerFromContext returns the owner stored by WithOwner.
func OwnerFromContext(ctx context.Context) (core.OwnerID, bool) {
	owner, ok := ctx.Value(contextKey{}).(core.OwnerID)
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}

// ContextResolver resolves the session placed on the context by the HTTP
// middleware or by a trusted caller such as the admin CLI.
type ContextResolver struct{}

func (ContextResolver) ResolveSession(ctx context.Context) (core.OwnerID, bool) {
	return OwnerFromContext(ctx)
}

var (
	ErrMissingSecret = errors.New("auth: signing secret is required")
	ErrInvalidToken  = errors.New("auth: invalid token")
)

// Authenticator validates and issues HS256 bearer tokens.
type Authenticator struct {
	secret []byte
	issuer string
	now    func() time.Time
	logger *log.Logger
}

func NewAuthenticator(secret, issuer string, logger *log.Logger) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Authenticator{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentAuth),
	}, nil
}

// Authenticate verifies the signature, the expiry and, when configured, the
// issuer of raw and returns its subject.
func (a *Authenticator) Authenticate(raw string) (core.OwnerID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return core.OwnerID(sub), nil
}

// Issue signs a token for owner valid for ttl.
func (a *Authenticator) Issue(owner core.OwnerID, ttl time.Duration) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   string(owner),
		Issuer:    a.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Middleware attaches the token's owner to the request context. Requests
// without a valid token pass through unauthenticated; the ledger rejects them.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token != "" {
			owner, err := a.Authenticate(token)
			if err != nil {
				a.logger.DebugContext(c.Request.Context(), "Rejected bearer token", log.FieldError, err)
			} else {
				c.Request = c.Request.WithContext(WithOwner(c.Request.Context(), owner))
			}
		}
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
