// Package identity resolves the caller's user from a bearer token issued by the
// external identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"songhound/internal/logging"
)

// ErrInvalidToken reports a bearer token that could not be verified.
var ErrInvalidToken = errors.New("invalid identity token")

type contextKey string

const userKey contextKey = "identity_user"

// User is the only identity information the catalog consumes.
type User struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
}

// Claims are the token claims issued by the identity provider. The subject
// carries the user uuid.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for the given secret. An empty secret
// disables verification: every request is anonymous.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Enabled reports whether tokens can be verified.
func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Verify parses a signed token and returns its user.
func (v *Verifier) Verify(token string) (User, error) {
	if !v.Enabled() {
		return User{}, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return User{UUID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token for user. It is used by tooling and tests that stand in
// for the identity provider.
func (v *Verifier) Sign(user User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Middleware attaches the verified user to the request context. Requests
// without a valid bearer token pass through anonymously; handlers that need a
// user check FromContext.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token != "" && v.Enabled() {
			if user, err := v.Verify(token); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a context carrying user. The uuid is also exposed to
// request-scoped loggers.
func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, logging.UserUUIDKey, user.UUID)
	return context.WithValue(ctx, userKey, user)
}

// FromContext returns the identified user, if any.
func FromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	if !ok || user.UUID == "" {
		return User{}, false
	}
	return user, true
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
