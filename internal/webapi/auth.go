package webapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LocalDevUser is the identity injected when authentication is disabled.
const LocalDevUser = "local-dev-user"

// ErrAuthNotConfigured is returned when tokens must be verified but no
// signing secret is set.
var ErrAuthNotConfigured = errors.New("authentication is not configured")

// Claims are the token fields the API reads.
type Claims struct {
	Subject string `mapstructure:"sub"`
	Email   string `mapstructure:"email"`
	Role    string `mapstructure:"role"`
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the user ID on ctx, or "" for anonymous requests.
func UserFrom(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}

// Authenticator verifies HS256 bearer tokens. A nil Authenticator behaves
// as if authentication were disabled.
type Authenticator struct {
	secret   []byte
	issuer   string
	disabled bool
}

// NewAuthenticator creates an Authenticator. An empty issuer accepts any issuer.
func NewAuthenticator(secret, issuer string, disabled bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), issuer: issuer, disabled: disabled}
}

// Verify parses and validates a raw token.
func (a *Authenticator) Verify(raw string) (Claims, error) {
	if len(a.secret) == 0 {
		return Claims{}, ErrAuthNotConfigured
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, fmt.Errorf("verify token: %w", err)
	}
	if !token.Valid {
		return Claims{}, errors.New("verify token: invalid")
	}

	var out Claims
	if err := mapstructure.Decode(map[string]any(claims), &out); err != nil {
		return Claims{}, fmt.Errorf("decode claims: %w", err)
	}
	if out.Subject == "" {
		return Claims{}, errors.New("verify token: missing subject")
	}
	if out.Role == "" {
		out.Role = "authenticated"
	}
	return out, nil
}

func (a *Authenticator) off() bool {
	return a == nil || a.disabled
}

// Optional attaches the caller's identity when a valid bearer token is
// present. Missing or invalid tokens continue as anonymous.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.off() {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), LocalDevUser)))
			return
		}
		if raw, ok := bearerToken(r); ok {
			if c, err := a.Verify(raw); err == nil {
				r = r.WithContext(WithUser(r.Context(), c.Subject))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid bearer token.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.off() {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), LocalDevUser)))
			return
		}
		raw, ok := bearerToken(r)
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		c, err := a.Verify(raw)
		if errors.Is(err, ErrAuthNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), c.Subject)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
