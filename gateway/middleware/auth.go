// Package middleware authenticates requests into the Stability Pool HTTP
// surface before they ever reach the engine. Adapted from the teacher
// gateway's JWT authenticator: the engine's own collaborator checks compare
// a caller address against a once-wired registry (troveManager, the pool's
// own address, and so on) exactly the way spec.md's role-gated
// require(msg.sender == …) checks are meant to be implemented — but an HTTP
// body can claim to be any address it likes. This authenticator is what
// turns a claimed address into a verified one.
package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig configures the authenticator. Enabled=false is a deliberate
// escape hatch for local/dev deployments with no identity provider; every
// production wiring is expected to set it.
type AuthConfig struct {
	Enabled       bool
	HMACSecret    string
	Issuer        string
	Audience      string
	ScopeClaim    string
	AddressClaim  string
	OptionalPaths []string
	ClockSkew     time.Duration
}

type contextKey string

const (
	ContextKeyScopes  contextKey = "stabilitypool.scopes"
	ContextKeyAddress contextKey = "stabilitypool.address"
)

// Authenticator validates bearer JWTs and extracts the caller's scopes and
// bech32 address claim.
type Authenticator struct {
	cfg    AuthConfig
	logger *log.Logger
	secret []byte
	once   sync.Once
}

// NewAuthenticator builds an Authenticator from cfg. A nil logger defaults
// to the standard library's default logger.
func NewAuthenticator(cfg AuthConfig, logger *log.Logger) *Authenticator {
	if logger == nil {
		logger = log.Default()
	}
	auth := &Authenticator{cfg: cfg, logger: logger}
	auth.once.Do(func() {
		auth.secret = []byte(strings.TrimSpace(cfg.HMACSecret))
		if auth.cfg.ScopeClaim == "" {
			auth.cfg.ScopeClaim = "scope"
		}
		if auth.cfg.AddressClaim == "" {
			auth.cfg.AddressClaim = "addr"
		}
		if auth.cfg.ClockSkew <= 0 {
			auth.cfg.ClockSkew = 2 * time.Minute
		}
	})
	return auth
}

// Middleware returns chi-compatible middleware requiring a bearer token
// carrying every scope in requiredScopes. Disabled authenticators and
// configured optional paths pass every request through unauthenticated.
func (a *Authenticator) Middleware(requiredScopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled || a.isOptional(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := extractBearer(r.Header.Get("Authorization"))
			if tokenString == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := a.parseToken(tokenString)
			if err != nil {
				a.logger.Printf("auth: token validation failed: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if err := validateClaims(claims, a.cfg.Issuer, a.cfg.Audience); err != nil {
				a.logger.Printf("auth: claim validation failed: %v", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			scopes := extractScopes(claims, a.cfg.ScopeClaim)
			if len(requiredScopes) > 0 && !hasScopes(scopes, requiredScopes) {
				http.Error(w, "insufficient scope", http.StatusForbidden)
				return
			}
			addr, _ := claims[a.cfg.AddressClaim].(string)
			ctx := context.WithValue(r.Context(), ContextKeyScopes, scopes)
			ctx = context.WithValue(ctx, ContextKeyAddress, strings.TrimSpace(addr))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AddressFromContext returns the bech32 address the caller's token was
// issued for, and whether one was present. A handler uses this to refuse a
// request body that names a different address than the one actually
// authenticated — scope alone only proves the caller may act, not which
// identity they are acting as.
func AddressFromContext(ctx context.Context) (string, bool) {
	addr, ok := ctx.Value(ContextKeyAddress).(string)
	return addr, ok && addr != ""
}

func (a *Authenticator) isOptional(path string) bool {
	for _, prefix := range a.cfg.OptionalPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, issuer, audience string) error {
	if issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != issuer {
			return errors.New("issuer mismatch")
		}
	}
	if audience != "" {
		switch val := claims["aud"].(type) {
		case string:
			if val != audience {
				return errors.New("audience mismatch")
			}
		case []interface{}:
			matched := false
			for _, entry := range val {
				if s, ok := entry.(string); ok && s == audience {
					matched = true
					break
				}
			}
			if !matched {
				return errors.New("audience mismatch")
			}
		}
	}
	if exp, ok := claims["exp"].(float64); ok {
		if int64(exp) < time.Now().Unix() {
			return errors.New("token expired")
		}
	}
	return nil
}

func extractScopes(claims jwt.MapClaims, scopeClaim string) []string {
	if scopeClaim == "" {
		scopeClaim = "scope"
	}
	raw, ok := claims[scopeClaim]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return strings.Fields(trimmed)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func hasScopes(scopes []string, required []string) bool {
	if len(required) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
