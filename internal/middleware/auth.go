package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCookie carries the ID token for browser clients that do not send an
// Authorization header.
const TokenCookie = "token"

var (
	// ErrUserNotFound is returned by UserResolver when no user matches the given Cognito sub.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserStoreUnavailable is returned by UserResolver when the lookup could not reach the store.
	ErrUserStoreUnavailable = errors.New("user store unavailable")
)

// UserResolver resolves a Cognito sub claim to a database user ID.
type UserResolver interface {
	ResolveUserID(ctx context.Context, cognitoSub string) (string, error)
}

type UserResolverFunc func(ctx context.Context, cognitoSub string) (string, error)

func (f UserResolverFunc) ResolveUserID(ctx context.Context, cognitoSub string) (string, error) {
	return f(ctx, cognitoSub)
}

type AuthConfig struct {
	DevMode      bool
	JWKSClient   *JWKSClient
	Issuer       string
	AppClientID  string
	UserResolver UserResolver
}

type Auth struct {
	cfg AuthConfig
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	if !cfg.DevMode {
		if cfg.UserResolver == nil {
			return nil, fmt.Errorf("middleware: UserResolver is required when DevMode is false")
		}
		if cfg.JWKSClient == nil {
			return nil, fmt.Errorf("middleware: JWKSClient is required when DevMode is false")
		}
	}
	return &Auth{cfg: cfg}, nil
}

// isPublic reports whether p bypasses user authentication. Admin routes
// carry their own token check.
func isPublic(p string) bool {
	p = path.Clean(p)
	return p == "/health" ||
		strings.HasPrefix(p, "/api/v1/auth/") ||
		strings.HasPrefix(p, "/api/v1/admin/")
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.DevMode {
			a.handleDevMode(w, r, next)
			return
		}

		a.handleJWT(w, r, next)
	})
}

func (a *Auth) handleDevMode(w http.ResponseWriter, r *http.Request, next http.Handler) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header required in dev mode")
		return
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID must be a UUID")
		return
	}

	ctx := SetUserID(r.Context(), userID.String())
	next.ServeHTTP(w, r.WithContext(ctx))
}

// bearerToken prefers the Authorization header and falls back to the
// token cookie.
func bearerToken(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			return "", errors.New("invalid authorization header format")
		}
		return strings.TrimSpace(tok), nil
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errors.New("authentication required")
}

func (a *Auth) handleJWT(w http.ResponseWriter, r *http.Request, next http.Handler) {
	tokenStr, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("kid header not found")
		}
		return a.cfg.JWKSClient.GetKey(r.Context(), kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(a.cfg.Issuer),
		jwt.WithAudience(a.cfg.AppClientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		slog.DebugContext(r.Context(), "token rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}

	// Only ID tokens carry the app client as audience; reject anything else.
	if use, _ := claims["token_use"].(string); use != "" && use != "id" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token type")
		return
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "sub claim not found")
		return
	}

	userID, err := a.cfg.UserResolver.ResolveUserID(r.Context(), sub)
	switch {
	case err == nil:
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "user not found")
		return
	case errors.Is(err, ErrUserStoreUnavailable):
		slog.ErrorContext(r.Context(), "user resolution unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "service temporarily unavailable")
		return
	default:
		slog.ErrorContext(r.Context(), "user resolution failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	ctx := SetUserID(r.Context(), userID)
	next.ServeHTTP(w, r.WithContext(ctx))
}

// CognitoJWKSURL returns the JWKS URL for the given Cognito User Pool.
func CognitoJWKSURL(region, userPoolID string) string {
	return fmt.Sprintf("%s/.well-known/jwks.json", CognitoIssuer(region, userPoolID))
}

// CognitoIssuer returns the expected issuer for the given Cognito User Pool.
func CognitoIssuer(region, userPoolID string) string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
