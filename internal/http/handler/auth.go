package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/service"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	svc          *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. cookieSecure marks the session
// cookie Secure and should be set whenever the API is served over TLS.
func NewAuthHandler(svc *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure}
}

// ServeHTTP routes /api/v1/auth/* requests.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/auth/")
	path = strings.TrimRight(path, "/")

	handlers := map[string]http.HandlerFunc{
		"signup":         h.handleSignUp,
		"confirm-signup": h.handleConfirmSignUp,
		"resend-code":    h.handleResendCode,
		"login":          h.handleLogin,
		"refresh":        h.handleRefresh,
		"logout":         h.handleLogout,
	}
	fn, ok := handlers[path]
	if !ok {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	fn(w, r)
}

// --- DTOs ---

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type confirmSignUpRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resendCodeRequest struct {
	Email string `json:"email"`
}

type refreshRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	AccessToken string `json:"access_token"`
}

// --- Handlers ---

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.svc.SignUp(r.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: out, Message: "user registered, confirmation code sent"})
}

func (h *AuthHandler) handleConfirmSignUp(w http.ResponseWriter, r *http.Request) {
	var req confirmSignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ConfirmSignUp(r.Context(), req.Email, req.Code); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "email confirmed")
}

func (h *AuthHandler) handleResendCode(w http.ResponseWriter, r *http.Request) {
	var req resendCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.ResendCode(r.Context(), req.Email); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "confirmation code resent")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	h.setTokenCookie(w, out.IDToken, out.ExpiresIn)
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: out, Message: "login successful"})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	out, err := h.svc.Refresh(r.Context(), req.Email, req.RefreshToken)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	h.setTokenCookie(w, out.IDToken, out.ExpiresIn)
	WriteSuccess(w, http.StatusOK, out)
}

// handleLogout revokes the access token when one is sent and always clears
// the session cookie. An empty body is accepted.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.svc.Logout(r.Context(), req.AccessToken); err != nil {
		WriteServiceError(w, r, err)
		return
	}

	h.clearTokenCookie(w)
	WriteMessage(w, http.StatusOK, "signed out")
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string, expiresIn int32) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(expiresIn),
		Expires:  time.Now().Add(time.Duration(expiresIn) * time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
