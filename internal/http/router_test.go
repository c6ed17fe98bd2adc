package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jaekwang-park/task-api/internal/cognito"
	taskhttp "github.com/jaekwang-park/task-api/internal/http"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/repository"
	"github.com/jaekwang-park/task-api/internal/service"
)

const testUserID = "6f1c1d64-3b49-4d5b-9a59-3f1f5c0e2a11"

// stubCognitoClient rejects every call; router tests only check mounting.
type stubCognitoClient struct{}

func (stubCognitoClient) SignUp(ctx context.Context, creds cognito.Credentials) (cognito.Registration, error) {
	return cognito.Registration{}, cognito.ErrInvalidParameter
}
func (stubCognitoClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	return cognito.ErrInvalidParameter
}
func (stubCognitoClient) ResendCode(ctx context.Context, email string) error {
	return cognito.ErrInvalidParameter
}
func (stubCognitoClient) Login(ctx context.Context, creds cognito.Credentials) (cognito.Tokens, error) {
	return cognito.Tokens{}, cognito.ErrNotAuthorized
}
func (stubCognitoClient) Refresh(ctx context.Context, email, refreshToken string) (cognito.Tokens, error) {
	return cognito.Tokens{}, cognito.ErrNotAuthorized
}
func (stubCognitoClient) SignOut(ctx context.Context, accessToken string) error {
	return nil
}

func newTestServices(withAuth bool) taskhttp.Services {
	users := repository.NewMemoryUser()
	svcs := taskhttp.Services{
		Tasks: service.NewTaskService(repository.NewMemoryTask()),
		Users: service.NewUserService(users),
	}
	if withAuth {
		svcs.Auth = service.NewAuthService(stubCognitoClient{}, users)
	}
	return svcs
}

func serve(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := taskhttp.NewRouter(newTestServices(false), taskhttp.RouterOptions{})

	w := serve(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success || result.Data.Status != "ok" {
		t.Errorf("unexpected health body %+v", result)
	}
}

func TestRouter_TaskAndUserEndpointsRegistered(t *testing.T) {
	router := taskhttp.NewRouter(newTestServices(false), taskhttp.RouterOptions{})

	// The router does not authenticate; the user id normally comes from the auth middleware.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("tasks: expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}

	w = serve(router, http.MethodGet, "/api/v1/tasks/stats", "", nil)
	if w.Code == http.StatusNotFound {
		t.Error("stats route not registered")
	}

	w = serve(router, http.MethodDelete, "/api/v1/users/me", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("users: expected 405 from mounted handler, got %d", w.Code)
	}
}

func TestRouter_AuthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		withAuth   bool
		wantStatus int
	}{
		{"mounted with user pool", true, http.StatusUnauthorized},
		{"absent without user pool", false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := taskhttp.NewRouter(newTestServices(tt.withAuth), taskhttp.RouterOptions{})
			w := serve(router, http.MethodPost, "/api/v1/auth/login", `{"email":"a@example.com","password":"pw123456"}`, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRouter_AdminEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		adminToken string
		sent       string
		wantStatus int
	}{
		{"not mounted by default", "", "anything", http.StatusNotFound},
		{"mounted, wrong token", "s3cret", "guess", http.StatusForbidden},
		{"mounted, right token", "s3cret", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := taskhttp.NewRouter(newTestServices(false), taskhttp.RouterOptions{AdminToken: tt.adminToken})
			w := serve(router, http.MethodDelete, "/api/v1/admin/tasks", "", map[string]string{middleware.AdminTokenHeader: tt.sent})
			if w.Code != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := taskhttp.NewRouter(newTestServices(false), taskhttp.RouterOptions{})

	w := serve(router, http.MethodGet, "/unknown", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON 404, got %s", ct)
	}
}
