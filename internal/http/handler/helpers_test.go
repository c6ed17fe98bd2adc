package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jaekwang-park/task-api/internal/cognito"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
	"github.com/jaekwang-park/task-api/internal/service"
)

const (
	userID  = "6f1c1d64-3b49-4d5b-9a59-3f1f5c0e2a11"
	otherID = "0b9f6e1a-8d8a-4a49-a2a4-8f6a2a6c7d22"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// fakeClock is a settable time source.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTaskService(repo repository.TaskRepository) (*service.TaskService, *fakeClock) {
	clock := &fakeClock{t: now}
	return service.NewTaskService(repo).WithClock(clock.Now), clock
}

// do sends a request through h as the given user. An empty user sends it
// unauthenticated.
func do(t *testing.T, h http.Handler, method, path, body, user string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req = req.WithContext(middleware.SetUserID(req.Context(), user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTask(t *testing.T, env envelope) model.TaskView {
	t.Helper()
	var task model.TaskView
	if err := json.Unmarshal(env.Data, &task); err != nil {
		t.Fatalf("failed to decode task: %v (data: %s)", err, env.Data)
	}
	return task
}

func decodeTasks(t *testing.T, env envelope) []model.TaskView {
	t.Helper()
	var tasks []model.TaskView
	if err := json.Unmarshal(env.Data, &tasks); err != nil {
		t.Fatalf("failed to decode tasks: %v (data: %s)", err, env.Data)
	}
	return tasks
}

// mockCognitoClient implements cognito.Client for testing.
type mockCognitoClient struct {
	signUpFn        func(ctx context.Context, creds cognito.Credentials) (cognito.Registration, error)
	confirmSignUpFn func(ctx context.Context, email, code string) error
	resendCodeFn    func(ctx context.Context, email string) error
	loginFn         func(ctx context.Context, creds cognito.Credentials) (cognito.Tokens, error)
	refreshFn       func(ctx context.Context, email, refreshToken string) (cognito.Tokens, error)
	signOutFn       func(ctx context.Context, accessToken string) error
}

func (m *mockCognitoClient) SignUp(ctx context.Context, creds cognito.Credentials) (cognito.Registration, error) {
	return m.signUpFn(ctx, creds)
}
func (m *mockCognitoClient) ConfirmSignUp(ctx context.Context, email, code string) error {
	return m.confirmSignUpFn(ctx, email, code)
}
func (m *mockCognitoClient) ResendCode(ctx context.Context, email string) error {
	return m.resendCodeFn(ctx, email)
}
func (m *mockCognitoClient) Login(ctx context.Context, creds cognito.Credentials) (cognito.Tokens, error) {
	return m.loginFn(ctx, creds)
}
func (m *mockCognitoClient) Refresh(ctx context.Context, email, refreshToken string) (cognito.Tokens, error) {
	return m.refreshFn(ctx, email, refreshToken)
}
func (m *mockCognitoClient) SignOut(ctx context.Context, accessToken string) error {
	return m.signOutFn(ctx, accessToken)
}
