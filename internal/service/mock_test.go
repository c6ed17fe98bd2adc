package service_test

import (
	"context"
	"time"

	"github.com/jaekwang-park/task-api/internal/cognito"
	"github.com/jaekwang-park/task-api/internal/model"
)

// mockTaskRepo implements repository.TaskRepository for testing
type mockTaskRepo struct {
	createFn           func(ctx context.Context, task model.Task) (model.Task, error)
	getByIDFn          func(ctx context.Context, userID, taskID string) (model.Task, error)
	updateFn           func(ctx context.Context, task model.Task) (model.Task, error)
	deleteFn           func(ctx context.Context, userID, taskID string) error
	listFn             func(ctx context.Context, q model.TaskQuery) (model.TaskPage, error)
	statsFn            func(ctx context.Context, userID string, now time.Time) (model.TaskStats, error)
	startTimerFn       func(ctx context.Context, userID, taskID string, at time.Time) (model.Task, error)
	stopTimerFn        func(ctx context.Context, userID, taskID string, startedAt time.Time, minutes int) (model.Task, error)
	listRecurringDueFn func(ctx context.Context, now time.Time) ([]model.Task, error)
	rollOverFn         func(ctx context.Context, userID, taskID string, dueAt, nextDue time.Time) (model.Task, error)
	deleteAllFn        func(ctx context.Context) (int64, error)
}

func (m *mockTaskRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	return m.createFn(ctx, task)
}
func (m *mockTaskRepo) GetByID(ctx context.Context, userID, taskID string) (model.Task, error) {
	return m.getByIDFn(ctx, userID, taskID)
}
func (m *mockTaskRepo) Update(ctx context.Context, task model.Task) (model.Task, error) {
	return m.updateFn(ctx, task)
}
func (m *mockTaskRepo) Delete(ctx context.Context, userID, taskID string) error {
	return m.deleteFn(ctx, userID, taskID)
}
func (m *mockTaskRepo) List(ctx context.Context, q model.TaskQuery) (model.TaskPage, error) {
	return m.listFn(ctx, q)
}
func (m *mockTaskRepo) Stats(ctx context.Context, userID string, now time.Time) (model.TaskStats, error) {
	return m.statsFn(ctx, userID, now)
}
func (m *mockTaskRepo) StartTimer(ctx context.Context, userID, taskID string, at time.Time) (model.Task, error) {
	return m.startTimerFn(ctx, userID, taskID, at)
}
func (m *mockTaskRepo) StopTimer(ctx context.Context, userID, taskID string, startedAt time.Time, minutes int) (model.Task, error) {
	return m.stopTimerFn(ctx, userID, taskID, startedAt, minutes)
}
func (m *mockTaskRepo) ListRecurringDue(ctx context.Context, now time.Time) ([]model.Task, error) {
	return m.listRecurringDueFn(ctx, now)
}
func (m *mockTaskRepo) RollOver(ctx context.Context, userID, taskID string, dueAt, nextDue time.Time) (model.Task, error) {
	return m.rollOverFn(ctx, userID, taskID, dueAt, nextDue)
}
func (m *mockTaskRepo) DeleteAll(ctx context.Context) (int64, error) {
	return m.deleteAllFn(ctx)
}

type mockUserRepo struct {
	getOrCreateFn     func(ctx context.Context, cognitoSub, email string) (model.User, error)
	getByCognitoSubFn func(ctx context.Context, cognitoSub string) (model.User, error)
	getByIDFn         func(ctx context.Context, userID string) (model.User, error)
	updateProfileFn   func(ctx context.Context, user model.User) (model.User, error)
}

func (m *mockUserRepo) GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error) {
	return m.getOrCreateFn(ctx, cognitoSub, email)
}
func (m *mockUserRepo) GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error) {
	return m.getByCognitoSubFn(ctx, cognitoSub)
}
func (m *mockUserRepo) GetByID(ctx context.Context, userID string) (model.User, error) {
	return m.getByIDFn(ctx, userID)
}
func (m *mockUserRepo) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	return m.updateProfileFn(ctx, user)
}

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
