package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by id
	now   func() time.Time
}

func NewMemoryUser() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]model.User),
		now:   time.Now,
	}
}

func (r *MemoryUserRepository) GetOrCreate(ctx context.Context, cognitoSub, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.users {
		if u.CognitoSub == cognitoSub {
			u.Email = email
			u.UpdatedAt = r.now()
			r.users[id] = u
			return u, nil
		}
	}

	ts := r.now()
	u := model.User{
		ID:         uuid.NewString(),
		CognitoSub: cognitoSub,
		Email:      email,
		CreatedAt:  ts,
		UpdatedAt:  ts,
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *MemoryUserRepository) GetByCognitoSub(ctx context.Context, cognitoSub string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.CognitoSub == cognitoSub {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userID]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (r *MemoryUserRepository) UpdateProfile(ctx context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[user.ID]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	u.Nickname = user.Nickname
	u.ProfileImageURL = user.ProfileImageURL
	u.UpdatedAt = r.now()
	r.users[u.ID] = u
	return u, nil
}

var _ UserRepository = (*MemoryUserRepository)(nil)
