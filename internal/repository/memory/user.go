package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campushub/campushub-backend/internal/models"
)

// UserRepository is an in-memory repository.UserRepository
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

// NewUserRepository creates an empty in-memory user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[uuid.UUID]models.User),
	}
}

// Create stores a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	if user.Plan == "" {
		user.Plan = models.PlanFree
	}
	user.IsActive = true
	r.users[user.ID] = *user
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

// UpdateLastLogin records a successful login
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	now := time.Now()
	user.LastLoginAt = &now
	r.users[id] = user
	return nil
}
