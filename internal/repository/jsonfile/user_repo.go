package jsonfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dom/task-manager/internal/domain"
	"github.com/google/uuid"
)

const (
	UsersFile = "users.json"

	DemoUserID       = "1"
	DemoUsername     = "defaultuser"
	DemoPassword     = "password123"
	demoPasswordHash = "$2b$10$QnyG3udMiuNNz.mn99YSY.7KTsAfoaEn8.Y2Ku3tNfxMep180DRpi"
)

type passwordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// UserRepository stores users in <dir>/users.json.
type UserRepository struct {
	users  *collection[domain.User]
	hasher passwordHasher
	now    func() time.Time
}

func NewUserRepository(dir string, hasher passwordHasher) *UserRepository {
	r := &UserRepository{
		hasher: hasher,
		now:    time.Now,
	}
	r.users = newCollection(filepath.Join(dir, UsersFile), r.defaultUsers)
	return r
}

func (r *UserRepository) defaultUsers() []domain.User {
	return []domain.User{{
		ID:           DemoUserID,
		Username:     DemoUsername,
		PasswordHash: demoPasswordHash,
		CreatedAt:    r.now().UTC(),
	}}
}

func (r *UserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	return r.users.load(ctx)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.find(ctx, func(u *domain.User) bool { return u.ID == id })
}

// GetByUsername matches case-sensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(ctx, func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) find(ctx context.Context, match func(*domain.User) bool) (*domain.User, error) {
	users, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(&users[i]) {
			return &users[i], nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create hashes password and appends a new user. The username check and the
// write happen under the same lock, so concurrent registrations of one name
// cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, username, password string) (*domain.User, error) {
	hash, err := r.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}

	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	users, err := r.users.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return nil, domain.ErrUsernameTaken
		}
	}

	user := domain.User{
		ID:           id.String(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    r.now().UTC(),
	}
	if err := r.users.save(ctx, append(users, user)); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ValidateCredentials(password, hash string) (bool, error) {
	return r.hasher.Verify(password, hash)
}

// seedIfEmpty writes the demo user when the file holds an empty array.
func (r *UserRepository) seedIfEmpty(ctx context.Context) (int, bool, error) {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()

	users, err := r.users.load(ctx)
	if err != nil {
		return 0, false, err
	}
	if len(users) > 0 {
		return len(users), false, nil
	}

	seed := r.defaultUsers()
	if err := r.users.save(ctx, seed); err != nil {
		return 0, false, err
	}
	return len(seed), true, nil
}
