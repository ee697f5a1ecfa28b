package repository

import (
	"context"

	"github.com/dom/task-manager/internal/domain"
)

// UserRepository lookups return domain.ErrUserNotFound when nothing matches.
type UserRepository interface {
	GetAll(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, username, password string) (*domain.User, error)
	ValidateCredentials(password, hash string) (bool, error)
}

// TaskRepository lookups and mutations return domain.ErrTaskNotFound when
// the id does not exist.
type TaskRepository interface {
	GetAll(ctx context.Context) ([]domain.Task, error)
	GetByUser(ctx context.Context, userID string) ([]domain.Task, error)
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	NextID(ctx context.Context) string
	Create(ctx context.Context, task domain.Task) (*domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string) (*domain.Task, error)
}

type Repositories struct {
	User UserRepository
	Task TaskRepository
}
