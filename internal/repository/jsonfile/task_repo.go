package jsonfile

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/dom/task-manager/internal/domain"
	"github.com/rs/zerolog/log"
)

const TasksFile = "tasks.json"

var errMissingTaskID = errors.New("task id must be assigned with NextID before Create")

// TaskRepository stores tasks in <dir>/tasks.json. Every operation reloads
// and, for mutations, rewrites the whole file.
type TaskRepository struct {
	tasks   *collection[domain.Task]
	counter *IDCounter
	now     func() time.Time
}

func NewTaskRepository(dir string, counter *IDCounter) *TaskRepository {
	r := &TaskRepository{
		counter: counter,
		now:     time.Now,
	}
	r.tasks = newCollection(filepath.Join(dir, TasksFile), r.defaultTasks)
	return r
}

func (r *TaskRepository) defaultTasks() []domain.Task {
	ts := r.now().UTC()
	return []domain.Task{{
		ID:          "1",
		UserID:      DemoUserID,
		Title:       "Sample Task",
		Description: "This is a sample task to get started",
		Status:      domain.TaskStatusPending,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}}
}

func (r *TaskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()
	return r.tasks.load(ctx)
}

func (r *TaskRepository) GetByUser(ctx context.Context, userID string) ([]domain.Task, error) {
	tasks, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	owned := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	tasks, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(tasks, id); i >= 0 {
		return &tasks[i], nil
	}
	return nil, domain.ErrTaskNotFound
}

// NextID falls back to 1 when the existing tasks cannot be read. The counter
// stays unseeded after such a failure, and the seed read ignores cancellation
// of ctx so a dropped request cannot pin the counter at 1.
func (r *TaskRepository) NextID(ctx context.Context) string {
	seedCtx := context.WithoutCancel(ctx)
	return r.counter.Next(func() (int64, bool) {
		tasks, err := r.GetAll(seedCtx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read tasks for id seed")
			return 1, false
		}
		ids := make([]string, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		return maxNumericID(ids) + 1, true
	})
}

func (r *TaskRepository) Create(ctx context.Context, task domain.Task) (*domain.Task, error) {
	if task.ID == "" {
		return nil, errMissingTaskID
	}

	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()

	tasks, err := r.tasks.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.tasks.save(ctx, append(tasks, task)); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (*domain.Task, error) {
	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()

	tasks, err := r.tasks.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return nil, domain.ErrTaskNotFound
	}

	patch.Apply(&tasks[i], r.now().UTC())
	if err := r.tasks.save(ctx, tasks); err != nil {
		return nil, err
	}
	updated := tasks[i]
	return &updated, nil
}

// Delete leaves the file untouched when id does not exist.
func (r *TaskRepository) Delete(ctx context.Context, id string) (*domain.Task, error) {
	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()

	tasks, err := r.tasks.load(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return nil, domain.ErrTaskNotFound
	}

	deleted := tasks[i]
	remaining := append(tasks[:i:i], tasks[i+1:]...)
	if err := r.tasks.save(ctx, remaining); err != nil {
		return nil, err
	}
	return &deleted, nil
}

func indexOf(tasks []domain.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
