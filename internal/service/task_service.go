package service

import (
	"context"
	"strings"
	"time"

	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/repository"
)

// TaskEventPublisher receives a notification after every successful mutation.
type TaskEventPublisher interface {
	PublishTaskEvent(event domain.TaskEvent)
}

type noopPublisher struct{}

func (noopPublisher) PublishTaskEvent(domain.TaskEvent) {}

// TaskService scopes every operation to the calling user. Tasks owned by
// someone else are reported as domain.ErrTaskNotFound.
type TaskService struct {
	taskRepo  repository.TaskRepository
	publisher TaskEventPublisher
	now       func() time.Time
}

func NewTaskService(taskRepo repository.TaskRepository, publisher TaskEventPublisher) *TaskService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &TaskService{
		taskRepo:  taskRepo,
		publisher: publisher,
		now:       time.Now,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      *domain.TaskStatus
}

func (s *TaskService) List(ctx context.Context, userID string) ([]domain.Task, error) {
	return s.taskRepo.GetByUser(ctx, userID)
}

func (s *TaskService) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (s *TaskService) Create(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, invalidBecause(domain.ErrEmptyTitle, "Title is required")
	}

	status := domain.TaskStatusPending
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, invalidBecause(domain.ErrInvalidTaskStatus, "Status must be pending or completed")
		}
		status = *input.Status
	}

	now := s.now().UTC()
	task, err := s.taskRepo.Create(ctx, domain.Task{
		ID:          s.taskRepo.NextID(ctx),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishTaskEvent(domain.TaskEvent{Type: domain.TaskEventCreated, Task: *task})
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalidBecause(domain.ErrEmptyTitle, "Title cannot be empty")
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalidBecause(domain.ErrInvalidTaskStatus, "Status must be pending or completed")
	}

	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Update(ctx, taskID, patch)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishTaskEvent(domain.TaskEvent{Type: domain.TaskEventUpdated, Task: *task})
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	if _, err := s.Get(ctx, userID, taskID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.Delete(ctx, taskID)
	if err != nil {
		return nil, err
	}

	s.publisher.PublishTaskEvent(domain.TaskEvent{Type: domain.TaskEventDeleted, Task: *task})
	return task, nil
}
