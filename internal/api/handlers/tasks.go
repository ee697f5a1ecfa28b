package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dom/task-manager/internal/api/middleware"
	"github.com/dom/task-manager/internal/domain"
	"github.com/dom/task-manager/internal/httpx"
	"github.com/dom/task-manager/internal/service"
	"github.com/go-chi/chi/v5"
)

type TaskHandler struct {
	taskService *service.TaskService
}

func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type CreateTaskRequest struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      *domain.TaskStatus `json:"status"`
}

// UpdateTaskRequest distinguishes absent fields (nil) from empty ones.
type UpdateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *domain.TaskStatus `json:"status"`
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	tasks, err := h.taskService.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	task, err := h.taskService.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(r.Context(), user.ID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	task, err := h.taskService.Update(r.Context(), user.ID, chi.URLParam(r, "id"), domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	task, err := h.taskService.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.JSON(w, http.StatusOK, task)
}
