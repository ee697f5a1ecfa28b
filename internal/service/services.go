package service

import (
	"github.com/dom/task-manager/internal/auth"
	"github.com/dom/task-manager/internal/config"
	"github.com/dom/task-manager/internal/repository"
)

type Services struct {
	Auth *AuthService
	Task *TaskService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, publisher TaskEventPublisher) *Services {
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())
	return &Services{
		Auth: NewAuthService(repos.User, tokens),
		Task: NewTaskService(repos.Task, publisher),
	}
}
