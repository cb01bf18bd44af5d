package manager

import (
	"context"
	"time"

	"todo-tracker/internal/models"
)

// AuthService - операции auth сервиса, которые нужны контроллеру входа
type AuthService interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context, accessToken string) error
}

// SessionStore - локальное хранилище сессий (storage.Storage подходит)
type SessionStore interface {
	SaveSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error
}

type TaskService interface {
	ListTasks(ctx context.Context, token, userID string) ([]models.Task, error)
	InsertTask(ctx context.Context, token string, req models.CreateTaskRequest) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, token string, id models.TaskID, status models.TaskStatus) error
	DeleteTask(ctx context.Context, token string, id models.TaskID) error
}

type ProgressService interface {
	ListCompletedSince(ctx context.Context, token, userID string, since time.Time) ([]models.Task, error)
}
