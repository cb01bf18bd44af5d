package remote

import (
	"context"
	"time"

	"todo-tracker/internal/models"
)

const tasksTable = "tasks"

// ListTasks возвращает задачи пользователя, новые первыми
func (c *Client) ListTasks(ctx context.Context, token, userID string) ([]models.Task, error) {
	var tasks []models.Task
	err := c.From(tasksTable).
		Select("*").
		Eq("user_id", userID).
		Order("created_at", false).
		Get(ctx, "list_tasks", token, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListCompletedSince - выполненные задачи с updated_at >= since; верхняя граница не нужна
func (c *Client) ListCompletedSince(ctx context.Context, token, userID string, since time.Time) ([]models.Task, error) {
	var tasks []models.Task
	err := c.From(tasksTable).
		Select("id,status,updated_at").
		Eq("user_id", userID).
		Eq("status", string(models.StatusCompleted)).
		Gte("updated_at", since.UTC().Format(time.RFC3339)).
		Get(ctx, "list_completed", token, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) InsertTask(ctx context.Context, token string, req models.CreateTaskRequest) (*models.Task, error) {
	var task models.Task
	if err := c.From(tasksTable).InsertSingle(ctx, "insert_task", token, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, token string, id models.TaskID, status models.TaskStatus) error {
	return c.From(tasksTable).
		Eq("id", id.String()).
		Patch(ctx, "update_task", token, models.UpdateTaskRequest{Status: status})
}

func (c *Client) DeleteTask(ctx context.Context, token string, id models.TaskID) error {
	return c.From(tasksTable).
		Eq("id", id.String()).
		Delete(ctx, "delete_task", token)
}
