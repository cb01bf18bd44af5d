package manager

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/models"
)

var (
	addTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todotracker_tasks_added_total",
			Help: "Total number of AddTask operations",
		},
		[]string{"status"},
	)

	toggleTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todotracker_tasks_toggled_total",
			Help: "Total number of ToggleTask operations",
		},
		[]string{"status"},
	)

	deleteTaskCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todotracker_tasks_deleted_total",
			Help: "Total number of DeleteTask operations",
		},
		[]string{"status"},
	)

	taskTitleLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todotracker_task_title_length_bytes",
			Help:    "Length distribution of task titles",
			Buckets: []float64{50, 100, 500, 1000},
		},
	)

	addTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todotracker_add_task_duration_seconds",
			Help:    "Duration of AddTask operation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	updateTaskDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "todotracker_update_task_duration_seconds",
			Help:    "Duration of ToggleTask and DeleteTask operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

var ErrNoSession = errors.New("нет активной сессии")

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// TaskController выполняет команды над задачами и применяет результат к Board.
// Ошибки изменений только логируются и возвращаются, Board при этом не меняется.
type TaskController struct {
	svc     TaskService
	session atomic.Pointer[models.Session]
	board   *Board
	spinner *Spinner
	now     func() time.Time
}

func NewTaskController(svc TaskService, session *models.Session) *TaskController {
	c := &TaskController{
		svc:     svc,
		board:   NewBoard(),
		spinner: NewSpinner("tasks"),
		now:     time.Now,
	}
	c.session.Store(session)
	return c
}

// SetSession подменяет сессию после обновления токена
func (c *TaskController) SetSession(s *models.Session) {
	c.session.Store(s)
}

func (c *TaskController) Board() *Board {
	return c.board
}

func (c *TaskController) Spinner() *Spinner {
	return c.spinner
}

func (c *TaskController) current() (*models.Session, error) {
	s := c.session.Load()
	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// LoadAll загружает все задачи пользователя; при ошибке список остается пустым, повтора нет
func (c *TaskController) LoadAll(ctx context.Context) error {
	s, err := c.current()
	if err != nil {
		return err
	}

	c.spinner.Show()
	tasks, err := c.svc.ListTasks(ctx, s.AccessToken, s.User.ID)
	c.spinner.Hide()

	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки задач", "userID", s.User.ID)
		c.board.Clear()
		return err
	}

	c.board.Reset(tasks, c.now())
	logger.Debug(ctx, "Задачи загружены", "userID", s.User.ID, "count", len(tasks))
	return nil
}

// Add создает задачу; пустой deadline означает отсутствие срока, формат не проверяется
func (c *TaskController) Add(ctx context.Context, title, deadline string) (task *models.Task, err error) {
	startTime := time.Now()
	defer func() {
		addTaskDuration.Observe(time.Since(startTime).Seconds())
	}()

	title = strings.TrimSpace(title)
	if err := validateForm(taskForm{Title: title}, "Task title is required."); err != nil {
		addTaskCount.WithLabelValues("error").Inc()
		return nil, err
	}

	s, err := c.current()
	if err != nil {
		return nil, err
	}

	req := models.CreateTaskRequest{
		Title:  title,
		UserID: s.User.ID,
		Status: models.StatusIncomplete,
	}
	if deadline != "" {
		req.Deadline = &deadline
	}

	task, err = c.svc.InsertTask(ctx, s.AccessToken, req)
	addTaskCount.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		logger.Error(ctx, err, "Ошибка добавления задачи", "userID", s.User.ID)
		return nil, err
	}

	taskTitleLength.Observe(float64(len(title)))
	c.board.Prepend(*task, c.now())
	logger.Info(ctx, "Задача добавлена", "userID", s.User.ID, "taskID", task.ID)
	return task, nil
}

// Toggle выставляет статус (а не инвертирует его), поэтому повторный вызов идемпотентен
func (c *TaskController) Toggle(ctx context.Context, id models.TaskID, completed bool) error {
	startTime := time.Now()
	defer func() {
		updateTaskDuration.Observe(time.Since(startTime).Seconds())
	}()

	s, err := c.current()
	if err != nil {
		return err
	}

	status := models.StatusFor(completed)
	err = c.svc.UpdateTaskStatus(ctx, s.AccessToken, id, status)
	toggleTaskCount.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		logger.Error(ctx, err, "Ошибка обновления задачи", "taskID", id)
		return err
	}

	c.board.SetStatus(id, status, c.now())
	return nil
}

func (c *TaskController) Remove(ctx context.Context, id models.TaskID) error {
	startTime := time.Now()
	defer func() {
		updateTaskDuration.Observe(time.Since(startTime).Seconds())
	}()

	s, err := c.current()
	if err != nil {
		return err
	}

	err = c.svc.DeleteTask(ctx, s.AccessToken, id)
	deleteTaskCount.WithLabelValues(statusLabel(err)).Inc()
	if err != nil {
		logger.Error(ctx, err, "Ошибка удаления задачи", "taskID", id)
		return err
	}

	c.board.Remove(id)
	return nil
}
