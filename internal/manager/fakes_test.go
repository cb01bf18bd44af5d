package manager

import (
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"todo-tracker/internal/chart"
	"todo-tracker/internal/models"
	"todo-tracker/internal/remote"
)

func testSession() *models.Session {
	return &models.Session{
		ID:          "sess-1",
		AccessToken: "token-1",
		User:        models.User{ID: "user-1", Email: "user@example.com"},
	}
}

type fakeTasks struct {
	mu      sync.Mutex
	tasks   []models.Task
	nextID  int
	calls   int
	err     error
	inserts []models.CreateTaskRequest
	updates map[models.TaskID]models.TaskStatus
	deletes []models.TaskID
}

func newFakeTasks(tasks ...models.Task) *fakeTasks {
	return &fakeTasks{tasks: tasks, nextID: 100, updates: map[models.TaskID]models.TaskStatus{}}
}

func (f *fakeTasks) ListTasks(ctx context.Context, token, userID string) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeTasks) InsertTask(ctx context.Context, token string, req models.CreateTaskRequest) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.inserts = append(f.inserts, req)
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	task := models.Task{
		ID:     models.TaskID(fmt.Sprint(f.nextID)),
		Title:  req.Title,
		Status: req.Status,
		UserID: req.UserID,
	}
	if req.Deadline != nil {
		ts, err := models.ParseTimestamp(*req.Deadline)
		if err != nil {
			return nil, &remote.ServiceError{Status: 400, Message: "invalid input syntax for type timestamp"}
		}
		task.Deadline = &ts
	}
	f.tasks = append([]models.Task{task}, f.tasks...)
	return &task, nil
}

func (f *fakeTasks) UpdateTaskStatus(ctx context.Context, token string, id models.TaskID, status models.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.updates[id] = status
	return nil
}

func (f *fakeTasks) DeleteTask(ctx context.Context, token string, id models.TaskID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.deletes = append(f.deletes, id)
	return nil
}

type fakeAuth struct {
	mu         sync.Mutex
	signIns    int
	signUps    int
	signOuts   int
	err        error
	signOutErr error
	block      chan struct{}
	entered    chan struct{}
	lastEmail  string
	lastToken  string
}

func (f *fakeAuth) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIns++
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return &models.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         models.User{ID: "user-1", Email: email},
	}, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUps++
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "user-2", Email: email}, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	f.lastToken = accessToken
	return f.signOutErr
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]*models.Session{}}
}

func (f *fakeStore) SaveSession(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

type fakeProgress struct {
	tasks []models.Task
	err   error
	since time.Time
}

func (f *fakeProgress) ListCompletedSince(ctx context.Context, token, userID string, since time.Time) ([]models.Task, error) {
	f.since = since
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks, nil
}

type fakeChart struct {
	data      chart.Data
	destroyed bool
}

func (c *fakeChart) HTML() template.HTML { return "<svg></svg>" }
func (c *fakeChart) Data() chart.Data    { return c.data }
func (c *fakeChart) Destroy()            { c.destroyed = true }

type fakeRenderer struct {
	charts []*fakeChart
}

func (r *fakeRenderer) Render(d chart.Data) (chart.Chart, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	c := &fakeChart{data: d}
	r.charts = append(r.charts, c)
	return c, nil
}
