package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"todo-tracker/internal/chart"
	"todo-tracker/internal/models"
)

var openPages = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "todotracker_page_sessions",
		Help: "Number of open page sessions",
	},
)

// Remote - все операции размещенного сервиса, нужные странице
type Remote interface {
	AuthService
	TaskService
	ProgressService
}

type Deps struct {
	Remote   Remote
	Store    SessionStore
	Renderer chart.Renderer
	Location *time.Location
}

// PageSession - состояние одного посетителя: режим формы входа, список задач и текущий график.
// Контроллеры задач и прогресса появляются при первой загрузке защищенной страницы.
type PageSession struct {
	ID   string
	Auth *AuthController

	deps Deps

	mu       sync.Mutex
	session  *models.Session
	tasks    *TaskController
	progress *ProgressAggregator
	feedback *Feedback
	shownAt  time.Time
	email    string
	lastSeen time.Time
}

func newPageSession(id string, deps Deps) *PageSession {
	return &PageSession{
		ID:   id,
		Auth: NewAuthController(deps.Remote, deps.Store),
		deps: deps,
	}
}

// Attach привязывает сессию, проверенную при загрузке страницы
func (p *PageSession) Attach(s *models.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session = s
	if p.tasks == nil {
		p.tasks = NewTaskController(p.deps.Remote, s)
	} else {
		p.tasks.SetSession(s)
	}
	if p.progress == nil {
		p.progress = NewProgressAggregator(p.deps.Remote, p.deps.Renderer, s, p.deps.Location)
	} else {
		p.progress.SetSession(s)
	}
}

// Detach забывает сессию и освобождает график; форма входа остается
func (p *PageSession) Detach() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.session
	if p.progress != nil {
		p.progress.Close()
	}
	p.session = nil
	p.tasks = nil
	p.progress = nil
	return s
}

func (p *PageSession) Session() *models.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Tasks - nil, пока страница задач не загружалась
func (p *PageSession) Tasks() *TaskController {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tasks
}

func (p *PageSession) Progress() *ProgressAggregator {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

// Flash запоминает сообщение формы входа до истечения HideAfter
func (p *PageSession) Flash(fb Feedback, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.feedback = &fb
	p.shownAt = now
}

func (p *PageSession) Feedback(now time.Time) (Feedback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.feedback == nil {
		return Feedback{}, false
	}
	if p.feedback.HideAfter > 0 && now.Sub(p.shownAt) >= p.feedback.HideAfter {
		p.feedback = nil
		return Feedback{}, false
	}
	return *p.feedback, true
}

// RememberEmail - форма входа не очищается после ошибки
func (p *PageSession) RememberEmail(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.email = email
}

func (p *PageSession) Email() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.email
}

func (p *PageSession) touch(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen = now
}

func (p *PageSession) idleSince(now time.Time) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return now.Sub(p.lastSeen)
}

// Registry хранит открытые страницы по непрозрачному id
type Registry struct {
	deps Deps
	now  func() time.Time

	mu    sync.Mutex
	pages map[string]*PageSession
}

func NewRegistry(deps Deps) *Registry {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	return &Registry{
		deps:  deps,
		now:   time.Now,
		pages: make(map[string]*PageSession),
	}
}

// Open создает страницу с новым id
func (r *Registry) Open() *PageSession {
	return r.Acquire(uuid.NewString())
}

// Acquire возвращает страницу по id, создавая ее при необходимости
func (r *Registry) Acquire(id string) *PageSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pages[id]
	if !ok {
		p = newPageSession(id, r.deps)
		r.pages[id] = p
		openPages.Inc()
	}
	p.touch(r.now())
	return p
}

func (r *Registry) Get(id string) (*PageSession, bool) {
	if id == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pages[id]
	if ok {
		p.touch(r.now())
	}
	return p, ok
}

func (r *Registry) Forget(id string) {
	r.mu.Lock()
	p, ok := r.pages[id]
	delete(r.pages, id)
	r.mu.Unlock()

	if ok {
		p.Detach()
		openPages.Dec()
	}
}

// Sweep закрывает страницы, к которым не обращались дольше idle
func (r *Registry) Sweep(idle time.Duration) int {
	now := r.now()

	r.mu.Lock()
	var stale []*PageSession
	for id, p := range r.pages {
		if p.idleSince(now) > idle {
			stale = append(stale, p)
			delete(r.pages, id)
		}
	}
	r.mu.Unlock()

	for _, p := range stale {
		p.Detach()
		openPages.Dec()
	}
	return len(stale)
}

// Run периодически вызывает Sweep, пока ctx не отменен
func (r *Registry) Run(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(idle)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}
