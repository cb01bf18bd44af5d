package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"todo-tracker/internal/chart"
	"todo-tracker/internal/logger"
	"todo-tracker/internal/models"
)

const (
	windowDays = 7
	dayKey     = "2006-01-02"
	dayLabel   = "Mon 2"
)

// DayBucket - число выполненных задач за один календарный день
type DayBucket struct {
	Date  string
	Label string
	Count int
}

// ProgressData - корзины окна от старой к новой
type ProgressData struct {
	Buckets []DayBucket
}

func (p ProgressData) ChartData() chart.Data {
	d := chart.Data{
		Labels: make([]string, len(p.Buckets)),
		Values: make([]int, len(p.Buckets)),
	}
	for i, b := range p.Buckets {
		d.Labels[i] = b.Label
		d.Values[i] = b.Count
	}
	return d
}

func (p ProgressData) Total() int {
	total := 0
	for _, b := range p.Buckets {
		total += b.Count
	}
	return total
}

// Window возвращает полночи семи календарных дней, заканчивая сегодняшним, в зоне loc
func Window(now time.Time, loc *time.Location) []time.Time {
	local := now.In(loc)
	days := make([]time.Time, windowDays)
	for i := 0; i < windowDays; i++ {
		offset := windowDays - 1 - i
		days[i] = time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	}
	return days
}

// Bucket раскладывает задачи по дате updated_at в зоне loc.
// Все корзины начинаются с нуля; задачи вне окна не считаются.
func Bucket(days []time.Time, tasks []models.Task, loc *time.Location) ProgressData {
	buckets := make([]DayBucket, len(days))
	index := make(map[string]int, len(days))
	for i, day := range days {
		key := day.In(loc).Format(dayKey)
		buckets[i] = DayBucket{Date: key, Label: day.In(loc).Format(dayLabel)}
		index[key] = i
	}

	for _, t := range tasks {
		if t.UpdatedAt.IsZero() {
			continue
		}
		if i, ok := index[t.UpdatedAt.In(loc).Format(dayKey)]; ok {
			buckets[i].Count++
		}
	}
	return ProgressData{Buckets: buckets}
}

// ProgressAggregator строит недельный график выполненных задач.
// Предыдущий график освобождается до отрисовки нового.
type ProgressAggregator struct {
	svc      ProgressService
	session  atomic.Pointer[models.Session]
	renderer chart.Renderer
	loc      *time.Location
	spinner  *Spinner
	now      func() time.Time

	mu      sync.Mutex
	current chart.Chart
	data    ProgressData
}

func NewProgressAggregator(svc ProgressService, renderer chart.Renderer, session *models.Session, loc *time.Location) *ProgressAggregator {
	if loc == nil {
		loc = time.Local
	}
	p := &ProgressAggregator{
		svc:      svc,
		renderer: renderer,
		loc:      loc,
		spinner:  NewSpinner("progress"),
		now:      time.Now,
	}
	p.session.Store(session)
	return p
}

func (p *ProgressAggregator) SetSession(s *models.Session) {
	p.session.Store(s)
}

func (p *ProgressAggregator) Spinner() *Spinner {
	return p.spinner
}

// Chart - текущий график или nil
func (p *ProgressAggregator) Chart() chart.Chart {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *ProgressAggregator) Data() ProgressData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.data
}

func (p *ProgressAggregator) LoadWeek(ctx context.Context) (chart.Chart, error) {
	s := p.session.Load()
	if s == nil {
		return nil, ErrNoSession
	}

	days := Window(p.now(), p.loc)

	p.spinner.Show()
	tasks, err := p.svc.ListCompletedSince(ctx, s.AccessToken, s.User.ID, days[0])
	p.spinner.Hide()

	if err != nil {
		logger.Error(ctx, err, "Ошибка загрузки прогресса", "userID", s.User.ID)
		p.replace(nil, ProgressData{})
		return nil, err
	}

	data := Bucket(days, tasks, p.loc)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.destroyLocked()
	c, err := p.renderer.Render(data.ChartData())
	if err != nil {
		logger.Error(ctx, err, "Ошибка отрисовки графика", "userID", s.User.ID)
		p.data = ProgressData{}
		return nil, err
	}
	p.current = c
	p.data = data

	logger.Debug(ctx, "Прогресс загружен", "userID", s.User.ID, "completed", data.Total())
	return c, nil
}

func (p *ProgressAggregator) replace(c chart.Chart, data ProgressData) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.destroyLocked()
	p.current = c
	p.data = data
}

func (p *ProgressAggregator) destroyLocked() {
	if p.current != nil {
		p.current.Destroy()
		p.current = nil
	}
}

// Close освобождает текущий график при закрытии страницы
func (p *ProgressAggregator) Close() {
	p.replace(nil, ProgressData{})
}
