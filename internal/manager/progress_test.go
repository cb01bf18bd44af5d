package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/models"
)

func completedAt(t time.Time) models.Task {
	return models.Task{Status: models.StatusCompleted, UpdatedAt: models.NewTimestamp(t)}
}

func TestWindowEndsToday(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC - уже следующий день в UTC+3
	now := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)

	days := Window(now, loc)
	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, loc), days[0])
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, loc), days[6])
	for i := 1; i < len(days); i++ {
		assert.True(t, days[i].After(days[i-1]))
	}
}

func TestBucketZeroFillsAndLabels(t *testing.T) {
	days := Window(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), time.UTC)

	data := Bucket(days, nil, time.UTC)
	chartData := data.ChartData()

	assert.Equal(t, []string{"Wed 4", "Thu 5", "Fri 6", "Sat 7", "Sun 8", "Mon 9", "Tue 10"}, chartData.Labels)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0}, chartData.Values)
	assert.Equal(t, "2026-03-04", data.Buckets[0].Date)
}

func TestBucketCountsOnlyWindow(t *testing.T) {
	days := Window(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), time.UTC)
	tasks := []models.Task{
		completedAt(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)),
		completedAt(time.Date(2026, 3, 4, 23, 59, 59, 0, time.UTC)),
		completedAt(time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)),
		completedAt(time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)),
		completedAt(time.Date(2026, 3, 3, 23, 59, 59, 0, time.UTC)),
		completedAt(time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC)),
		{Status: models.StatusCompleted},
	}

	data := Bucket(days, tasks, time.UTC)

	assert.Equal(t, []int{2, 0, 0, 0, 1, 0, 1}, data.ChartData().Values)
	assert.Equal(t, 4, data.Total())
}

func TestBucketUsesLocationForDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	days := Window(time.Date(2026, 3, 10, 12, 0, 0, 0, loc), loc)

	// 02:00 UTC 10 марта - это еще 9 марта в UTC-5
	data := Bucket(days, []models.Task{completedAt(time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC))}, loc)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 0}, data.ChartData().Values)
}

func TestBucketSumMatchesTasksInWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	days := Window(now, time.UTC)

	var tasks []models.Task
	inWindow := 0
	for h := -24 * 9; h <= 24; h += 5 {
		ts := now.Add(time.Duration(h) * time.Hour)
		tasks = append(tasks, completedAt(ts))
		if !ts.Before(days[0]) && ts.Before(days[6].AddDate(0, 0, 1)) {
			inWindow++
		}
	}

	data := Bucket(days, tasks, time.UTC)
	assert.Len(t, data.Buckets, 7)
	assert.Equal(t, inWindow, data.Total())
}

func newTestAggregator(svc ProgressService, r *fakeRenderer) *ProgressAggregator {
	p := NewProgressAggregator(svc, r, testSession(), time.UTC)
	p.now = func() time.Time { return fixedNow }
	return p
}

func TestLoadWeekReplacesPreviousChart(t *testing.T) {
	svc := &fakeProgress{tasks: []models.Task{completedAt(fixedNow.Add(-time.Hour))}}
	r := &fakeRenderer{}
	p := newTestAggregator(svc, r)
	ctx := context.Background()

	first, err := p.LoadWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), svc.since)

	second, err := p.LoadWeek(ctx)
	require.NoError(t, err)

	require.Len(t, r.charts, 2)
	assert.True(t, r.charts[0].destroyed)
	assert.False(t, r.charts[1].destroyed)
	assert.NotSame(t, first, second)
	assert.Equal(t, second, p.Chart())
	assert.Equal(t, 1, p.Data().Total())
	assert.False(t, p.Spinner().Visible())

	p.Close()
	assert.True(t, r.charts[1].destroyed)
	assert.Nil(t, p.Chart())
}

func TestLoadWeekErrorLeavesNoChart(t *testing.T) {
	svc := &fakeProgress{}
	r := &fakeRenderer{}
	p := newTestAggregator(svc, r)
	ctx := context.Background()

	_, err := p.LoadWeek(ctx)
	require.NoError(t, err)

	svc.err = errors.New("сеть недоступна")
	c, err := p.LoadWeek(ctx)
	require.Error(t, err)

	assert.Nil(t, c)
	assert.Nil(t, p.Chart())
	assert.True(t, r.charts[0].destroyed)
	assert.False(t, p.Spinner().Visible())
}

func TestLoadWeekWithoutSession(t *testing.T) {
	p := NewProgressAggregator(&fakeProgress{}, &fakeRenderer{}, nil, nil)
	_, err := p.LoadWeek(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}
