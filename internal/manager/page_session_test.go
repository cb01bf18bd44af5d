package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	*fakeAuth
	*fakeTasks
	*fakeProgress
}

func newTestRegistry() (*Registry, *fakeRenderer) {
	r := &fakeRenderer{}
	reg := NewRegistry(Deps{
		Remote:   fakeRemote{&fakeAuth{}, newFakeTasks(), &fakeProgress{}},
		Store:    newFakeStore(),
		Renderer: r,
		Location: time.UTC,
	})
	return reg, r
}

func TestRegistryAcquireReturnsSamePage(t *testing.T) {
	reg, _ := newTestRegistry()

	p := reg.Acquire("chat-1")
	assert.Same(t, p, reg.Acquire("chat-1"))
	assert.Equal(t, ModeLogin, p.Auth.Mode())
	assert.Nil(t, p.Tasks())

	opened := reg.Open()
	assert.NotEqual(t, "chat-1", opened.ID)
	assert.Equal(t, 2, reg.Len())

	_, ok := reg.Get("")
	assert.False(t, ok)
}

func TestPageSessionAttachAndDetach(t *testing.T) {
	reg, renderer := newTestRegistry()
	p := reg.Open()

	p.Attach(testSession())
	require.NotNil(t, p.Tasks())
	require.NotNil(t, p.Progress())
	tasks := p.Tasks()

	p.Attach(testSession())
	assert.Same(t, tasks, p.Tasks(), "контроллер переживает повторную загрузку")

	_, err := p.Progress().LoadWeek(context.Background())
	require.NoError(t, err)

	s := p.Detach()
	assert.Equal(t, "user-1", s.User.ID)
	assert.Nil(t, p.Tasks())
	assert.Nil(t, p.Session())
	assert.True(t, renderer.charts[0].destroyed)
}

func TestPageSessionFeedbackExpires(t *testing.T) {
	reg, _ := newTestRegistry()
	p := reg.Open()
	now := time.Now()

	p.Flash(Feedback{Text: "Login successful! Redirecting...", HideAfter: FeedbackTTL}, now)

	fb, ok := p.Feedback(now.Add(time.Second))
	require.True(t, ok)
	assert.Equal(t, "Login successful! Redirecting...", fb.Text)

	_, ok = p.Feedback(now.Add(FeedbackTTL))
	assert.False(t, ok)
}

func TestRegistrySweep(t *testing.T) {
	reg, _ := newTestRegistry()
	now := time.Now()
	reg.now = func() time.Time { return now }

	reg.Acquire("old")
	now = now.Add(time.Hour)
	reg.Acquire("fresh")

	assert.Equal(t, 1, reg.Sweep(30*time.Minute))
	_, ok := reg.Get("old")
	assert.False(t, ok)
	_, ok = reg.Get("fresh")
	assert.True(t, ok)

	reg.Forget("fresh")
	assert.Zero(t, reg.Len())
}
