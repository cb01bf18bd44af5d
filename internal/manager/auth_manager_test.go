package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/remote"
)

func newTestAuthController(auth *fakeAuth, store *fakeStore) *AuthController {
	a := NewAuthController(auth, store)
	a.newID = func() string { return "sess-42" }
	return a
}

func TestSubmitEmptyPasswordSendsNothing(t *testing.T) {
	auth := &fakeAuth{}
	a := newTestAuthController(auth, newFakeStore())

	_, err := a.Submit(context.Background(), "user@example.com", "   ")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Please enter both email and password.", ve.Message)
	assert.Zero(t, auth.signIns)
	assert.Zero(t, auth.signUps)
	assert.True(t, a.ControlsEnabled())

	fb := FeedbackFor(err)
	assert.True(t, fb.IsError)
	assert.Equal(t, "Please enter both email and password.", fb.Text)
	assert.Equal(t, FeedbackTTL, fb.HideAfter)
}

func TestLoginStoresSessionAndRedirects(t *testing.T) {
	auth := &fakeAuth{}
	store := newFakeStore()
	a := newTestAuthController(auth, store)

	res, err := a.Submit(context.Background(), " user@example.com ", "secret")
	require.NoError(t, err)

	assert.Equal(t, ModeLogin, res.Mode)
	assert.Equal(t, "Login successful! Redirecting...", res.Feedback.Text)
	assert.False(t, res.Feedback.IsError)
	assert.Equal(t, TasksPath, res.Redirect)
	assert.Equal(t, LoginRedirectDelay, res.RedirectAfter)
	assert.Equal(t, "user@example.com", auth.lastEmail)

	require.NotNil(t, res.Session)
	assert.Equal(t, "sess-42", res.Session.ID)
	assert.Same(t, res.Session, store.sessions["sess-42"])
	assert.True(t, a.ControlsEnabled())
}

func TestSignupDoesNotNavigate(t *testing.T) {
	auth := &fakeAuth{}
	store := newFakeStore()
	a := newTestAuthController(auth, store)
	require.NoError(t, a.SetMode(ModeSignup))

	res, err := a.Submit(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, ModeSignup, res.Mode)
	assert.Equal(t, "Signup successful! Please check your email to confirm.", res.Feedback.Text)
	assert.Empty(t, res.Redirect)
	assert.Nil(t, res.Session)
	assert.Equal(t, 1, auth.signUps)
	assert.Zero(t, auth.signIns)
	assert.Empty(t, store.sessions)
}

func TestLoginFailureShowsServiceMessage(t *testing.T) {
	auth := &fakeAuth{err: &remote.ServiceError{Status: 400, Message: "Invalid login credentials"}}
	store := newFakeStore()
	a := newTestAuthController(auth, store)

	_, err := a.Submit(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	fb := FeedbackFor(err)
	assert.True(t, fb.IsError)
	assert.Equal(t, "Invalid login credentials", fb.Text)
	assert.Empty(t, store.sessions)
	assert.True(t, a.ControlsEnabled())
}

func TestSetModeRejectsUnknown(t *testing.T) {
	a := NewAuthController(&fakeAuth{}, newFakeStore())
	assert.Equal(t, ModeLogin, a.Mode())
	assert.Error(t, a.SetMode("reset"))
	assert.Equal(t, ModeLogin, a.Mode())
}

func TestConcurrentSubmitIsRejected(t *testing.T) {
	auth := &fakeAuth{block: make(chan struct{}), entered: make(chan struct{})}
	a := newTestAuthController(auth, newFakeStore())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := a.Submit(ctx, "user@example.com", "secret")
		done <- err
	}()

	<-auth.entered
	assert.False(t, a.ControlsEnabled())

	_, err := a.Submit(ctx, "user@example.com", "secret")
	assert.ErrorIs(t, err, ErrSubmitInProgress)

	close(auth.block)
	require.NoError(t, <-done)
	assert.True(t, a.ControlsEnabled())
	assert.Equal(t, 1, auth.signIns)
}

func TestSignOutDeletesLocalSessionEvenOnRemoteError(t *testing.T) {
	auth := &fakeAuth{signOutErr: errors.New("сеть недоступна")}
	store := newFakeStore()
	s := testSession()
	require.NoError(t, store.SaveSession(context.Background(), s))

	a := NewAuthController(auth, store)
	err := a.SignOut(context.Background(), s)

	assert.Error(t, err)
	assert.Empty(t, store.sessions)
	assert.Equal(t, "token-1", auth.lastToken)
	assert.NoError(t, a.SignOut(context.Background(), nil))
}
