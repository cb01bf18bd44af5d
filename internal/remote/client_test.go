package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-tracker/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{URL: srv.URL, APIKey: "anon-key"})
	require.NoError(t, err)
	return c
}

func TestNewRequiresURLAndKey(t *testing.T) {
	_, err := New(Options{APIKey: "k"})
	assert.Error(t, err)

	_, err = New(Options{URL: "http://example.test"})
	assert.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.c", body["email"])
		assert.Equal(t, "secret", body["password"])

		_, _ = io.WriteString(w, `{"access_token":"tok","refresh_token":"ref","expires_in":3600,
			"user":{"id":"u-1","email":"a@b.c"}}`)
	})

	before := time.Now()
	s, err := c.SignInWithPassword(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.AccessToken)
	assert.Equal(t, "ref", s.RefreshToken)
	assert.Equal(t, models.User{ID: "u-1", Email: "a@b.c"}, s.User)
	assert.True(t, s.ExpiresAt.After(before.Add(59*time.Minute)))
}

func TestServiceErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"gotrue msg", 400, `{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`, "Invalid login credentials"},
		{"gotrue legacy", 400, `{"error":"invalid_grant","error_description":"Email not confirmed"}`, "Email not confirmed"},
		{"postgrest", 403, `{"code":"42501","message":"permission denied for table tasks"}`, "permission denied for table tasks"},
		{"plain text", 502, `bad gateway`, "bad gateway"},
		{"empty", 500, ``, "request failed with status 500"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			})

			_, err := c.SignInWithPassword(context.Background(), "a@b.c", "x")
			var se *ServiceError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.status, se.Status)
			assert.Equal(t, tc.want, se.Message)
		})
	}
}

func TestSignUpReturnsUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":"u-2","email":"new@b.c","confirmation_sent_at":"2024-05-01T10:00:00Z"}`)
	})

	u, err := c.SignUp(context.Background(), "new@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-2", u.ID)
}

func TestSignOutSendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/logout", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.SignOut(context.Background(), "user-token"))
}

func TestGetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":401,"msg":"invalid JWT"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"u-1","email":"a@b.c","role":"authenticated"}`)
	})

	u, err := c.GetUser(context.Background(), "user-token")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "u-1", Email: "a@b.c"}, *u)

	_, err = c.GetUser(context.Background(), "forged")
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.Status)
	assert.Equal(t, "invalid JWT", se.Message)
}

func TestListTasksQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/tasks", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.u-1", q.Get("user_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, `[
			{"id":2,"title":"Second","deadline":null,"status":"completed","user_id":"u-1",
			 "created_at":"2024-05-02T10:00:00+00:00","updated_at":"2024-05-02T11:00:00+00:00"},
			{"id":1,"title":"First","deadline":"2024-05-03T18:00:00","status":"incomplete","user_id":"u-1",
			 "created_at":"2024-05-01T10:00:00.123456+00:00","updated_at":"2024-05-01T10:00:00+00:00"}
		]`)
	})

	tasks, err := c.ListTasks(context.Background(), "tok", "u-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, models.TaskID("2"), tasks[0].ID)
	assert.Nil(t, tasks[0].Deadline)
	assert.True(t, tasks[0].IsComplete())
	require.NotNil(t, tasks[1].Deadline)
	assert.Equal(t, 18, tasks[1].Deadline.Hour())
}

func TestListCompletedSinceQuery(t *testing.T) {
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.completed", q.Get("status"))
		assert.Equal(t, "gte.2024-05-01T00:00:00Z", q.Get("updated_at"))
		_, _ = io.WriteString(w, `[]`)
	})

	tasks, err := c.ListCompletedSince(context.Background(), "tok", "u-1", since)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestInsertTaskRequestsSingleRow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Buy milk", body["title"])
		assert.Nil(t, body["deadline"])
		assert.Equal(t, "incomplete", body["status"])
		assert.Equal(t, "u-1", body["user_id"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"7f0c","title":"Buy milk","deadline":null,"status":"incomplete",
			"user_id":"u-1","created_at":"2024-05-02T10:00:00Z","updated_at":"2024-05-02T10:00:00Z"}`)
	})

	task, err := c.InsertTask(context.Background(), "tok", models.CreateTaskRequest{
		Title: "Buy milk", UserID: "u-1", Status: models.StatusIncomplete,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskID("7f0c"), task.ID)
}

func TestUpdateAndDeleteMatchByID(t *testing.T) {
	var methods []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		assert.Equal(t, "eq.42", r.URL.Query().Get("id"))
		if r.Method == http.MethodPatch {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "completed", body["status"])
		}
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.UpdateTaskStatus(context.Background(), "tok", "42", models.StatusCompleted))
	require.NoError(t, c.DeleteTask(context.Background(), "tok", "42"))
	assert.Equal(t, []string{http.MethodPatch, http.MethodDelete}, methods)
}

func TestTransportErrorIsServiceError(t *testing.T) {
	c, err := New(Options{URL: "http://127.0.0.1:1", APIKey: "k"})
	require.NoError(t, err)

	err = c.DeleteTask(context.Background(), "tok", "1")
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 0, se.Status)
}
