package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"todo-tracker/internal/manager"
	"todo-tracker/internal/models"
	"todo-tracker/internal/session"
)

func (s *Server) tasksData(p *manager.PageSession, tasks *manager.TaskController) tasksPage {
	var email string
	if sess := p.Session(); sess != nil {
		email = sess.User.Email
	}
	return tasksPage{
		pageData: pageData{Title: "Tasks", Email: email},
		Board:    tasks.Board().View(),
		Loading:  tasks.Spinner().Visible(),
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	p := s.page(w, r)
	p.Attach(sess)

	tasks := p.Tasks()
	// ошибка уже в логе, страница показывает пустой список
	_ = tasks.LoadAll(r.Context())

	s.render(w, r, http.StatusOK, "tasks", s.tasksData(p, tasks))
}

// loadedTasks - команды работают только со списком, загруженным на этой странице
func (s *Server) loadedTasks(w http.ResponseWriter, r *http.Request) (*manager.PageSession, *manager.TaskController, bool) {
	p := s.page(w, r)
	tasks := p.Tasks()
	if tasks == nil {
		http.Redirect(w, r, manager.TasksPath, http.StatusSeeOther)
		return nil, nil, false
	}
	return p, tasks, true
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	p, tasks, ok := s.loadedTasks(w, r)
	if !ok {
		return
	}

	status := http.StatusOK
	_, err := tasks.Add(r.Context(), r.PostFormValue("title"), r.PostFormValue("deadline"))
	var ve *manager.ValidationError
	if errors.As(err, &ve) {
		status = http.StatusUnprocessableEntity
	}

	s.render(w, r, status, "tasks", s.tasksData(p, tasks))
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	p, tasks, ok := s.loadedTasks(w, r)
	if !ok {
		return
	}

	completed, err := parseCompleted(r.PostFormValue("completed"))
	if err != nil {
		http.Error(w, "bad completed value", http.StatusBadRequest)
		return
	}

	_ = tasks.Toggle(r.Context(), models.TaskID(chi.URLParam(r, "id")), completed)
	s.render(w, r, http.StatusOK, "tasks", s.tasksData(p, tasks))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	p, tasks, ok := s.loadedTasks(w, r)
	if !ok {
		return
	}

	_ = tasks.Remove(r.Context(), models.TaskID(chi.URLParam(r, "id")))
	s.render(w, r, http.StatusOK, "tasks", s.tasksData(p, tasks))
}

func parseCompleted(v string) (bool, error) {
	switch v {
	case "on":
		return true, nil
	case "", "off":
		return false, nil
	}
	return strconv.ParseBool(v)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	p := s.page(w, r)
	p.Attach(sess)

	progress := p.Progress()
	c, _ := progress.LoadWeek(r.Context())

	s.render(w, r, http.StatusOK, "progress", progressPage{
		pageData: pageData{Title: "Progress", Email: sess.User.Email},
		Chart:    c,
		Loading:  progress.Spinner().Visible(),
	})
}
