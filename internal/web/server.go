// Package web отдает три страницы трекера: вход, список задач и недельный прогресс.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"todo-tracker/internal/chart"
	"todo-tracker/internal/logger"
	"todo-tracker/internal/manager"
	"todo-tracker/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/app.css
var appCSS []byte

// PageCookie связывает браузер с его PageSession
const PageCookie = "todotracker_page"

const deadlineLayout = "1/2/2006, 3:04:05 PM"

type Options struct {
	Pages    *manager.Registry
	Gate     *session.Gate
	Sessions session.Store
	Cookies  session.Cookies
	Location *time.Location
}

type Server struct {
	pages    *manager.Registry
	gate     *session.Gate
	sessions session.Store
	cookies  session.Cookies
	loc      *time.Location
	tmpl     *template.Template
	now      func() time.Time
}

func NewServer(opts Options) (*Server, error) {
	if opts.Pages == nil || opts.Gate == nil || opts.Sessions == nil {
		return nil, errors.New("web: не заданы страницы, gate или хранилище сессий")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatDeadline": func(t time.Time) string {
			return t.In(loc).Format(deadlineLayout)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		pages:    opts.Pages,
		gate:     opts.Gate,
		sessions: opts.Sessions,
		cookies:  opts.Cookies,
		loc:      loc,
		tmpl:     tmpl,
		now:      time.Now,
	}, nil
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleIndex)
	r.Post("/auth", s.handleAuth)
	r.Post("/logout", s.handleLogout)
	r.Get("/healthz", s.handleHealth)
	r.Get("/static/app.css", s.handleCSS)

	r.Group(func(r chi.Router) {
		r.Use(s.gate.Middleware(s.cookies, manager.LandingPath))
		r.Get("/tasks", s.handleTasks)
		r.Get("/progress", s.handleProgress)
	})

	r.Post("/tasks", s.handleAddTask)
	r.Post("/tasks/{id}/status", s.handleToggleTask)
	r.Post("/tasks/{id}/delete", s.handleDeleteTask)
}

type pageData struct {
	Title         string
	Email         string
	RedirectTo    string
	RedirectAfter int
}

type indexPage struct {
	pageData
	FormEmail        string
	ControlsDisabled bool
	Feedback         *manager.Feedback
}

type tasksPage struct {
	pageData
	Board   manager.BoardView
	Loading bool
}

type progressPage struct {
	pageData
	Chart   chart.Chart
	Loading bool
}

// page возвращает PageSession посетителя, открывая новую при первом визите
func (s *Server) page(w http.ResponseWriter, r *http.Request) *manager.PageSession {
	if cookie, err := r.Cookie(PageCookie); err == nil {
		if p, ok := s.pages.Get(cookie.Value); ok {
			return p
		}
	}

	p := s.pages.Open()
	http.SetCookie(w, &http.Cookie{
		Name:     PageCookie,
		Value:    p.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return p
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error(r.Context(), err, "Ошибка шаблона", "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write(appCSS)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
