package web

import (
	"errors"
	"net/http"
	"strings"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/manager"
	"todo-tracker/internal/session"
)

func (s *Server) indexData(p *manager.PageSession) indexPage {
	data := indexPage{
		pageData:         pageData{Title: "Login"},
		FormEmail:        p.Email(),
		ControlsDisabled: !p.Auth.ControlsEnabled(),
	}
	if fb, ok := p.Feedback(s.now()); ok {
		data.Feedback = &fb
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := s.page(w, r)
	s.render(w, r, http.StatusOK, "index", s.indexData(p))
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := s.page(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if mode := r.PostFormValue("mode"); mode != "" {
		if err := p.Auth.SetMode(manager.Mode(mode)); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	email := r.PostFormValue("email")
	p.RememberEmail(strings.TrimSpace(email))

	res, err := p.Auth.Submit(ctx, email, r.PostFormValue("password"))
	if errors.Is(err, manager.ErrSubmitInProgress) {
		s.render(w, r, http.StatusConflict, "index", s.indexData(p))
		return
	}
	if err != nil {
		p.Flash(manager.FeedbackFor(err), s.now())
		s.render(w, r, authErrorStatus(err), "index", s.indexData(p))
		return
	}

	p.Flash(res.Feedback, s.now())
	data := s.indexData(p)
	if res.Session != nil {
		// прежний пользователь этой страницы больше не виден
		p.Detach()
		s.cookies.Set(w, res.Session.ID)
	}
	if res.Redirect != "" {
		data.RedirectTo = res.Redirect
		data.RedirectAfter = int(res.RedirectAfter.Seconds())
	}
	s.render(w, r, http.StatusOK, "index", data)
}

func authErrorStatus(err error) int {
	var ve *manager.ValidationError
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusUnauthorized
}

// handleLogout всегда уводит на главную, даже если сервис не ответил
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := s.page(w, r)

	sess := p.Detach()
	if sess == nil {
		if stored, err := s.sessions.GetSession(ctx, session.Read(r)); err == nil {
			sess = stored
		}
	}
	if err := p.Auth.SignOut(ctx, sess); err != nil {
		logger.Warn(ctx, "Выход завершен с ошибкой", "error", err.Error())
	}

	s.cookies.Clear(w)
	http.Redirect(w, r, manager.LandingPath, http.StatusSeeOther)
}
