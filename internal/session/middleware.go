package session

import (
	"context"
	"net/http"
	"time"

	"todo-tracker/internal/logger"
	"todo-tracker/internal/models"
)

const CookieName = "todotracker_session"

type ctxKey struct{}

func NewContext(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*models.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*models.Session)
	return s, ok && s != nil
}

// Cookies пишет и читает cookie с id сессии
type Cookies struct {
	Secure bool
	TTL    time.Duration
}

func (c Cookies) Set(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if c.TTL > 0 {
		cookie.MaxAge = int(c.TTL.Seconds())
	}
	http.SetCookie(w, cookie)
}

func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func Read(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware пропускает запрос только с действующей сессией, иначе уводит на landing
func (g *Gate) Middleware(cookies Cookies, landing string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			s, err := g.Resolve(ctx, Read(r))
			if err != nil {
				logger.Debug(ctx, "Нет сессии, переход на главную", "path", r.URL.Path, "reason", err.Error())
				cookies.Clear(w)
				http.Redirect(w, r, landing, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(ctx, s)))
		})
	}
}
