package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todo-tracker/internal/web"
)

func NewRouter(site *web.Server) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(web.RequestID)
	r.Use(web.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(web.SecurityHeaders)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	site.Routes(r)
	return r
}
