package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/snapdock/internal/handler"
	"github.com/snapdock/internal/middleware"
	"github.com/snapdock/internal/web"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(app.logger))
	r.Use(middleware.SecurityHeaders)

	// Static files
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.StaticFS)))

	// Health check
	r.Get("/api/health", handler.Health(app.db, app.dbDriver))

	// JSON API
	snapshotsHandler := handler.NewSnapshotsHandler(app.logger, app.snapshots)
	c := cors.New(cors.Options{
		AllowedOrigins: app.config.Cors.TrustedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})
	r.Group(func(r chi.Router) {
		r.Use(c.Handler)
		r.Get("/api/snapshots", snapshotsHandler.List)
	})

	// Admin pages
	adminHandler := handler.NewAdminHandler(app.logger, app.snapshots, app.importer, web.Templates, app.config.MaxUploadSizeMB)
	r.Group(func(r chi.Router) {
		if app.config.AuthEnabled() {
			r.Use(middleware.BasicAuth(app.config.AdminUser, app.config.AdminPasswordHash))
		}

		r.Get("/admin", adminHandler.Page)

		r.Group(func(r chi.Router) {
			perUpload := time.Minute / time.Duration(app.config.UploadsPerMinute)
			r.Use(middleware.RateLimit(rate.Every(perUpload), app.config.UploadsPerMinute))
			r.Post("/admin/upload", adminHandler.Upload)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	})

	return r
}
