package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gopivot/adapters/excel"
	"gopivot/app"
	session "gopivot/ui/middleware"
)

//go:embed templates/*
var embeddedFiles embed.FS

// CubeRenderer renders and reloads cubes.
type CubeRenderer interface {
	Render(ctx context.Context, req app.CubeRequest) (*app.CubeView, error)
	Invalidate(env, cube string) error
}

// App is the HTTP front end of the cube service.
type App struct {
	router    *chi.Mux
	cubes     CubeRenderer
	exporter  *excel.Exporter
	templates *template.Template
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates the UI application
func NewApp(cubes CubeRenderer, exporter *excel.Exporter) (*App, error) {
	templates, err := template.New("").ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	a := &App{
		router:    chi.NewRouter(),
		cubes:     cubes,
		exporter:  exporter,
		templates: templates,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

// setupMiddleware configures HTTP middleware
func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
	a.router.Use(session.EnsureSession)
}

// setupRoutes configures the application routes
func (a *App) setupRoutes() {
	a.router.Get("/healthz", a.handleHealth)

	// Pages
	a.router.Get("/{env}/{locale}/cubes/{cube}", a.handleCubePage)

	// API endpoints
	a.router.Route("/api/{env}", func(r chi.Router) {
		r.Get("/{locale}/cubes/{cube}", a.handleCubeJSON)
		r.Get("/{locale}/cubes/{cube}/export", a.handleCubeExport)
		r.Post("/cubes/{cube}/invalidate", a.handleInvalidate)
	})
}

// ServeHTTP lets the app be mounted or tested directly.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Server returns an HTTP server for the app listening on config.Port.
func (a *App) Server(config Config) *http.Server {
	return &http.Server{
		Addr:              ":" + config.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (a *App) renderTemplate(w http.ResponseWriter, status int, templateName string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.templates.ExecuteTemplate(w, templateName, data); err != nil {
		log.Printf("Template error: %v", err)
	}
}
