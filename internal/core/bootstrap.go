package core

import (
	"fmt"
	"net/http"
	"time"

	"authweb/internal/guard"
	m "authweb/internal/middlewares"
	"authweb/internal/models"
	"authweb/internal/remote"
	"authweb/internal/session"
	"authweb/internal/ui"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// StartHTTPServer wires the screens behind the route guard and serves them.
// The guard consults the session store on every request, so a session
// change is reflected on the next navigation with no cached decision.
func StartHTTPServer(config models.Configuration, store *session.Store, api remote.IAuthAPI) {
	r := chi.NewRouter()

	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(m.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.App.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(guard.Middleware(store))

	uiService := &ui.UIService{
		Session: store,
		API:     api,
		Logger:  zap.L(),
	}
	r.Mount("/", uiService.Routes())

	zap.L().Info("HTTP server starting", zap.Int("port", config.App.Port))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.App.Port),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	err := server.ListenAndServe()
	if err != nil {
		zap.L().Error("Failed to start the app", zap.Error(err))
	}
}
