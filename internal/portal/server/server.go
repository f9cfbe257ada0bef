package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docbridge/internal/config"
	"docbridge/internal/middleware"
	"docbridge/internal/models"
	"docbridge/internal/portal/auth"
	"docbridge/internal/portal/handlers"
	"docbridge/internal/portal/web"
)

type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
	cfg    *config.AppConfig
}

func NewHTTPServer(cfg *config.AppConfig, log zerolog.Logger, registry *auth.Registry, pages *handlers.Pages) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.SetHTMLTemplate(template.Must(template.ParseFS(web.Templates, "templates/*.html")))

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		browserSession(cfg.Portal, registry),
	)

	registerRoutes(engine, pages)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &HTTPServer{
		engine: engine,
		server: srv,
		log:    log,
		cfg:    cfg,
	}
}

func registerRoutes(engine *gin.Engine, pages *handlers.Pages) {
	engine.GET("/", pages.Home)

	engine.GET("/login", pages.LoginPage)
	engine.POST("/login", pages.Login)
	engine.GET("/signup", pages.SignupPage)
	engine.POST("/signup", pages.Signup)
	engine.GET("/verify-email", pages.VerifyEmailPage)
	engine.POST("/verify-email", pages.VerifyEmail)
	engine.POST("/logout", pages.Logout)

	ops := engine.Group("/", RequireRole(models.UserTypeOps))
	ops.GET("/ops-dashboard", pages.OpsDashboard)
	ops.POST("/ops/upload", pages.OpsUpload)

	client := engine.Group("/", RequireRole(models.UserTypeClient))
	client.GET("/client-dashboard", pages.ClientDashboard)
	client.POST("/client/files/:id/link", pages.ClientDownloadLink)
	client.GET("/client/history", pages.ClientHistory)
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("portal http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("portal http server shutting down")
	return s.server.Shutdown(ctx)
}

// Engine is exposed for handler tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}
