package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/basakil/brm-chatbot/internal/chat"
	"github.com/basakil/brm-chatbot/internal/metrics"
	"github.com/basakil/brm-chatbot/pkg/blocking"
	"github.com/basakil/brm-chatbot/pkg/config"
	"github.com/basakil/brm-chatbot/pkg/models"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	port       int
	info       models.AppInfo
	chat       *chat.Service
	metrics    *metrics.Collector
	started    time.Time
}

// Option overrides a server dependency, mainly for tests
type Option func(*options)

type options struct {
	delayer chat.Delayer
}

// WithDelayer replaces the configured latency simulator
func WithDelayer(d chat.Delayer) Option {
	return func(o *options) {
		o.delayer = d
	}
}

// AppInfoFromConfig reads the app and instance sections
func AppInfoFromConfig(rootCfg *config.Config) models.AppInfo {
	appCfg := rootCfg.GetSubConfig("app")
	return models.AppInfo{
		Name:         appCfg.GetStringWithDefault("name", "NH AI Financial Chatbot"),
		Version:      appCfg.GetStringWithDefault("version", "v1.0"),
		Status:       appCfg.GetStringWithDefault("status", "Healthy"),
		ModelVersion: appCfg.GetStringWithDefault("model-version", "v1"),
		InstanceID:   rootCfg.GetStringWithDefault("instance.id", "local-worker"),
	}
}

// New creates a new server instance from server-specific configuration
func New(serverCfg *config.Config, rootCfg *config.Config, logger *slog.Logger, opts ...Option) *Server {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	port := serverCfg.GetIntWithDefault("port", 8080)
	info := AppInfoFromConfig(rootCfg)

	var collector *metrics.Collector
	metricsCfg := rootCfg.GetSubConfig("metrics")
	if metricsCfg.GetBoolWithDefault("enabled", true) {
		collector = metrics.NewCollector(metricsCfg.GetStringWithDefault("namespace", "chatbot"), info)
	}

	delayer := o.delayer
	if delayer == nil {
		delayer = blocking.New(rootCfg.GetSubConfig("latency"), logger.With("component", "latency"))
	}

	chatCfg := rootCfg.GetSubConfig("chat")
	serviceOpts := []chat.Option{chat.WithLogger(logger.With("component", "chat"))}
	if collector != nil {
		serviceOpts = append(serviceOpts, chat.WithRecorder(collector))
	}
	chatService := chat.NewService(
		chat.NewClassifierFromConfig(chatCfg),
		chat.NewRenderer(info.ModelVersion, chat.Format(chatCfg.GetStringWithDefault("response-format", "text"))),
		delayer,
		serviceOpts...,
	)

	srv := &Server{
		logger:  logger,
		port:    port,
		info:    info,
		chat:    chatService,
		metrics: collector,
		started: time.Now(),
	}

	srv.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      srv.routes(serverCfg.GetStringsWithDefault("cors.allowed-origins", []string{"*"})),
		ReadTimeout:  serverCfg.GetSecondsWithDefault("readTimeout", 15),
		WriteTimeout: serverCfg.GetSecondsWithDefault("writeTimeout", 15),
		IdleTimeout:  serverCfg.GetSecondsWithDefault("idleTimeout", 60),
	}

	return srv
}

// routes configures all HTTP routes
func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestContext)
	r.Use(middleware.RealIP)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(middleware.Recoverer)

	r.Get("/", s.homeHandler)
	r.Post("/chat", s.chatHandler)
	r.Get("/status", s.statusHandler)
	r.Get("/healthz", s.healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(r)
}

// Handler returns the root handler, including CORS and middleware
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting chatbot server",
		"port", s.port,
		"version", s.info.Version,
		"model", s.info.ModelVersion,
		"metrics", s.metrics != nil)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server gracefully")
	return s.httpServer.Shutdown(ctx)
}

// Port returns the server port
func (s *Server) Port() int {
	return s.port
}

// Info returns the version and instance metadata the server was built with
func (s *Server) Info() models.AppInfo {
	return s.info
}
