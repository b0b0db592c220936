// Пакет server — HTTP-сервер портала с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/ejobportal/internal/api/handlers"
	"github.com/bigkaa/ejobportal/internal/api/middleware"
	"github.com/bigkaa/ejobportal/internal/config"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/ui/i18n"
	"github.com/bigkaa/ejobportal/internal/ui/portal"
	"github.com/bigkaa/ejobportal/internal/ui/static"
)

// Deps — обработчики и middleware, из которых собирается маршрутизатор.
type Deps struct {
	API    *handlers.APIHandler
	Portal *portal.Handler
	// JWTAuth — JWT middleware (может быть nil для тестирования без auth)
	JWTAuth *middleware.JWTAuth
	// Validator — валидация запросов по OpenAPI (может быть nil)
	Validator *middleware.RequestValidator
	// Pages — менеджер страниц; ожидающие удаления выполняются при остановке
	Pages *pages.Manager
	// OnShutdown — действия после остановки HTTP и страниц (dephealth, пул БД)
	OnShutdown []func(ctx context.Context)
}

// Server — HTTP-сервер портала.
type Server struct {
	httpServer *http.Server
	pages      *pages.Manager
	onShutdown []func(ctx context.Context)
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) *Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           NewRouter(logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		pages:      deps.Pages,
		onShutdown: deps.OnShutdown,
		logger:     logger.With(slog.String("component", "server")),
		cfg:        cfg,
	}
}

// NewRouter собирает маршрутизатор портала.
// Health, metrics, статика и выбор языка доступны без JWT.
func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	router := chi.NewRouter()

	// Глобальные middleware (применяются ко ВСЕМ маршрутам)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	router.Use(i18n.Middleware())

	api := deps.API
	router.Get("/health/live", api.HealthLive)
	router.Get("/health/ready", api.HealthReady)
	router.Get("/metrics", api.GetMetrics)
	router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(static.FileSystem())))
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/portal", http.StatusFound)
	})
	if deps.Portal != nil {
		router.Post("/portal/set-language", deps.Portal.SetLanguage)
	}

	router.Group(func(r chi.Router) {
		if deps.JWTAuth != nil {
			r.Use(deps.JWTAuth.Middleware())
		}

		if deps.Portal != nil {
			r.Get("/portal", deps.Portal.Index)
			r.Get("/portal/{kind}", deps.Portal.ListPage)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if deps.Validator != nil {
				r.Use(deps.Validator.Middleware())
			}

			r.Get("/records/{kind}", api.ListRecords)
			r.Post("/records/{kind}", api.CreateRecord)

			r.Post("/documents", api.UploadDocument)
			r.Get("/documents/{id}/url", api.GetDocumentURL)
			r.Post("/notifications/{id}/read", api.MarkNotificationRead)

			r.Post("/pages", api.OpenPage)
			r.Route("/pages/{pageID}", func(r chi.Router) {
				r.Get("/", api.GetPage)
				r.Delete("/", api.ClosePage)
				r.Get("/events", api.PageEvents)
				r.Delete("/selection", api.ClearSelection)
				r.Post("/selection/toggle", api.ToggleSelection)
				r.Post("/selection/all", api.SelectAll)
				r.Post("/delete", api.DeleteRecords)
				r.Post("/reconcile", api.ReconcilePage)
				r.Delete("/toasts/{toastID}", api.DismissToast)
				r.Post("/toasts/{toastID}/undo", api.UndoDelete)
			})
		})
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown: HTTP-сервер,
// затем немедленное выполнение ожидающих удалений всех страниц.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}

// Shutdown останавливает сервер. Ожидающие удаления выполняются
// даже если HTTP-сервер не успел завершить запросы.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Выполняется graceful shutdown...")

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("ошибка при graceful shutdown: %w", err))
	}
	s.logger.Info("HTTP-сервер остановлен")

	if s.pages != nil {
		if err := s.pages.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("выполнение ожидающих удалений: %w", err))
		} else {
			s.logger.Info("Ожидающие удаления выполнены")
		}
	}

	for _, fn := range s.onShutdown {
		fn(ctx)
	}
	return errors.Join(errs...)
}
