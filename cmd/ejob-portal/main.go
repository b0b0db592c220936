// Точка входа портала E-Job для газетированных служащих.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL
// и объектному хранилищу, собирает сервисы записей, менеджер страниц
// с окном отмены удаления, HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/ejobportal/internal/api/handlers"
	"github.com/bigkaa/ejobportal/internal/api/middleware"
	"github.com/bigkaa/ejobportal/internal/api/openapi"
	"github.com/bigkaa/ejobportal/internal/config"
	"github.com/bigkaa/ejobportal/internal/database"
	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/pages"
	"github.com/bigkaa/ejobportal/internal/repository"
	"github.com/bigkaa/ejobportal/internal/server"
	"github.com/bigkaa/ejobportal/internal/service"
	"github.com/bigkaa/ejobportal/internal/storageclient"
	"github.com/bigkaa/ejobportal/internal/ui/i18n"
	"github.com/bigkaa/ejobportal/internal/ui/portal"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("E-Job Portal запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.Duration("undo_window", cfg.UndoWindow),
	)

	// 3. Каталоги переводов (en, bn)
	bundle := i18n.Init(logger)
	if err := i18n.LoadFromEmbedFS(bundle, logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 5. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 6. Клиент объектного хранилища
	storage, err := storageclient.New(cfg.StorageURL, cfg.StorageCACertPath, storageclient.StaticToken(cfg.StorageServiceKey), logger)
	if err != nil {
		logger.Error("Ошибка создания клиента хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Repositories
	childRepo := repository.NewChildRepository(pool)
	educationRepo := repository.NewEducationRepository(pool)
	documentRepo := repository.NewDocumentRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 8. Services
	childSvc := service.NewRecordService[*model.Child](model.KindChildren, childRepo, service.PrepareChild, logger)
	educationSvc := service.NewRecordService[*model.Education](model.KindEducation, educationRepo, service.PrepareEducation, logger)
	documentSvc := service.NewDocumentService(
		documentRepo, txRunner, repository.NewDocumentRepository,
		storage, cfg.StorageBucket, cfg.SignedURLTTL,
		service.NewSignedURLCache(cfg.SignedURLCacheSize, cfg.SignedURLTTL),
		logger,
	)
	notificationSvc := service.NewNotificationService(notificationRepo, logger)

	// 9. Менеджер страниц: контроллер мягкого удаления на каждую открытую страницу
	pageManager := pages.NewManager(map[model.Kind]pages.Factory{
		model.KindChildren:      pages.Typed[*model.Child](childSvc, (*model.Child).RecordID),
		model.KindEducation:     pages.Typed[*model.Education](educationSvc, (*model.Education).RecordID),
		model.KindDocuments:     pages.Typed[*model.Document](documentSvc, (*model.Document).RecordID),
		model.KindNotifications: pages.Typed[*model.Notification](notificationSvc, (*model.Notification).RecordID),
	}, pages.Options{
		IdleTTL:   cfg.PageIdleTTL,
		MaxPages:  cfg.MaxPages,
		Window:    cfg.UndoWindow,
		Translate: bundle.Translatef,
		Logger:    logger,
	})

	// 10. JWT middleware и проверка готовности JWKS
	jwtAuth, err := middleware.NewJWTAuth(
		cfg.AuthJWKSURL,
		cfg.AuthCACertPath,
		cfg.AuthIssuer,
		cfg.JWKSClientTimeout,
		cfg.JWKSRefreshInterval,
		cfg.JWTLeeway,
		logger,
	)
	if err != nil {
		logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("JWT middleware инициализирован",
		slog.String("jwks_url", cfg.AuthJWKSURL),
		slog.String("issuer", cfg.AuthIssuer),
	)

	authChecker, err := middleware.NewJWKSReadinessChecker(cfg.AuthJWKSURL, cfg.AuthCACertPath, cfg.JWKSClientTimeout)
	if err != nil {
		logger.Error("Ошибка создания JWKS readiness checker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	validator, err := middleware.NewRequestValidator(openapi.Spec, logger)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 11. topologymetrics — мониторинг зависимостей (PostgreSQL + storage + JWKS)
	var (
		depHealth  handlers.DependencyHealth
		onShutdown []func(context.Context)
	)
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		ServiceID:     "ejob-portal",
		Group:         cfg.DephealthGroup,
		DB:            pgDB,
		PGConnURL:     cfg.DatabaseURL("postgres"),
		StorageURL:    cfg.StorageURL,
		JWKSURL:       cfg.AuthJWKSURL,
		CheckInterval: cfg.DephealthCheckInterval,
	}, logger)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		depHealth = dephealthSvc
		onShutdown = append(onShutdown, func(context.Context) { dephealthSvc.Stop() })
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 12. Handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), authChecker, depHealth)
	apiHandler := handlers.NewAPIHandler(handlers.Options{
		Health: healthHandler,
		Records: map[model.Kind]handlers.RecordEndpoint{
			model.KindChildren:      handlers.Records[model.Child](childSvc.List, childSvc.Create),
			model.KindEducation:     handlers.Records[model.Education](educationSvc.List, educationSvc.Create),
			model.KindDocuments:     handlers.Records[model.Document](documentSvc.List, nil),
			model.KindNotifications: handlers.Records[model.Notification](notificationSvc.List, notificationSvc.Create),
		},
		Documents:     documentSvc,
		Notifications: notificationSvc,
		Pages:         pageManager,
		MaxUploadSize: cfg.MaxUploadSize,
		UndoWindow:    cfg.UndoWindow,
		SSEKeepAlive:  cfg.SSEKeepAlive,
		Logger:        logger,
	})

	// 13. HTTP-сервер (блокирует до сигнала завершения)
	srv := server.New(cfg, logger, server.Deps{
		API:        apiHandler,
		Portal:     portal.NewHandler(pageManager, logger),
		JWTAuth:    jwtAuth,
		Validator:  validator,
		Pages:      pageManager,
		OnShutdown: onShutdown,
	})
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("E-Job Portal остановлен")
}
