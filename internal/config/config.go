// Пакет config — загрузка и валидация конфигурации портала
// из переменных окружения с префиксом EP_.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/ejobportal/internal/undo"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации портала.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Аутентификация (JWT, выпускается внешним IdP) ---

	// URL JWKS endpoint провайдера
	AuthJWKSURL string
	// Ожидаемый issuer (пусто — не проверяется)
	AuthIssuer string
	// Допустимое расхождение часов при проверке exp/nbf
	JWTLeeway time.Duration
	// Путь к CA-сертификату JWKS endpoint (опционально)
	AuthCACertPath string
	// Таймаут HTTP-клиента JWKS
	JWKSClientTimeout time.Duration
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration

	// --- Объектное хранилище документов ---

	// Базовый URL storage API (например, https://project.supabase.co/storage/v1)
	StorageURL string
	// Сервисный ключ storage API
	StorageServiceKey string
	// Бакет документов
	StorageBucket string
	// Путь к CA-сертификату storage API (опционально)
	StorageCACertPath string
	// Время жизни подписанных ссылок
	SignedURLTTL time.Duration
	// Размер кэша подписанных ссылок
	SignedURLCacheSize int
	// Максимальный размер загружаемого документа в байтах
	MaxUploadSize int64

	// --- Страницы со списками ---

	// Окно отмены удаления
	UndoWindow time.Duration
	// Время простоя, после которого экземпляр страницы закрывается
	PageIdleTTL time.Duration
	// Максимальное число открытых экземпляров страниц
	MaxPages int
	// Интервал keep-alive для SSE
	SSEKeepAlive time.Duration

	// --- Мониторинг зависимостей ---

	// Группа сервиса в topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (включает коммит отложенных удалений)
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// EP_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("EP_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("EP_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("EP_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("EP_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("EP_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("EP_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("EP_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	cfg.DBHost, err = getEnvRequired("EP_DB_HOST")
	if err != nil {
		return nil, err
	}

	cfg.DBPort, err = getEnvInt("EP_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("EP_DB_PORT: %w", err)
	}

	cfg.DBName, err = getEnvRequired("EP_DB_NAME")
	if err != nil {
		return nil, err
	}

	cfg.DBUser, err = getEnvRequired("EP_DB_USER")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = getEnvRequired("EP_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	cfg.DBSSLMode = getEnvDefault("EP_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("EP_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Аутентификация ---

	cfg.AuthJWKSURL, err = getEnvRequired("EP_AUTH_JWKS_URL")
	if err != nil {
		return nil, err
	}
	cfg.AuthIssuer = getEnvDefault("EP_AUTH_ISSUER", "")

	cfg.JWTLeeway, err = getEnvDuration("EP_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EP_JWT_LEEWAY: %w", err)
	}

	cfg.AuthCACertPath = getEnvDefault("EP_AUTH_CA_CERT_PATH", "")

	cfg.JWKSClientTimeout, err = getEnvDuration("EP_JWKS_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EP_JWKS_CLIENT_TIMEOUT: %w", err)
	}

	cfg.JWKSRefreshInterval, err = getEnvDuration("EP_JWKS_REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EP_JWKS_REFRESH_INTERVAL: %w", err)
	}
	if cfg.JWKSRefreshInterval < time.Minute {
		return nil, fmt.Errorf("EP_JWKS_REFRESH_INTERVAL: минимум 1m, получено %s", cfg.JWKSRefreshInterval)
	}

	// --- Объектное хранилище ---

	cfg.StorageURL, err = getEnvRequired("EP_STORAGE_URL")
	if err != nil {
		return nil, err
	}
	cfg.StorageURL = strings.TrimRight(cfg.StorageURL, "/")

	cfg.StorageServiceKey, err = getEnvRequired("EP_STORAGE_SERVICE_KEY")
	if err != nil {
		return nil, err
	}

	cfg.StorageBucket = getEnvDefault("EP_STORAGE_BUCKET", "documents")
	cfg.StorageCACertPath = getEnvDefault("EP_STORAGE_CA_CERT_PATH", "")

	cfg.SignedURLTTL, err = getEnvDuration("EP_SIGNED_URL_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EP_SIGNED_URL_TTL: %w", err)
	}
	if cfg.SignedURLTTL < time.Minute {
		return nil, fmt.Errorf("EP_SIGNED_URL_TTL: значение %s меньше минимального 1m", cfg.SignedURLTTL)
	}

	cfg.SignedURLCacheSize, err = getEnvInt("EP_SIGNED_URL_CACHE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("EP_SIGNED_URL_CACHE_SIZE: %w", err)
	}
	if cfg.SignedURLCacheSize < 1 {
		return nil, fmt.Errorf("EP_SIGNED_URL_CACHE_SIZE: значение %d должно быть положительным", cfg.SignedURLCacheSize)
	}

	maxUpload, err := getEnvInt("EP_MAX_UPLOAD_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("EP_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload < 1 {
		return nil, fmt.Errorf("EP_MAX_UPLOAD_SIZE: значение %d должно быть положительным", maxUpload)
	}
	cfg.MaxUploadSize = int64(maxUpload)

	// --- Страницы со списками ---

	// EP_UNDO_WINDOW — окно отмены удаления (по умолчанию 15s)
	cfg.UndoWindow, err = getEnvDuration("EP_UNDO_WINDOW", undo.DefaultWindow)
	if err != nil {
		return nil, fmt.Errorf("EP_UNDO_WINDOW: %w", err)
	}
	if cfg.UndoWindow < time.Second || cfg.UndoWindow > 5*time.Minute {
		return nil, fmt.Errorf("EP_UNDO_WINDOW: значение %s вне допустимого диапазона 1s-5m", cfg.UndoWindow)
	}

	cfg.PageIdleTTL, err = getEnvDuration("EP_PAGE_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("EP_PAGE_IDLE_TTL: %w", err)
	}
	// Страница не должна закрываться раньше, чем истечёт окно отмены
	if cfg.PageIdleTTL < cfg.UndoWindow {
		return nil, fmt.Errorf("EP_PAGE_IDLE_TTL: значение %s меньше окна отмены %s", cfg.PageIdleTTL, cfg.UndoWindow)
	}

	cfg.MaxPages, err = getEnvInt("EP_MAX_PAGES", 1000)
	if err != nil {
		return nil, fmt.Errorf("EP_MAX_PAGES: %w", err)
	}
	if cfg.MaxPages < 1 || cfg.MaxPages > 100000 {
		return nil, fmt.Errorf("EP_MAX_PAGES: значение %d вне допустимого диапазона 1-100000", cfg.MaxPages)
	}

	cfg.SSEKeepAlive, err = getEnvDuration("EP_SSE_KEEPALIVE", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EP_SSE_KEEPALIVE: %w", err)
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("EP_DEPHEALTH_GROUP", "ejob-portal")

	cfg.DephealthCheckInterval, err = getEnvDuration("EP_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EP_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	cfg.ShutdownTimeout, err = getEnvDuration("EP_SHUTDOWN_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, fmt.Errorf("EP_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL PostgreSQL для golang-migrate и topologymetrics.
func (c *Config) DatabaseURL(scheme string) string {
	return fmt.Sprintf(
		"%s://%s:%s@%s:%d/%s?sslmode=%s",
		scheme, c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
