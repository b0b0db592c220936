// Пакет storageclient — HTTP-клиент объектного хранилища документов
// (storage API, совместимый с Supabase Storage).
// Поддерживает TLS с кастомным CA (EP_STORAGE_CA_CERT_PATH).
// Операции: Upload, CreateSignedURL, Remove.
package storageclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrObjectNotFound — объект или бакет не найден.
var ErrObjectNotFound = errors.New("объект не найден в хранилище")

// TokenProvider — функция, возвращающая токен для авторизации запросов к хранилищу.
type TokenProvider func(ctx context.Context) (string, error)

// StaticToken возвращает TokenProvider с фиксированным сервисным ключом.
func StaticToken(key string) TokenProvider {
	return func(context.Context) (string, error) {
		return key, nil
	}
}

// RemovedObject — объект, удалённый вызовом Remove.
type RemovedObject struct {
	Name     string `json:"name"`
	BucketID string `json:"bucket_id,omitempty"`
}

// Client — HTTP-клиент storage API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenProvider TokenProvider
	logger        *slog.Logger
}

// New создаёт клиент хранилища.
// baseURL — адрес storage API (например, https://project.supabase.co/storage/v1).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
func New(baseURL, caCertPath string, tokenProvider TokenProvider, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата хранилища: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: tlsConfig,
		}
		logger.Info("CA-сертификат хранилища добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &Client{
		baseURL:       normalizeURL(baseURL),
		httpClient:    httpClient,
		tokenProvider: tokenProvider,
		logger:        logger.With(slog.String("component", "storage_client")),
	}, nil
}

// BaseURL возвращает адрес storage API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}

// Upload загружает объект в бакет.
// POST /object/{bucket}/{path}. Существующий объект не перезаписывается.
func (c *Client) Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error {
	reqURL := c.objectURL("object", bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return fmt.Errorf("создание запроса Upload: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("запрос Upload %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return statusError("Upload", resp)
	}

	c.logger.Debug("Объект загружен",
		slog.String("bucket", bucket),
		slog.String("path", path),
	)
	return nil
}

// CreateSignedURL создаёт подписанную ссылку на объект со временем жизни ttl.
// POST /object/sign/{bucket}/{path} {"expiresIn": seconds}.
func (c *Client) CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	reqURL := c.objectURL("object/sign", bucket, path)

	payload, err := json.Marshal(map[string]int{"expiresIn": int(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("кодирование запроса CreateSignedURL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("создание запроса CreateSignedURL: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("запрос CreateSignedURL %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError("CreateSignedURL", resp)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("декодирование CreateSignedURL: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("CreateSignedURL: пустая ссылка в ответе")
	}

	// Хранилище возвращает путь относительно storage API
	if strings.HasPrefix(signed.SignedURL, "http://") || strings.HasPrefix(signed.SignedURL, "https://") {
		return signed.SignedURL, nil
	}
	return c.baseURL + "/" + strings.TrimLeft(signed.SignedURL, "/"), nil
}

// Remove удаляет объекты paths из бакета одним запросом.
// DELETE /object/{bucket} {"prefixes": [...]}. Отсутствующие объекты пропускаются.
func (c *Client) Remove(ctx context.Context, bucket string, paths []string) ([]RemovedObject, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	reqURL := c.baseURL + "/object/" + url.PathEscape(bucket)

	payload, err := json.Marshal(map[string][]string{"prefixes": paths})
	if err != nil {
		return nil, fmt.Errorf("кодирование запроса Remove: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("создание запроса Remove: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос Remove %s: %w", bucket, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("Remove", resp)
	}

	var removed []RemovedObject
	if err := json.NewDecoder(resp.Body).Decode(&removed); err != nil {
		return nil, fmt.Errorf("декодирование Remove: %w", err)
	}

	c.logger.Debug("Объекты удалены",
		slog.String("bucket", bucket),
		slog.Int("requested", len(paths)),
		slog.Int("removed", len(removed)),
	)
	return removed, nil
}

// do добавляет авторизацию и выполняет запрос.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.tokenProvider != nil {
		token, err := c.tokenProvider(req.Context())
		if err != nil {
			return nil, fmt.Errorf("получение токена хранилища: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("apikey", token)
	}
	return c.httpClient.Do(req)
}

// objectURL формирует URL объекта с экранированием каждого сегмента пути.
func (c *Client) objectURL(prefix, bucket, path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.baseURL + "/" + prefix + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// statusError формирует ошибку по неуспешному ответу хранилища.
func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, ErrObjectNotFound)
	}
	return fmt.Errorf("хранилище %s вернуло статус %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}

// normalizeURL убирает trailing slash из URL.
func normalizeURL(rawURL string) string {
	return strings.TrimRight(rawURL, "/")
}
