// documents.go — документы пользователя: метаданные в PostgreSQL,
// содержимое в объектном хранилище, доступ по подписанным ссылкам.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/repository"
	"github.com/bigkaa/ejobportal/internal/storageclient"
)

// ObjectStorage — операции объектного хранилища.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, body io.Reader) error
	CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) ([]storageclient.RemovedObject, error)
}

// TxRunner выполняет функцию в транзакции.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// DocumentRepoFactory создаёт репозиторий документов поверх транзакции.
type DocumentRepoFactory func(db repository.DBTX) repository.DocumentRepository

// UploadRequest — параметры загрузки документа.
type UploadRequest struct {
	Title       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService — сервис документов. Реализует undo.Source[*model.Document].
type DocumentService struct {
	repo     repository.DocumentRepository
	txRunner TxRunner
	txRepo   DocumentRepoFactory
	storage  ObjectStorage
	bucket   string
	urlTTL   time.Duration
	cache    *SignedURLCache
	now      func() time.Time
	logger   *slog.Logger
}

// NewDocumentService создаёт сервис документов.
func NewDocumentService(
	repo repository.DocumentRepository,
	txRunner TxRunner,
	txRepo DocumentRepoFactory,
	storage ObjectStorage,
	bucket string,
	urlTTL time.Duration,
	cache *SignedURLCache,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		repo:     repo,
		txRunner: txRunner,
		txRepo:   txRepo,
		storage:  storage,
		bucket:   bucket,
		urlTTL:   urlTTL,
		cache:    cache,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "documents")),
	}
}

// List возвращает документы пользователя.
func (s *DocumentService) List(ctx context.Context, userID string) ([]*model.Document, error) {
	docs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("список документов: %w", err)
	}
	return docs, nil
}

// Upload сохраняет содержимое в хранилище и создаёт запись о документе.
// Если запись создать не удалось, объект удаляется из хранилища.
func (s *DocumentService) Upload(ctx context.Context, userID string, req UploadRequest) (*model.Document, error) {
	title := strings.TrimSpace(req.Title)
	fileName := sanitizeFileName(req.FileName)
	if fileName == "" {
		return nil, fmt.Errorf("%w: имя файла не задано", ErrValidation)
	}
	if title == "" {
		title = fileName
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.NewString()
	doc := &model.Document{
		ID:          id,
		UserID:      userID,
		Title:       title,
		FileName:    fileName,
		ContentType: contentType,
		Size:        req.Size,
		StoragePath: path.Join(userID, id, fileName),
	}

	if err := s.storage.Upload(ctx, s.bucket, doc.StoragePath, contentType, req.Body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		if _, rmErr := s.storage.Remove(context.WithoutCancel(ctx), s.bucket, []string{doc.StoragePath}); rmErr != nil {
			s.logger.Warn("Не удалось удалить объект после ошибки создания записи",
				slog.String("path", doc.StoragePath),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("создание документа: %w", err)
	}

	s.logger.Info("Документ загружен",
		slog.String("user_id", userID),
		slog.String("document_id", id),
		slog.Int64("size", req.Size),
	)
	return doc, nil
}

// SignedURL возвращает подписанную ссылку на документ пользователя.
// Ссылки кэшируются; чужой или отсутствующий документ — ErrNotFound.
func (s *DocumentService) SignedURL(ctx context.Context, userID, docID string) (SignedURL, error) {
	if cached, ok := s.cache.Get(userID, docID); ok {
		return cached, nil
	}

	doc, err := s.repo.GetByID(ctx, userID, docID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SignedURL{}, ErrNotFound
		}
		return SignedURL{}, fmt.Errorf("получение документа: %w", err)
	}

	issuedAt := s.now()
	raw, err := s.storage.CreateSignedURL(ctx, s.bucket, doc.StoragePath, s.urlTTL)
	if err != nil {
		if errors.Is(err, storageclient.ErrObjectNotFound) {
			return SignedURL{}, ErrNotFound
		}
		return SignedURL{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	signed := SignedURL{URL: raw, ExpiresAt: issuedAt.Add(s.urlTTL)}
	s.cache.Set(userID, docID, signed)
	return signed, nil
}

// DeleteBatch удаляет записи документов одной транзакцией, затем
// удаляет объекты из хранилища. Ошибка удаления объектов не отменяет
// удаление записей: осиротевшие объекты только логируются.
func (s *DocumentService) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	var paths []string
	var deleted int
	err := s.txRunner.RunInTx(ctx, func(tx pgx.Tx) error {
		repo := s.txRepo(tx)
		var err error
		paths, err = repo.StoragePaths(ctx, userID, ids)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteByIDs(ctx, userID, ids)
		return err
	})
	if err != nil {
		return fmt.Errorf("удаление документов: %w", err)
	}

	for _, id := range ids {
		s.cache.Delete(userID, id)
	}

	if len(paths) > 0 {
		if _, err := s.storage.Remove(ctx, s.bucket, paths); err != nil {
			s.logger.Warn("Объекты документов не удалены из хранилища",
				slog.String("user_id", userID),
				slog.Int("count", len(paths)),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("Документы удалены",
		slog.String("user_id", userID),
		slog.Int("requested", len(ids)),
		slog.Int("deleted", deleted),
	)
	return nil
}

// sanitizeFileName оставляет только базовое имя файла без управляющих символов.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
