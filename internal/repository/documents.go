package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/ejobportal/internal/domain/model"
)

// DocumentRepository — операции с таблицей documents.
type DocumentRepository interface {
	// Create создаёт запись. ID задаётся вызывающим: он входит в путь объекта.
	Create(ctx context.Context, d *model.Document) error
	ListByUser(ctx context.Context, userID string) ([]*model.Document, error)
	// GetByID возвращает документ пользователя или ErrNotFound.
	GetByID(ctx context.Context, userID, id string) (*model.Document, error)
	// StoragePaths возвращает пути объектов для документов пользователя.
	StoragePaths(ctx context.Context, userID string, ids []string) ([]string, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error)
}

type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func scanDocument(row pgx.Row) (*model.Document, error) {
	d := &model.Document{}
	err := row.Scan(&d.ID, &d.UserID, &d.Title, &d.FileName, &d.ContentType,
		&d.Size, &d.StoragePath, &d.CreatedAt)
	return d, err
}

const documentColumns = `id, user_id, title, file_name, content_type, size, storage_path, created_at`

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	query := `
		INSERT INTO documents (id, user_id, title, file_name, content_type, size, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		d.ID, d.UserID, d.Title, d.FileName, d.ContentType, d.Size, d.StoragePath,
	).Scan(&d.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: документ %s уже существует", ErrConflict, d.ID)
		}
		return fmt.Errorf("ошибка создания документа: %w", err)
	}
	return nil
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string) ([]*model.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM documents
		WHERE user_id = $1
		ORDER BY created_at, id`, documentColumns)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения документов: %w", err)
	}
	defer rows.Close()

	var result []*model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (r *documentRepo) GetByID(ctx context.Context, userID, id string) (*model.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE user_id = $1 AND id = $2`, documentColumns)
	d, err := scanDocument(r.db.QueryRow(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа: %w", err)
	}
	return d, nil
}

func (r *documentRepo) StoragePaths(ctx context.Context, userID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT storage_path FROM documents WHERE user_id = $1 AND id = ANY($2) ORDER BY storage_path`,
		userID, ids)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения путей документов: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования путей документов: %w", err)
	}
	return paths, nil
}

func (r *documentRepo) DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error) {
	return deleteByIDs(ctx, r.db, "documents", userID, ids)
}
