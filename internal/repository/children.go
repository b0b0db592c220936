package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/ejobportal/internal/domain/model"
)

// ChildRepository — операции с таблицей children.
type ChildRepository interface {
	// Create создаёт запись; ID и CreatedAt заполняются базой.
	Create(ctx context.Context, c *model.Child) error
	// ListByUser возвращает записи пользователя в порядке создания.
	ListByUser(ctx context.Context, userID string) ([]*model.Child, error)
	// DeleteByIDs удаляет записи пользователя одним запросом.
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error)
}

type childRepo struct {
	db DBTX
}

// NewChildRepository создаёт репозиторий сведений о детях.
func NewChildRepository(db DBTX) ChildRepository {
	return &childRepo{db: db}
}

func scanChild(row pgx.Row) (*model.Child, error) {
	c := &model.Child{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.DateOfBirth, &c.Gender, &c.CreatedAt)
	return c, err
}

const childColumns = `id, user_id, name, date_of_birth, gender, created_at`

func (r *childRepo) Create(ctx context.Context, c *model.Child) error {
	query := `
		INSERT INTO children (user_id, name, date_of_birth, gender)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, c.UserID, c.Name, c.DateOfBirth, c.Gender).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания записи о ребёнке: %w", err)
	}
	return nil
}

func (r *childRepo) ListByUser(ctx context.Context, userID string) ([]*model.Child, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM children
		WHERE user_id = $1
		ORDER BY created_at, id`, childColumns)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей о детях: %w", err)
	}
	defer rows.Close()

	var result []*model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи о ребёнке: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *childRepo) DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error) {
	return deleteByIDs(ctx, r.db, "children", userID, ids)
}
