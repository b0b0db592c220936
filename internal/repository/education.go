package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/ejobportal/internal/domain/model"
)

// EducationRepository — операции с таблицей education_records.
type EducationRepository interface {
	Create(ctx context.Context, e *model.Education) error
	ListByUser(ctx context.Context, userID string) ([]*model.Education, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error)
}

type educationRepo struct {
	db DBTX
}

// NewEducationRepository создаёт репозиторий сведений об образовании.
func NewEducationRepository(db DBTX) EducationRepository {
	return &educationRepo{db: db}
}

func scanEducation(row pgx.Row) (*model.Education, error) {
	e := &model.Education{}
	err := row.Scan(&e.ID, &e.UserID, &e.Degree, &e.Institution, &e.PassingYear, &e.Result, &e.CreatedAt)
	return e, err
}

const educationColumns = `id, user_id, degree, institution, passing_year, result, created_at`

func (r *educationRepo) Create(ctx context.Context, e *model.Education) error {
	query := `
		INSERT INTO education_records (user_id, degree, institution, passing_year, result)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, e.UserID, e.Degree, e.Institution, e.PassingYear, e.Result).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания записи об образовании: %w", err)
	}
	return nil
}

func (r *educationRepo) ListByUser(ctx context.Context, userID string) ([]*model.Education, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM education_records
		WHERE user_id = $1
		ORDER BY created_at, id`, educationColumns)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения записей об образовании: %w", err)
	}
	defer rows.Close()

	var result []*model.Education
	for rows.Next() {
		e, err := scanEducation(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования записи об образовании: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *educationRepo) DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error) {
	return deleteByIDs(ctx, r.db, "education_records", userID, ids)
}
