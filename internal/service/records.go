// records.go — источники записей для страниц со списками.
// RecordService адаптирует репозиторий к интерфейсу undo.Source:
// текущий пользователь передаётся явно в каждый вызов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/repository"
)

// RecordRepository — операции репозитория, нужные странице со списком.
type RecordRepository[R any] interface {
	Create(ctx context.Context, r R) error
	ListByUser(ctx context.Context, userID string) ([]R, error)
	DeleteByIDs(ctx context.Context, userID string, ids []string) (int, error)
}

// PrepareFunc привязывает новую запись к пользователю и валидирует её.
type PrepareFunc[R any] func(userID string, r R) error

// RecordService — сервис записей одного вида.
type RecordService[R any] struct {
	kind    model.Kind
	repo    RecordRepository[R]
	prepare PrepareFunc[R]
	logger  *slog.Logger
}

// NewRecordService создаёт сервис записей вида kind.
func NewRecordService[R any](kind model.Kind, repo RecordRepository[R], prepare PrepareFunc[R], logger *slog.Logger) *RecordService[R] {
	return &RecordService[R]{
		kind:    kind,
		repo:    repo,
		prepare: prepare,
		logger:  logger.With(slog.String("component", "records"), slog.String("kind", string(kind))),
	}
}

// Kind возвращает вид записей сервиса.
func (s *RecordService[R]) Kind() model.Kind {
	return s.kind
}

// List возвращает все записи пользователя.
func (s *RecordService[R]) List(ctx context.Context, userID string) ([]R, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("список %s: %w", s.kind, err)
	}
	return records, nil
}

// DeleteBatch удаляет записи пользователя одним запросом.
// Уже отсутствующие записи ошибкой не считаются.
func (s *RecordService[R]) DeleteBatch(ctx context.Context, userID string, ids []string) error {
	deleted, err := s.repo.DeleteByIDs(ctx, userID, ids)
	if err != nil {
		return fmt.Errorf("удаление %s: %w", s.kind, err)
	}
	s.logger.Info("Записи удалены",
		slog.String("user_id", userID),
		slog.Int("requested", len(ids)),
		slog.Int("deleted", deleted),
	)
	return nil
}

// Create валидирует и создаёт запись пользователя.
func (s *RecordService[R]) Create(ctx context.Context, userID string, r R) error {
	if s.prepare != nil {
		if err := s.prepare(userID, r); err != nil {
			return err
		}
	}
	if err := s.repo.Create(ctx, r); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("создание %s: %w", s.kind, err)
	}
	return nil
}

// --- Подготовка записей ---

// PrepareChild валидирует сведения о ребёнке.
func PrepareChild(userID string, c *model.Child) error {
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return fmt.Errorf("%w: имя ребёнка не задано", ErrValidation)
	}
	switch c.Gender {
	case "", "male", "female", "other":
	default:
		return fmt.Errorf("%w: недопустимый пол %q", ErrValidation, c.Gender)
	}
	if c.DateOfBirth != nil && c.DateOfBirth.After(time.Now()) {
		return fmt.Errorf("%w: дата рождения в будущем", ErrValidation)
	}
	return nil
}

// PrepareEducation валидирует сведения об образовании.
func PrepareEducation(userID string, e *model.Education) error {
	e.UserID = userID
	e.Degree = strings.TrimSpace(e.Degree)
	e.Institution = strings.TrimSpace(e.Institution)
	if e.Degree == "" || e.Institution == "" {
		return fmt.Errorf("%w: степень и учебное заведение обязательны", ErrValidation)
	}
	if e.PassingYear != 0 && (e.PassingYear < 1950 || e.PassingYear > time.Now().Year()+1) {
		return fmt.Errorf("%w: недопустимый год окончания %d", ErrValidation, e.PassingYear)
	}
	return nil
}

// PrepareNotification валидирует уведомление.
func PrepareNotification(userID string, n *model.Notification) error {
	n.UserID = userID
	n.Title = strings.TrimSpace(n.Title)
	if n.Title == "" {
		return fmt.Errorf("%w: заголовок уведомления не задан", ErrValidation)
	}
	return nil
}
