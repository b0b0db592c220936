package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/ejobportal/internal/domain/model"
	"github.com/bigkaa/ejobportal/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChildRepo — репозиторий детей в памяти.
type fakeChildRepo struct {
	children  []*model.Child
	createErr error
	deleteErr error
	deleted   [][]string
}

func (r *fakeChildRepo) Create(_ context.Context, c *model.Child) error {
	if r.createErr != nil {
		return r.createErr
	}
	c.ID = "c" + string(rune('0'+len(r.children)))
	r.children = append(r.children, c)
	return nil
}

func (r *fakeChildRepo) ListByUser(_ context.Context, userID string) ([]*model.Child, error) {
	var out []*model.Child
	for _, c := range r.children {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeChildRepo) DeleteByIDs(_ context.Context, _ string, ids []string) (int, error) {
	r.deleted = append(r.deleted, ids)
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	return len(ids), nil
}

func TestRecordService_CreateAndList(t *testing.T) {
	repo := &fakeChildRepo{}
	svc := NewRecordService[*model.Child](model.KindChildren, repo, PrepareChild, testLogger())

	if err := svc.Create(context.Background(), "officer-1", &model.Child{Name: "  Nadia  ", Gender: "female"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	list, err := svc.List(context.Background(), "officer-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Nadia" || list[0].UserID != "officer-1" {
		t.Errorf("List = %+v, хотели одну запись Nadia пользователя officer-1", list)
	}
	if other, _ := svc.List(context.Background(), "officer-2"); len(other) != 0 {
		t.Errorf("List чужого пользователя = %d записей", len(other))
	}
}

func TestRecordService_CreateValidation(t *testing.T) {
	svc := NewRecordService[*model.Child](model.KindChildren, &fakeChildRepo{}, PrepareChild, testLogger())

	future := time.Now().Add(48 * time.Hour)
	tests := []struct {
		name  string
		child *model.Child
	}{
		{"пустое имя", &model.Child{Name: "   "}},
		{"недопустимый пол", &model.Child{Name: "A", Gender: "x"}},
		{"дата рождения в будущем", &model.Child{Name: "A", DateOfBirth: &future}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), "officer-1", tt.child)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Create = %v, хотели ErrValidation", err)
			}
		})
	}
}

func TestRecordService_CreateConflict(t *testing.T) {
	repo := &fakeChildRepo{createErr: repository.ErrConflict}
	svc := NewRecordService[*model.Child](model.KindChildren, repo, PrepareChild, testLogger())

	err := svc.Create(context.Background(), "officer-1", &model.Child{Name: "A"})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Create = %v, хотели ErrConflict", err)
	}
}

func TestRecordService_DeleteBatch(t *testing.T) {
	repo := &fakeChildRepo{}
	svc := NewRecordService[*model.Child](model.KindChildren, repo, PrepareChild, testLogger())

	if err := svc.DeleteBatch(context.Background(), "officer-1", []string{"a", "b"}); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if len(repo.deleted) != 1 || len(repo.deleted[0]) != 2 {
		t.Errorf("вызовы DeleteByIDs = %v, хотели один с двумя id", repo.deleted)
	}

	boom := errors.New("boom")
	repo.deleteErr = boom
	if err := svc.DeleteBatch(context.Background(), "officer-1", []string{"c"}); !errors.Is(err, boom) {
		t.Errorf("DeleteBatch = %v, хотели обёрнутую ошибку репозитория", err)
	}
}

func TestPrepareEducation(t *testing.T) {
	tests := []struct {
		name    string
		e       model.Education
		wantErr bool
	}{
		{"корректная", model.Education{Degree: "BSc", Institution: "BUET", PassingYear: 2015}, false},
		{"без года", model.Education{Degree: "HSC", Institution: "Notre Dame"}, false},
		{"без степени", model.Education{Institution: "BUET"}, true},
		{"год в прошлом веке", model.Education{Degree: "SSC", Institution: "X", PassingYear: 1900}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.e
			err := PrepareEducation("officer-1", &e)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrepareEducation = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && e.UserID != "officer-1" {
				t.Errorf("UserID = %q, хотели officer-1", e.UserID)
			}
		})
	}
}

func TestPrepareNotification(t *testing.T) {
	if err := PrepareNotification("u", &model.Notification{Title: " "}); !errors.Is(err, ErrValidation) {
		t.Errorf("PrepareNotification = %v, хотели ErrValidation", err)
	}
	n := &model.Notification{Title: "Viva"}
	if err := PrepareNotification("u", n); err != nil || n.UserID != "u" {
		t.Errorf("PrepareNotification = %v, UserID = %q", err, n.UserID)
	}
}
