package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	analysis := Analysis{
		ID:         "analysis-1",
		SessionID:  "guest:s1",
		MediaID:    "media-1",
		TaskID:     "property_damage",
		ProviderID: "gemini",
		Override:   "auto",
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			analysis.ID,
			analysis.SessionID,
			analysis.MediaID,
			analysis.TaskID,
			analysis.ProviderID,
			analysis.Override,
			analysis.Query,
			analysis.Status,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), analysis); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateStatusMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("UPDATE analyses").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), StatusUpdate{
		SessionID:  "guest:s1",
		AnalysisID: "missing",
		Status:     StatusProcessing,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateStatus err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoHasActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("guest:s1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.HasActive(context.Background(), "guest:s1")
	if err != nil {
		t.Fatalf("HasActive: %v", err)
	}
	if !active {
		t.Fatalf("HasActive = false, want true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoClearBySessionReturnsActiveIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	rows := sqlmock.NewRows([]string{"id", "status"}).
		AddRow("a1", StatusCompleted).
		AddRow("a2", StatusProcessing)
	mock.ExpectQuery("DELETE FROM analyses").
		WithArgs("guest:s1").
		WillReturnRows(rows)

	active, err := repo.ClearBySession(context.Background(), "guest:s1")
	if err != nil {
		t.Fatalf("ClearBySession: %v", err)
	}
	if len(active) != 1 || active[0] != "a2" {
		t.Fatalf("active = %v, want [a2]", active)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
