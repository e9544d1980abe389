package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jalonsogo/figma-conveyor/internal/model"
)

func TestRunRepositoryCRUD(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))

	run := &model.GenerationRun{SessionID: "s1", DocumentKey: "k1", Status: "pending", RowCount: 3}
	if err := repo.Create(run); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := repo.Create(&model.GenerationRun{SessionID: "s2", DocumentKey: "k1", Status: "pending"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	run.Status = "succeeded"
	run.CopyCount = 3
	if err := repo.Save(run); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := repo.Get(run.ID)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != "succeeded" || got.CopyCount != 3 {
		t.Fatalf("unexpected run: %+v", got)
	}

	bySession, err := repo.ListBySession("s1")
	if err != nil || len(bySession) != 1 {
		t.Fatalf("ListBySession: runs=%d err=%v", len(bySession), err)
	}
	byDoc, err := repo.ListByDocument("k1")
	if err != nil || len(byDoc) != 2 {
		t.Fatalf("ListByDocument: runs=%d err=%v", len(byDoc), err)
	}

	if _, err := repo.Get(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRunRepositoryCleanupStuckRuns(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))

	old := time.Now().Add(-time.Hour)
	recent := time.Now()
	stuck := &model.GenerationRun{DocumentKey: "k", Status: "running", StartedAt: &old}
	active := &model.GenerationRun{DocumentKey: "k", Status: "running", StartedAt: &recent}
	for _, r := range []*model.GenerationRun{stuck, active} {
		if err := repo.Create(r); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	affected, err := repo.CleanupStuckRuns(10 * time.Minute)
	if err != nil {
		t.Fatalf("CleanupStuckRuns error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected run, got %d", affected)
	}

	got, _ := repo.Get(stuck.ID)
	if got.Status != "failed" || got.ErrorMsg == "" {
		t.Fatalf("stuck run should be failed, got %+v", got)
	}
	got, _ = repo.Get(active.ID)
	if got.Status != "running" {
		t.Fatalf("active run should stay running, got %s", got.Status)
	}
}
