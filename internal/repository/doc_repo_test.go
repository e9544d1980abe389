package repository

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jalonsogo/figma-conveyor/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := db.AutoMigrate(&model.Document{}, &model.GenerationRun{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return db
}

func TestDocumentRepositoryCreateVersioned(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepository(db)

	doc1 := &model.Document{Key: "k1", Name: "Landing", Content: `{"pages":[]}`}
	if err := repo.CreateVersioned(doc1); err != nil {
		t.Fatalf("CreateVersioned doc1 error: %v", err)
	}
	if doc1.Version != 1 || !doc1.IsLatest {
		t.Fatalf("unexpected doc1 version state: version=%d isLatest=%v", doc1.Version, doc1.IsLatest)
	}

	doc2 := &model.Document{Key: "k1", Name: "Landing", Content: `{"pages":[1]}`}
	if err := repo.CreateVersioned(doc2); err != nil {
		t.Fatalf("CreateVersioned doc2 error: %v", err)
	}
	if doc2.Version != 2 || !doc2.IsLatest {
		t.Fatalf("unexpected doc2 version state: version=%d isLatest=%v", doc2.Version, doc2.IsLatest)
	}

	var oldDoc model.Document
	if err := db.First(&oldDoc, doc1.ID).Error; err != nil {
		t.Fatalf("load doc1 error: %v", err)
	}
	if oldDoc.IsLatest {
		t.Fatalf("expected old doc to be not latest")
	}

	doc3 := &model.Document{Key: "k2", Name: "Pricing"}
	if err := repo.CreateVersioned(doc3); err != nil {
		t.Fatalf("CreateVersioned doc3 error: %v", err)
	}
	if doc3.Version != 1 {
		t.Fatalf("versions are per key, got %d", doc3.Version)
	}

	docs, err := repo.ListLatest()
	if err != nil {
		t.Fatalf("ListLatest error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 latest docs, got %d", len(docs))
	}
	for _, d := range docs {
		if !d.IsLatest {
			t.Fatalf("expected latest doc, got isLatest=false: %+v", d)
		}
	}
}

func TestDocumentRepositoryLookups(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t))

	for _, content := range []string{"v1", "v2", "v3"} {
		if err := repo.CreateVersioned(&model.Document{Key: "k", Name: "Doc", Content: content}); err != nil {
			t.Fatalf("CreateVersioned error: %v", err)
		}
	}

	latest, err := repo.GetLatestByKey("k")
	if err != nil {
		t.Fatalf("GetLatestByKey error: %v", err)
	}
	if latest.Version != 3 || latest.Content != "v3" {
		t.Fatalf("unexpected latest: %+v", latest)
	}

	v1, err := repo.GetVersion("k", 1)
	if err != nil {
		t.Fatalf("GetVersion error: %v", err)
	}
	if v1.Content != "v1" {
		t.Fatalf("unexpected v1 content: %s", v1.Content)
	}

	versions, err := repo.GetVersions("k")
	if err != nil {
		t.Fatalf("GetVersions error: %v", err)
	}
	if len(versions) != 3 || versions[0].Version != 3 {
		t.Fatalf("expected versions in descending order, got %+v", versions)
	}

	if _, err := repo.GetLatestByKey("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetVersion("k", 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.DeleteByKey("k"); err != nil {
		t.Fatalf("DeleteByKey error: %v", err)
	}
	if _, err := repo.GetLatestByKey("k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
