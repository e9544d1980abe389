package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jalonsogo/figma-conveyor/config"
	"github.com/jalonsogo/figma-conveyor/internal/eventbus"
	"github.com/jalonsogo/figma-conveyor/internal/model"
	"github.com/jalonsogo/figma-conveyor/internal/repository"
	"github.com/jalonsogo/figma-conveyor/internal/service/orchestrator"
	"github.com/jalonsogo/figma-conveyor/internal/subscriber"
)

// sampleTree 一个页面：Card 模板（Label 文本 + Flag 布尔 + Missing 变体）、一个 Card 实例和一个普通文本
const sampleTree = `{
  "name": "Sample",
  "current_page_id": "p1",
  "pages": [{
    "id": "p1",
    "name": "Page 1",
    "children": [
      {
        "id": "card",
        "kind": "TEMPLATE",
        "name": "Card",
        "width": 200,
        "height": 60,
        "definitions": {
          "Flag#1:0": {"type": "BOOLEAN", "default_value": true},
          "Missing": {"type": "VARIANT", "default_value": "a", "variant_options": ["a", "b"]}
        },
        "children": [{"id": "card-label", "kind": "TEXT", "name": "Label", "characters": "Label"}]
      },
      {"id": "card-1", "kind": "INSTANCE", "name": "Card", "main_component_id": "card"},
      {"id": "orphan", "kind": "INSTANCE", "name": "Ghost", "main_component_id": "gone"},
      {"id": "note", "kind": "TEXT", "name": "Note"}
    ]
  }]
}`

type testEnv struct {
	docs     *DocumentService
	sessions *SessionService
	runs     repository.RunRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle error: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.Document{}, &model.GenerationRun{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	orch, err := orchestrator.NewOrchestrator(1)
	if err != nil {
		t.Fatalf("orchestrator error: %v", err)
	}
	t.Cleanup(orch.Stop)

	runRepo := repository.NewRunRepository(db)
	bus := eventbus.NewRunEventBus()
	subscriber.NewRunEventSubscriber(runRepo).Register(bus)

	docs := NewDocumentService(repository.NewDocumentRepository(db))
	return &testEnv{
		docs:     docs,
		sessions: NewSessionService(config.Default(), docs, runRepo, orch, bus),
		runs:     runRepo,
	}
}

func (e *testEnv) createDocument(t *testing.T) *model.Document {
	t.Helper()
	doc, err := e.docs.Create(CreateDocumentRequest{Tree: []byte(sampleTree)})
	if err != nil {
		t.Fatalf("create document error: %v", err)
	}
	return doc
}
