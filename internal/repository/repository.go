package repository

import (
	"errors"
	"time"

	"github.com/jalonsogo/figma-conveyor/internal/model"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

type DocumentRepository interface {
	CreateVersioned(doc *model.Document) error
	GetLatestByKey(key string) (*model.Document, error)
	GetVersion(key string, version int) (*model.Document, error)
	GetVersions(key string) ([]model.Document, error)
	ListLatest() ([]model.Document, error)
	DeleteByKey(key string) error
}

type RunRepository interface {
	Create(run *model.GenerationRun) error
	Get(id uint) (*model.GenerationRun, error)
	Save(run *model.GenerationRun) error
	ListBySession(sessionID string) ([]model.GenerationRun, error)
	ListByDocument(key string) ([]model.GenerationRun, error)
	CleanupStuckRuns(timeout time.Duration) (int64, error)
}
