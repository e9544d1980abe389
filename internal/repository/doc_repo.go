package repository

import (
	"database/sql"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jalonsogo/figma-conveyor/internal/model"
)

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// CreateVersioned 以新版本保存文档，同一 Key 的旧版本不再是最新
func (r *documentRepository) CreateVersioned(doc *model.Document) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var maxVersion sql.NullInt64
		if err := tx.Model(&model.Document{}).
			Where("doc_key = ?", doc.Key).
			Select("MAX(version)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}

		nextVersion := 1
		if maxVersion.Valid {
			nextVersion = int(maxVersion.Int64) + 1
		}

		if err := tx.Model(&model.Document{}).
			Where("doc_key = ? AND is_latest = ?", doc.Key, true).
			Updates(map[string]interface{}{
				"is_latest":  false,
				"updated_at": time.Now(),
			}).Error; err != nil {
			return err
		}

		doc.ID = 0
		doc.Version = nextVersion
		doc.IsLatest = true
		return tx.Create(doc).Error
	})
}

func (r *documentRepository) GetLatestByKey(key string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("doc_key = ? AND is_latest = ?", key, true).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) GetVersion(key string, version int) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("doc_key = ? AND version = ?", key, version).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetVersions 按版本号倒序返回全部版本
func (r *documentRepository) GetVersions(key string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("doc_key = ?", key).
		Order("version DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) ListLatest() ([]model.Document, error) {
	var docs []model.Document
	err := r.db.Where("is_latest = ?", true).
		Order("updated_at DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepository) DeleteByKey(key string) error {
	return r.db.Where("doc_key = ?", key).Delete(&model.Document{}).Error
}
