package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jalonsogo/figma-conveyor/internal/model"
)

type runRepository struct {
	db *gorm.DB
}

func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) Create(run *model.GenerationRun) error {
	return r.db.Create(run).Error
}

func (r *runRepository) Get(id uint) (*model.GenerationRun, error) {
	var run model.GenerationRun
	err := r.db.First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *runRepository) Save(run *model.GenerationRun) error {
	return r.db.Save(run).Error
}

func (r *runRepository) ListBySession(sessionID string) ([]model.GenerationRun, error) {
	var runs []model.GenerationRun
	err := r.db.Where("session_id = ?", sessionID).Order("id").Find(&runs).Error
	return runs, err
}

func (r *runRepository) ListByDocument(key string) ([]model.GenerationRun, error) {
	var runs []model.GenerationRun
	err := r.db.Where("document_key = ?", key).Order("id").Find(&runs).Error
	return runs, err
}

// CleanupStuckRuns 将超时仍处于 running 的运行标记为失败
// 用于服务重启后处理上次未结束的运行
func (r *runRepository) CleanupStuckRuns(timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	result := r.db.Model(&model.GenerationRun{}).
		Where("status = ? AND started_at < ?", "running", cutoff).
		Updates(map[string]interface{}{
			"status":    "failed",
			"error_msg": fmt.Sprintf("运行超时（超过 %v），已自动标记为失败", timeout),
		})
	return result.RowsAffected, result.Error
}
