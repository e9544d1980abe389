package model

import (
	"time"
)

// Document 设计文档的一个版本，Content 为文档树 JSON
// 同一 Key 的多个版本中只有一条 IsLatest 为 true
type Document struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"column:doc_key;size:64;index;not null"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text"`
	Version   int       `json:"version" gorm:"default:1"`
	IsLatest  bool      `json:"is_latest" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GenerationRun 一次按表格生成副本的运行记录
type GenerationRun struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	SessionID       string     `json:"session_id" gorm:"size:64;index"`
	DocumentKey     string     `json:"document_key" gorm:"size:64;index;not null"`
	DocumentVersion int        `json:"document_version"` // 运行结果保存后的版本号
	TemplateID      string     `json:"template_id" gorm:"size:64"`
	TemplateName    string     `json:"template_name" gorm:"size:255"`
	Status          string     `json:"status" gorm:"size:50;default:pending"` // pending, running, succeeded, failed, canceled
	RowCount        int        `json:"row_count"`
	CopyCount       int        `json:"copy_count"`
	PropertiesSet   int        `json:"properties_set"`
	TextFieldsSet   int        `json:"text_fields_set"`
	FailureCount    int        `json:"failure_count"`
	ErrorMsg        string     `json:"error_msg" gorm:"size:1000"`
	StartedAt       *time.Time `json:"started_at" gorm:"column:started_at"`
	CompletedAt     *time.Time `json:"completed_at" gorm:"column:completed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
