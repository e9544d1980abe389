package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/internal/design"
	"github.com/jalonsogo/figma-conveyor/internal/model"
	"github.com/jalonsogo/figma-conveyor/internal/repository"
)

var (
	ErrInvalidDocument = errors.New("invalid design document")
	ErrUnknownNode     = errors.New("unknown node")
)

type DocumentService struct {
	docRepo repository.DocumentRepository
}

func NewDocumentService(docRepo repository.DocumentRepository) *DocumentService {
	return &DocumentService{docRepo: docRepo}
}

type CreateDocumentRequest struct {
	Name string          `json:"name"`
	Tree json.RawMessage `json:"tree" binding:"required"`
}

// Create 校验文档树并保存为新 Key 的第一个版本
func (s *DocumentService) Create(req CreateDocumentRequest) (*model.Document, error) {
	tree, err := design.Parse(req.Tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if req.Name != "" {
		tree.Name = req.Name
	}
	if tree.Name == "" {
		tree.Name = "Untitled"
	}
	return s.SaveTree(uuid.NewString(), tree)
}

func (s *DocumentService) List() ([]model.Document, error) {
	return s.docRepo.ListLatest()
}

func (s *DocumentService) Get(key string) (*model.Document, error) {
	return s.docRepo.GetLatestByKey(key)
}

func (s *DocumentService) GetVersions(key string) ([]model.Document, error) {
	docs, err := s.docRepo.GetVersions(key)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return docs, nil
}

// LoadTree 读取并解析最新版本的文档树
func (s *DocumentService) LoadTree(key string) (*design.Document, *model.Document, error) {
	record, err := s.docRepo.GetLatestByKey(key)
	if err != nil {
		return nil, nil, err
	}
	tree, err := design.Parse([]byte(record.Content))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stored version %d: %v", ErrInvalidDocument, record.Version, err)
	}
	return tree, record, nil
}

// SaveTree 将文档树保存为 key 的新版本
func (s *DocumentService) SaveTree(key string, tree *design.Document) (*model.Document, error) {
	content, err := tree.Marshal()
	if err != nil {
		return nil, err
	}
	record := &model.Document{
		Key:       key,
		Name:      tree.Name,
		Content:   string(content),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.docRepo.CreateVersioned(record); err != nil {
		return nil, err
	}
	klog.V(6).Infof("文档已保存: key=%s, version=%d", key, record.Version)
	return record, nil
}

// SetSelection 替换文档当前选区并保存新版本，所有 id 必须存在
func (s *DocumentService) SetSelection(key string, ids []string) (*model.Document, error) {
	tree, _, err := s.LoadTree(key)
	if err != nil {
		return nil, err
	}
	nodes := make([]*design.Node, 0, len(ids))
	for _, id := range ids {
		n := tree.NodeByID(id)
		if n == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
		nodes = append(nodes, n)
	}
	tree.SetSelection(nodes)
	return s.SaveTree(key, tree)
}

// GetVersion 获取文档的指定版本
func (s *DocumentService) GetVersion(key string, version int) (*model.Document, error) {
	return s.docRepo.GetVersion(key, version)
}

// Delete 删除文档的全部版本
func (s *DocumentService) Delete(key string) error {
	if _, err := s.docRepo.GetLatestByKey(key); err != nil {
		return err
	}
	if err := s.docRepo.DeleteByKey(key); err != nil {
		return err
	}
	klog.V(6).Infof("文档已删除: key=%s", key)
	return nil
}
