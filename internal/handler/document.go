package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jalonsogo/figma-conveyor/internal/repository"
	"github.com/jalonsogo/figma-conveyor/internal/service"
)

type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(service *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Create 上传设计文档，保存为第一个版本
func (h *DocumentHandler) Create(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.Create(req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// List 获取所有文档的最新版本
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.service.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, docs)
}

// Get 获取文档最新版本
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetVersions 获取文档版本列表
func (h *DocumentHandler) GetVersions(c *gin.Context) {
	docs, err := h.service.GetVersions(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// GetVersion 获取文档指定版本
func (h *DocumentHandler) GetVersion(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid version"})
		return
	}

	doc, err := h.service.GetVersion(c.Param("key"), version)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Delete 删除文档及其全部版本
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Param("key")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type selectionRequest struct {
	NodeIDs []string `json:"node_ids"`
}

// SetSelection 设置文档当前选区
func (h *DocumentHandler) SetSelection(c *gin.Context) {
	var req selectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.service.SetSelection(c.Param("key"), req.NodeIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// writeError 按错误类型映射 HTTP 状态码
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidDocument),
		errors.Is(err, service.ErrUnknownNode),
		errors.Is(err, service.ErrUnknownMessageType):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
