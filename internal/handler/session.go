package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/jalonsogo/figma-conveyor/internal/pkg/table"
	"github.com/jalonsogo/figma-conveyor/internal/service"
)

type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	DocumentKey string `json:"document_key" binding:"required"`
}

// Create 为文档打开会话
func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.Create(req.DocumentKey)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// Message 处理一条消息，生成类消息会阻塞到运行结束
func (h *SessionHandler) Message(c *gin.Context) {
	var msg service.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Handle(c.Request.Context(), c.Param("id"), msg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UploadTable 上传 csv/xlsx 表格并按其生成副本
func (h *SessionHandler) UploadTable(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	format, err := table.FormatFromName(fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	rows, err := table.Read(f, format)
	if err != nil {
		klog.Warningf("表格解析失败: file=%s, err=%v", fileHeader.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.Handle(c.Request.Context(), c.Param("id"), service.Message{
		Type:    service.MsgGenerateInstances,
		CSVData: rows,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Runs 获取会话的运行历史
func (h *SessionHandler) Runs(c *gin.Context) {
	runs, err := h.service.Runs(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

// Close 关闭会话并取消运行中的生成
func (h *SessionHandler) Close(c *gin.Context) {
	resp, err := h.service.Close(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DocumentRuns 获取文档在所有会话中的运行历史
func (h *SessionHandler) DocumentRuns(c *gin.Context) {
	runs, err := h.service.DocumentRuns(c.Param("key"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
