package handler

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/internal/service"
	"k8s.io/klog/v2"
)

// TemplateHandler 模板管理接口
type TemplateHandler struct {
	service service.TemplateService
}

func NewTemplateHandler(service service.TemplateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *TemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/templates", h.ListTemplates)
	router.POST("/templates", h.UploadTemplate)
	router.DELETE("/templates/:id", h.DeleteTemplate)
	router.POST("/templates/:id/rename", h.RenameTemplate)
	router.POST("/templates/:id/copy", h.CopyTemplate)
	router.GET("/templates/:id/parse", h.ParseTemplate)
	router.POST("/templates/parse", h.ParseUpload)
	router.GET("/templates/:id/mappings", h.ListTemplateMappings)
}

// RenameTemplateRequest 重命名请求
type RenameTemplateRequest struct {
	Name string `json:"name" binding:"required"`
}

// CopyTemplateRequest 复制请求，名称可空
type CopyTemplateRequest struct {
	Name string `json:"name"`
}

// UploadTemplate 上传 docx 模板（multipart: file, name 可选）
func (h *TemplateHandler) UploadTemplate(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文件: " + err.Error()})
		return
	}
	content, err := readUpload(fileHeader.Open())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.service.Upload(c.Request.Context(), c.PostForm("name"), fileHeader.Filename, content)
	if err != nil {
		klog.Errorf("UploadTemplate: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ListTemplates 模板列表，不含文件内容
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// DeleteTemplate 删除模板及其映射
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "模板已删除"})
}

// RenameTemplate 重命名模板
func (h *TemplateHandler) RenameTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RenameTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.service.Rename(c.Request.Context(), id, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, template)
}

// CopyTemplate 复制模板及其字段映射
func (h *TemplateHandler) CopyTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CopyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template, err := h.service.Copy(c.Request.Context(), id, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

// ParseTemplate 解析已保存模板的占位符
func (h *TemplateHandler) ParseTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.service.Parse(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ParseUpload 解析上传文件的占位符，不保存模板
func (h *TemplateHandler) ParseUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文件: " + err.Error()})
		return
	}
	content, err := readUpload(fileHeader.Open())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ParseBytes(content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListTemplateMappings 模板下已配置的全部映射
func (h *TemplateHandler) ListTemplateMappings(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	mappings, err := h.service.ListMappings(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mappings)
}

func readUpload(f multipart.File, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
