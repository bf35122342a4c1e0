package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/internal/service"
	"k8s.io/klog/v2"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// WizardHandler 向导流程接口：组装、查缺、AI 补全、渲染
type WizardHandler struct {
	service service.WizardService
}

func NewWizardHandler(service service.WizardService) *WizardHandler {
	return &WizardHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *WizardHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/context/assemble", h.AssembleContext)
	router.POST("/context/gaps", h.DetectGaps)
	router.POST("/ai/fill_context", h.FillContext)
	router.POST("/ai/generate", h.GenerateFields)
	router.POST("/generate/render_from_context", h.RenderFromContext)
	router.POST("/generate/resume", h.GenerateResume)
}

// DetectGapsRequest 缺失检测请求
type DetectGapsRequest struct {
	Context               map[string]any `json:"context" binding:"required"`
	SingletonPlaceholders []string       `json:"singleton_placeholders"`
	LoopPlaceholders      []string       `json:"loop_placeholders"`
}

// AssembleContext 按映射组装渲染上下文
func (h *WizardHandler) AssembleContext(c *gin.Context) {
	var req service.AssembleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resumeCtx, err := h.service.AssembleContext(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("AssembleContext: person=%s/%s: %v", req.PersonTable, req.PersonID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"context": resumeCtx})
}

// DetectGaps 对照占位符列表检测缺失字段
func (h *WizardHandler) DetectGaps(c *gin.Context) {
	var req DetectGapsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := h.service.DetectGaps(req.Context, req.SingletonPlaceholders, req.LoopPlaceholders)
	c.JSON(http.StatusOK, report)
}

// FillContext 用 AI 补全指定字段，返回只含目标字段的部分上下文
func (h *WizardHandler) FillContext(c *gin.Context) {
	var req service.FillContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	generated, err := h.service.FillContext(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("FillContext: fields=%v: %v", req.TargetFields, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": generated})
}

// GenerateFields 直接基于某行原始数据生成字段
func (h *WizardHandler) GenerateFields(c *gin.Context) {
	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	generated, err := h.service.GenerateFromRecord(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("GenerateFields: table=%s record=%s: %v", req.TableName, req.RecordID, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"generated": generated})
}

// RenderFromContext 渲染最终文档（multipart: template_id, context 为 JSON 串）
func (h *WizardHandler) RenderFromContext(c *gin.Context) {
	var templateID uint
	if _, err := fmt.Sscanf(c.PostForm("template_id"), "%d", &templateID); err != nil || templateID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template_id"})
		return
	}

	var resumeCtx map[string]any
	if err := json.Unmarshal([]byte(c.PostForm("context")), &resumeCtx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "context 不是合法 JSON: " + err.Error()})
		return
	}

	filename, content, err := h.service.RenderFromContext(c.Request.Context(), templateID, resumeCtx)
	if err != nil {
		klog.Errorf("RenderFromContext: template=%d: %v", templateID, err)
		writeError(c, err)
		return
	}
	writeDocx(c, filename, content)
}

// GenerateResume 组装加渲染一步到位
func (h *WizardHandler) GenerateResume(c *gin.Context) {
	var req service.GenerateResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename, content, err := h.service.GenerateResume(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("GenerateResume: template=%d: %v", req.TemplateID, err)
		writeError(c, err)
		return
	}
	writeDocx(c, filename, content)
}

func writeDocx(c *gin.Context, filename string, content []byte) {
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, docxContentType, content)
}
