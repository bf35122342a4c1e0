package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/internal/service"
	"k8s.io/klog/v2"
)

// APIConfigHandler 模型服务配置接口
type APIConfigHandler struct {
	service service.APIConfigService
}

func NewAPIConfigHandler(service service.APIConfigService) *APIConfigHandler {
	return &APIConfigHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *APIConfigHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/configs", h.ListConfigs)
	router.POST("/configs", h.CreateConfig)
	router.PUT("/configs/:id", h.UpdateConfig)
	router.DELETE("/configs/:id", h.DeleteConfig)
	router.POST("/configs/:id/activate", h.ActivateConfig)
	router.POST("/configs/test", h.TestConfig)
}

// CreateConfig 新建配置，响应中密钥已脱敏
func (h *APIConfigHandler) CreateConfig(c *gin.Context) {
	var req service.APIConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("CreateConfig: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// UpdateConfig 更新配置，api_key 留空表示不修改
func (h *APIConfigHandler) UpdateConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.APIConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// DeleteConfig 删除配置
func (h *APIConfigHandler) DeleteConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "配置已删除"})
}

// ListConfigs 配置列表，密钥脱敏
func (h *APIConfigHandler) ListConfigs(c *gin.Context) {
	configs, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

// ActivateConfig 启用指定配置并停用其余配置
func (h *APIConfigHandler) ActivateConfig(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Activate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "配置已启用"})
}

// TestConfig 连通性测试，id 与内联配置二选一
func (h *APIConfigHandler) TestConfig(c *gin.Context) {
	var req service.TestConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.service.Test(c.Request.Context(), &req)
	c.JSON(http.StatusOK, result)
}
