package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/internal/service"
	"k8s.io/klog/v2"
)

// MappingHandler 字段映射接口
type MappingHandler struct {
	service service.MappingService
}

func NewMappingHandler(service service.MappingService) *MappingHandler {
	return &MappingHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *MappingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/mappings", h.SaveMapping)
	router.GET("/mappings/fields", h.StandardFields)
	router.GET("/mappings/:templateID/:tableName", h.GetMapping)
}

// SaveMapping 保存一张表的字段映射，整体替换
func (h *MappingHandler) SaveMapping(c *gin.Context) {
	var req service.SaveMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mapping, err := h.service.Save(c.Request.Context(), &req)
	if err != nil {
		klog.Errorf("SaveMapping: template=%d table=%s: %v", req.TemplateID, req.TableName, err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}

// GetMapping 读取映射，未配置过的返回空映射
func (h *MappingHandler) GetMapping(c *gin.Context) {
	var templateID uint
	if _, err := fmt.Sscanf(c.Param("templateID"), "%d", &templateID); err != nil || templateID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	mapping, err := h.service.Get(c.Request.Context(), templateID, c.Param("tableName"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapping)
}

// StandardFields 标准简历字段目录
func (h *MappingHandler) StandardFields(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"fields": h.service.StandardFields()})
}
