package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/internal/service"
	"k8s.io/klog/v2"
)

// DataHandler 导入数据表接口
type DataHandler struct {
	service service.DataTableService
}

func NewDataHandler(service service.DataTableService) *DataHandler {
	return &DataHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *DataHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/data/upload/excel", h.UploadExcel)
	router.GET("/data/tables", h.ListTables)
	router.GET("/data/tables/:name", h.GetTable)
	router.PUT("/data/tables/:name/row", h.UpdateRow)
	router.DELETE("/data/tables/:name/row", h.DeleteRow)
	router.DELETE("/data/tables/:name", h.DropTable)
}

// UploadExcel 上传 Excel 并整表导入
func (h *DataHandler) UploadExcel(c *gin.Context) {
	tableName := c.PostForm("table_name")
	if tableName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 table_name"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少文件: " + err.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	count, err := h.service.ImportExcel(c.Request.Context(), tableName, file)
	if err != nil {
		klog.Errorf("UploadExcel: 导入 %s 失败: %v", tableName, err)
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"table_name": tableName, "rows_imported": count})
}

// ListTables 列出所有导入表
func (h *DataHandler) ListTables(c *gin.Context) {
	tables, err := h.service.ListTables(c.Request.Context())
	if err != nil {
		klog.Errorf("ListTables: %v", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// GetTable 读取整表数据
func (h *DataHandler) GetTable(c *gin.Context) {
	table, err := h.service.GetTable(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// UpdateRow 按主键更新一行，请求体为整行数据
func (h *DataHandler) UpdateRow(c *gin.Context) {
	var row map[string]any
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.UpdateRow(c.Request.Context(), c.Param("name"), row); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "更新成功"})
}

// DeleteRow 按主键删除一行
func (h *DataHandler) DeleteRow(c *gin.Context) {
	var row map[string]any
	if err := c.ShouldBindJSON(&row); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.DeleteRow(c.Request.Context(), c.Param("name"), row); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// DropTable 删除整张导入表
func (h *DataHandler) DropTable(c *gin.Context) {
	if err := h.service.DropTable(c.Request.Context(), c.Param("name")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "表已删除"})
}
