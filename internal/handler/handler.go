package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tenderwizard/backend/internal/pkg/llm"
	"github.com/tenderwizard/backend/internal/repository"
	"github.com/tenderwizard/backend/internal/service"
)

// writeError 业务错误到 HTTP 状态码的统一映射
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSystemTable):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrInvalidFile),
		errors.Is(err, service.ErrMissingPKValue),
		errors.Is(err, service.ErrEmptySheet),
		errors.Is(err, repository.ErrNoPrimaryKey),
		errors.Is(err, llm.ErrNoAPIKey):
		status = http.StatusBadRequest
	case errors.Is(err, llm.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, llm.ErrMalformedResponse), errors.Is(err, llm.ErrUpstream):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context, name string) (uint, bool) {
	var id uint
	if _, err := fmt.Sscanf(c.Param(name), "%d", &id); err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
