package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"projectmate/internal/middleware"
	"projectmate/internal/service"
)

var serviceErrorStatus = []struct {
	err    error
	status int
}{
	{service.ErrAuthenticationFailed, http.StatusUnauthorized},
	{service.ErrUnauthorized, http.StatusForbidden},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrOwnProject, http.StatusBadRequest},
	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrAlreadyRequested, http.StatusConflict},
	{service.ErrAlreadyHasCollaborator, http.StatusConflict},
}

// HandleServiceError 將服務層錯誤轉為 HTTP 回應
func HandleServiceError(c *gin.Context, err error) {
	for _, m := range serviceErrorStatus {
		if errors.Is(err, m.err) {
			c.JSON(m.status, gin.H{"error": m.err.Error()})
			return
		}
	}

	logrus.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).WithError(err).Error("Unhandled internal server error")
	if errors.Is(err, service.ErrStorageFailure) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage failure, please try again"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
}

// parseID 解析路徑中的正整數 ID，失敗時直接回應 400
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// currentUser 取出已驗證的用戶 ID，缺少時回應 401
func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
	}
	return id, ok
}
