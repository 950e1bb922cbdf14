package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"projectmate/internal/service"
)

// CollabHandler 處理協作房間的頁面、上傳與下載
type CollabHandler struct {
	collab       *service.CollabService
	membership   *service.MembershipService
	redirectPath string
	maxSize      int64
}

// NewCollabHandler 創建一個新的 CollabHandler 實例
func NewCollabHandler(collab *service.CollabService, membership *service.MembershipService, redirectPath string, maxSize int64) *CollabHandler {
	return &CollabHandler{
		collab:       collab,
		membership:   membership,
		redirectPath: redirectPath,
		maxSize:      maxSize,
	}
}

// ViewRoom 回傳房間資料；非成員或房間不存在時導回首頁
func (h *CollabHandler) ViewRoom(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := parseID(c, "roomId")
	if !ok {
		return
	}

	view, err := h.collab.RoomView(c.Request.Context(), userID, roomID)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.Redirect(http.StatusSeeOther, h.redirectPath)
			return
		}
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UploadFile 處理 multipart 欄位 file 的上傳
func (h *CollabHandler) UploadFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := parseID(c, "roomId")
	if !ok {
		return
	}

	if !h.membership.IsMember(c.Request.Context(), userID, roomID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
		return
	}

	if h.maxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize)
	}
	header, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file part"})
		return
	}
	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No selected file"})
		return
	}

	file, err := header.Open()
	if err != nil {
		HandleServiceError(c, errors.Join(service.ErrStorageFailure, err))
		return
	}
	defer file.Close()

	record, err := h.collab.StoreFile(c.Request.Context(), userID, roomID, header.Filename, file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
			return
		}
		HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"filename":          record.Filename,
		"original_filename": record.OriginalFilename,
	})
}

// DownloadFile 讓成員下載房間內的檔案
func (h *CollabHandler) DownloadFile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	roomID, ok := parseID(c, "roomId")
	if !ok {
		return
	}
	filename := c.Param("filename")

	file, err := h.collab.OpenFile(c.Request.Context(), userID, roomID, filename)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		HandleServiceError(c, errors.Join(service.ErrStorageFailure, err))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	http.ServeContent(c.Writer, c.Request, filename, info.ModTime(), file)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
