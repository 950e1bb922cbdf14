package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"projectmate/internal/service"
)

// ProjectHandler 處理專案與加入請求
type ProjectHandler struct {
	projectService *service.ProjectService
}

// NewProjectHandler 創建一個新的 ProjectHandler 實例
func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// ProjectInput 建立或編輯專案的請求內容
type ProjectInput struct {
	Title            string `json:"title" binding:"required"`
	Purpose          string `json:"purpose" binding:"required"`
	ProblemStatement string `json:"problem_statement" binding:"required"`
	Domain           string `json:"domain"`
	SkillsRequired   string `json:"skills_required"`
	SkillsYouHave    string `json:"skills_you_have"`
}

func (in ProjectInput) toService() service.ProjectInput {
	return service.ProjectInput{
		Title:            in.Title,
		Purpose:          in.Purpose,
		ProblemStatement: in.ProblemStatement,
		Domain:           in.Domain,
		SkillsRequired:   in.SkillsRequired,
		SkillsYouHave:    in.SkillsYouHave,
	}
}

// ListProjects 列出所有專案
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// CreateProject 處理建立專案的請求
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), userID, input.toService())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// GetProject 取得單一專案
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// UpdateProject 只有建立者可以編輯
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var input ProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), userID, id, input.toService())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject 刪除專案與其協作房間
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), userID, id); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// RequestJoin 送出加入專案的請求
func (h *ProjectHandler) RequestJoin(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	request, err := h.projectService.RequestJoin(c.Request.Context(), userID, id)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// IncomingRequests 列出收到的待處理請求
func (h *ProjectHandler) IncomingRequests(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	requests, err := h.projectService.IncomingRequests(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

// RespondRequest 接受或拒絕加入請求
func (h *ProjectHandler) RespondRequest(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	room, err := h.projectService.Respond(c.Request.Context(), userID, id, c.Param("action"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if room == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Request rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request accepted", "room_id": room.ID})
}

// Dashboard 回傳用戶首頁資料
func (h *ProjectHandler) Dashboard(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	dash, err := h.projectService.Dashboard(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}
