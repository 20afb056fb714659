package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exquiz-backend/internal/middleware"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/report"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
	"github.com/stemsi/exquiz-backend/internal/validator"
)

// TestHandler handles submissions and the caller's test history.
type TestHandler struct {
	submissionService *service.SubmissionService
	historyService    *service.HistoryService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(submissionService *service.SubmissionService, historyService *service.HistoryService) *TestHandler {
	return &TestHandler{
		submissionService: submissionService,
		historyService:    historyService,
	}
}

// SubmitTest godoc
// POST /api/v1/tests/submit
// Grades the attempt against the stored answer key and records it.
func (h *TestHandler) SubmitTest(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), claims.UserID, &req)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, model.NewSubmitTestResponse(result))
}

// GetHistory godoc
// GET /api/v1/tests/history
func (h *TestHandler) GetHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	history, err := h.historyService.GetHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": history})
}

// GetDetail godoc
// GET /api/v1/tests/history/:id
func (h *TestHandler) GetDetail(c *gin.Context) {
	result, ok := h.loadOwnedResult(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// DownloadReport godoc
// GET /api/v1/tests/history/:id/report
// Sends the stored result as a plain-text attachment.
func (h *TestHandler) DownloadReport(c *gin.Context) {
	result, ok := h.loadOwnedResult(c)
	if !ok {
		return
	}

	response.TextAttachment(c, report.Filename(result), report.Render(result))
}

func (h *TestHandler) loadOwnedResult(c *gin.Context) (*model.TestResult, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, false
	}

	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidParameter,
			map[string]string{"id": "must be a uuid"})
		return nil, false
	}

	result, err := h.historyService.GetDetail(c.Request.Context(), claims.UserID, resultID)
	if err != nil {
		failFromError(c, err)
		return nil, false
	}
	return result, true
}
