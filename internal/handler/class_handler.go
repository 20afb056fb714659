package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
)

// ClassHandler serves the read-only class catalog.
type ClassHandler struct {
	classService   *service.ClassService
	subjectService *service.SubjectService
}

// NewClassHandler creates a new ClassHandler.
func NewClassHandler(classService *service.ClassService, subjectService *service.SubjectService) *ClassHandler {
	return &ClassHandler{classService: classService, subjectService: subjectService}
}

// ListClasses godoc
// GET /api/v1/classes
func (h *ClassHandler) ListClasses(c *gin.Context) {
	classes, err := h.classService.List(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// ListSubjects godoc
// GET /api/v1/classes/:id/subjects
func (h *ClassHandler) ListSubjects(c *gin.Context) {
	classID, ok := intParam(c, "id")
	if !ok {
		return
	}

	subjects, err := h.subjectService.ListByClass(c.Request.Context(), classID)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}
