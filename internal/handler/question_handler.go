package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exquiz-backend/internal/model"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
)

// QuestionHandler serves question sets to students. Correct answers never leave this handler.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// ListSets godoc
// GET /api/v1/subjects/:id/semesters/:semester/sets
func (h *QuestionHandler) ListSets(c *gin.Context) {
	subjectID, ok := intParam(c, "id")
	if !ok {
		return
	}
	semester, ok := intParam(c, "semester")
	if !ok {
		return
	}

	sets, err := h.questionService.ListSets(c.Request.Context(), subjectID, model.Semester(semester))
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"sets": sets})
}

// GetQuestionSet godoc
// GET /api/v1/subjects/:id/semesters/:semester/sets/:set/questions
// Returns the questions of one set without correct answers, plus the attempt duration.
func (h *QuestionHandler) GetQuestionSet(c *gin.Context) {
	subjectID, ok := intParam(c, "id")
	if !ok {
		return
	}
	semester, ok := intParam(c, "semester")
	if !ok {
		return
	}
	setNumber, ok := intParam(c, "set")
	if !ok {
		return
	}

	payload, err := h.questionService.FetchQuestionSet(c.Request.Context(), subjectID, model.Semester(semester), setNumber)
	if err != nil {
		failFromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, payload)
}
