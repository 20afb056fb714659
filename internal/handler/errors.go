package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exquiz-backend/internal/response"
	"github.com/stemsi/exquiz-backend/internal/service"
)

// failFromError maps a service error onto the response envelope.
// Unrecognised errors are logged and reported as internal errors.
func failFromError(c *gin.Context, err error) {
	if verr, ok := service.IsValidation(err); ok {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidSemester):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidParameter, map[string]string{"semester": err.Error()})
	case errors.Is(err, service.ErrInvalidSetNumber):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidParameter, map[string]string{"set_number": err.Error()})
	case errors.Is(err, service.ErrClassNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrClassNotFound)
	case errors.Is(err, service.ErrSubjectNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSubjectNotFound)
	case errors.Is(err, service.ErrQuestionSetNotFound), errors.Is(err, service.ErrQuestionBankEmpty):
		response.Fail(c, http.StatusNotFound, response.ErrQuestionSetNotFound)
	case errors.Is(err, service.ErrResultNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrResultNotFound)
	case errors.Is(err, service.ErrResultForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrPersistence):
		response.Fail(c, http.StatusInternalServerError, response.ErrPersistence)
	case errors.Is(err, service.ErrUpstreamData):
		response.Fail(c, http.StatusInternalServerError, response.ErrUpstreamData)
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// intParam parses a positive integer path parameter, writing a 400 when it is malformed.
func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil || n < 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidParameter,
			map[string]string{name: "must be a positive integer"})
		return 0, false
	}
	return n, true
}
