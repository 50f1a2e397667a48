package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sapiocode/sapio/internal/transcribe"
	"github.com/sapiocode/sapio/internal/tutor"
	"github.com/sapiocode/sapio/internal/viva"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// respondErr maps a service error onto a status and error code.
func respondErr(c *gin.Context, err error) {
	status, code := classify(err)
	respondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, viva.ErrSessionNotFound), errors.Is(err, tutor.ErrStudentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, viva.ErrNoMoreQuestions), errors.Is(err, viva.ErrSessionComplete):
		return http.StatusConflict, "conflict"
	case errors.Is(err, tutor.ErrStudentRequired), errors.Is(err, tutor.ErrConceptRequired),
		errors.Is(err, tutor.ErrSessionRequired):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, transcribe.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, "unsupported_audio"
	case errors.Is(err, transcribe.ErrAudioTooShort), errors.Is(err, transcribe.ErrAudioTooLong),
		errors.Is(err, transcribe.ErrNoSpeech):
		return http.StatusUnprocessableEntity, "unprocessable_audio"
	case errors.Is(err, transcribe.ErrDisabled):
		return http.StatusServiceUnavailable, "transcription_disabled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
