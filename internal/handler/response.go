package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/middleware"
)

// APIResponse is the standard envelope for all non-streaming API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: pdf, docx, xlsx, jpg, png"
	case errors.Is(err, domain.ErrEmptyFile):
		return http.StatusBadRequest, "EMPTY_FILE", "file is empty"
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	case errors.Is(err, domain.ErrTooManyFiles):
		return http.StatusRequestEntityTooLarge, "TOO_MANY_FILES", "too many files in request"
	case errors.Is(err, domain.ErrTotalSizeExceeded):
		return http.StatusRequestEntityTooLarge, "TOTAL_SIZE_EXCEEDED", "total upload size exceeds limit"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "CONFIGURATION_ERROR", "server configuration error"
	case errors.Is(err, domain.ErrExtractor):
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED", "could not extract text from the provided files"
	case errors.Is(err, domain.ErrPipeline):
		return http.StatusInternalServerError, "PIPELINE_ERROR", "report generation pipeline failed"
	case errors.Is(err, domain.ErrLLM):
		return http.StatusBadGateway, "LLM_ERROR", "language model request failed"
	case errors.Is(err, domain.ErrJSONParsing):
		return http.StatusInternalServerError, "PARSING_ERROR", "could not parse language model output"
	case errors.Is(err, domain.ErrDocBuilder):
		return http.StatusInternalServerError, "DOC_BUILDER_ERROR", "final document generation failed"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		log.Printf("[%s] internal error: %v", c.GetString(middleware.RequestIDKey), err)
	}
	RespondError(c, status, code, msg)
}
