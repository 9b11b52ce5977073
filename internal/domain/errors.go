package domain

import "errors"

// Pipeline stage failures and request validation failures are classified with
// these sentinels so the HTTP layer and the stream orchestrator can map them
// to stable client-facing messages with errors.Is.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrExtractor     = errors.New("file extraction error")
	ErrLLM           = errors.New("language model error")
	ErrJSONParsing   = errors.New("data parsing error")
	ErrPipeline      = errors.New("pipeline processing error")
	ErrDocBuilder    = errors.New("document generation error")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile           = errors.New("file is empty")
	ErrTooManyFiles        = errors.New("too many files in request")
	ErrTotalSizeExceeded   = errors.New("total upload size exceeds limit")

	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
)
