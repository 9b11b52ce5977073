package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/extractor"
	"github.com/andreasalomone/bot-perito-sub000/internal/middleware"
	"github.com/andreasalomone/bot-perito-sub000/internal/service"
)

const (
	ndjsonMediaType = "application/x-ndjson"
	docxMediaType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	reportFilename  = "report.docx"
)

// ReportHandler handles report generation endpoints.
type ReportHandler struct {
	reports service.ReportService
	uploads service.UploadService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reports service.ReportService, uploads service.UploadService) *ReportHandler {
	return &ReportHandler{reports: reports, uploads: uploads}
}

// streamRequest is the JSON body variant of GenerateStream, for clients that
// staged their files through the presign flow and have no multipart payload.
type streamRequest struct {
	S3Keys []string `json:"s3_keys"`
	Notes  string   `json:"notes"`
}

// GenerateStream handles POST /api/v1/reports/stream. It accepts a multipart
// form with source files (or staged object keys), or a JSON body carrying
// object keys only, and streams NDJSON progress events, ending with the
// merged report data or a clarification request.
func (h *ReportHandler) GenerateStream(c *gin.Context) {
	requestID := getRequestID(c)

	var notes string
	var s3Keys []string
	var files []extractor.NamedFile

	if c.ContentType() == "application/json" {
		var req streamRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "could not parse stream request")
			return
		}
		notes = req.Notes
		s3Keys = req.S3Keys
	} else {
		form, err := c.MultipartForm()
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FORM", "could not parse multipart form")
			return
		}
		notes = c.PostForm("notes")
		s3Keys = form.Value["s3_keys"]

		files, err = h.uploads.ValidateAndRead(form.File["files"])
		if err != nil {
			HandleError(c, err)
			return
		}
	}
	if len(files) == 0 && len(s3Keys) == 0 {
		RespondError(c, http.StatusBadRequest, "NO_FILES", "no files or object keys provided")
		return
	}

	ch := h.reports.StreamGenerate(c.Request.Context(), requestID, service.GenerateInput{
		Files:  files,
		S3Keys: s3Keys,
		Notes:  notes,
	})

	c.Header("Content-Type", ndjsonMediaType)
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)
	c.Stream(func(w io.Writer) bool {
		ev, ok := <-ch
		if !ok {
			return false
		}
		line, err := json.Marshal(ev)
		if err != nil {
			log.Printf("[%s] encoding stream event: %v", requestID, err)
			return false
		}
		w.Write(line)
		w.Write([]byte("\n"))
		return true
	})
}

// GenerateWithClarifications handles POST /api/v1/reports/clarifications.
// The client echoes back the request artifacts together with its answers;
// generation resumes and the finished document is returned as an attachment.
func (h *ReportHandler) GenerateWithClarifications(c *gin.Context) {
	requestID := getRequestID(c)

	var answers domain.ClarificationAnswers
	if err := c.ShouldBindJSON(&answers); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "could not parse clarification payload")
		return
	}

	reportContext, err := h.reports.GenerateWithClarifications(c.Request.Context(), requestID, answers)
	if err != nil {
		HandleError(c, err)
		return
	}

	docxBytes, err := h.reports.BuildDocument(reportContext)
	if err != nil {
		HandleError(c, err)
		return
	}

	log.Printf("[%s] generated report after clarifications: %d bytes", requestID, len(docxBytes))
	c.Header("Content-Disposition", "attachment; filename="+reportFilename)
	c.Data(http.StatusOK, docxMediaType, docxBytes)
}

// DownloadReport handles POST /api/v1/reports/download. The client posts the
// report context it received in the stream's data event and gets back the
// rendered document.
func (h *ReportHandler) DownloadReport(c *gin.Context) {
	requestID := getRequestID(c)

	var reportContext map[string]any
	if err := c.ShouldBindJSON(&reportContext); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "could not parse report context")
		return
	}
	if len(reportContext) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "report context is empty")
		return
	}

	docxBytes, err := h.reports.BuildDocument(reportContext)
	if err != nil {
		HandleError(c, err)
		return
	}

	log.Printf("[%s] rendered report document: %d bytes", requestID, len(docxBytes))
	c.Header("Content-Disposition", "attachment; filename="+reportFilename)
	c.Data(http.StatusOK, docxMediaType, docxBytes)
}

// presignRequest is the payload for PresignUpload.
type presignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// PresignUpload handles POST /api/v1/uploads/presign, returning a presigned
// PUT URL so large attachments can go straight to object storage.
func (h *ReportHandler) PresignUpload(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_PAYLOAD", "filename is required")
		return
	}

	grant, err := h.uploads.PresignUpload(c.Request.Context(), req.Filename, req.ContentType)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, grant)
}

// getRequestID returns the request-scoped ID set by the middleware, minting
// one if the handler is called outside the middleware chain.
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return uuid.New().String()
}
