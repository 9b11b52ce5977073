package domain

// EventType identifies a streamed report-generation event.
type EventType string

const (
	EventStatus              EventType = "status"
	EventData                EventType = "data"
	EventError               EventType = "error"
	EventClarificationNeeded EventType = "clarification_needed"
	EventFinished            EventType = "finished"
)

// IsTerminal reports whether an event of this type ends the stream.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventError, EventClarificationNeeded, EventFinished:
		return true
	}
	return false
}

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeXLSX FileType = "xlsx"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FileTypeXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FileTypeJPG:  "image/jpeg",
	FileTypePNG:  "image/png",
}

// AllowedContentTypes lists the content types accepted from magic-byte
// sniffing. OOXML files (docx, xlsx) are zip containers, so plain zip is
// accepted alongside the full OOXML types.
var AllowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"application/zip": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {},
	"image/jpeg": {},
	"image/png":  {},
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"docx": FileTypeDOCX,
	"xlsx": FileTypeXLSX,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// IsImage reports whether the file type is routed through OCR instead of
// native text extraction.
func (t FileType) IsImage() bool {
	return t == FileTypeJPG || t == FileTypePNG
}
