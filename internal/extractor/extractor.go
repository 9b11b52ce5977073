// Package extractor turns uploaded claim documents into plain text for the
// generation pipeline. PDFs, Word and Excel files are read natively; images
// go through the external OCR service.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/andreasalomone/bot-perito-sub000/internal/docx"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/port"
)

// NamedFile pairs a file's original name with its raw content.
type NamedFile struct {
	Name string
	Data []byte
}

// Extractor dispatches files to the right text extraction by extension.
type Extractor struct {
	ocr port.OCRClient
}

// New creates an Extractor. The OCR client may be nil; image files then fail
// with a clear error instead of a nil-pointer panic.
func New(ocr port.OCRClient) *Extractor {
	return &Extractor{ocr: ocr}
}

// File extracts text from a single file based on its extension.
func (e *Extractor) File(ctx context.Context, name string, data []byte) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	ft, ok := domain.AllowedExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s: unsupported extension %q", domain.ErrExtractor, name, ext)
	}

	switch ft {
	case domain.FileTypePDF:
		return e.pdfToText(name, data)
	case domain.FileTypeDOCX:
		return e.docxToText(name, data)
	case domain.FileTypeXLSX:
		return e.excelToText(name, data)
	case domain.FileTypeJPG, domain.FileTypePNG:
		return e.imageToText(ctx, name, data, ft)
	}
	return "", fmt.Errorf("%w: %s: no handler for file type %s", domain.ErrExtractor, name, ft)
}

// Batch extracts every file concurrently and joins the texts in input order.
// The first failing file fails the whole batch.
func (e *Extractor) Batch(ctx context.Context, files []NamedFile) (string, error) {
	texts := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			text, err := e.File(ctx, f.Name, f.Data)
			if err != nil {
				return err
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var nonEmpty []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return strings.Join(nonEmpty, "\n\n"), nil
}

func (e *Extractor) pdfToText(name string, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: opening PDF: %v", domain.ErrExtractor, name, err)
	}
	var b strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Some pages have fonts the library cannot decode. Skip them
			// rather than losing the rest of the document.
			log.Printf("extractor: %s: skipping PDF page %d: %v", name, pageNum, err)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (e *Extractor) docxToText(name string, data []byte) (string, error) {
	text, err := docx.ExtractText(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractor, name, err)
	}
	return text, nil
}

// excelToText renders every sheet as a CSV block delimited by markers, so the
// model can tell sheets apart and keep tabular structure.
func (e *Extractor) excelToText(name string, data []byte) (string, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %s: opening workbook: %v", domain.ErrExtractor, name, err)
	}
	defer func() { _ = wb.Close() }()

	var sheets []string
	for i, sheetName := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("%w: %s: reading sheet %q: %v", domain.ErrExtractor, name, sheetName, err)
		}
		lines := []string{
			fmt.Sprintf("--- START EXCEL SHEET (File: %s, Sheet Index: %d, Sheet Name: %s) ---", name, i, sheetName),
		}
		if len(rows) == 0 {
			lines = append(lines, "(Sheet is empty)")
		}
		for _, row := range rows {
			lines = append(lines, strings.Join(row, ","))
		}
		lines = append(lines, fmt.Sprintf("--- END EXCEL SHEET (Sheet Name: %s) ---", sheetName))
		sheets = append(sheets, strings.Join(lines, "\n"))
	}
	return strings.Join(sheets, "\n\n"), nil
}

func (e *Extractor) imageToText(ctx context.Context, name string, data []byte, ft domain.FileType) (string, error) {
	if e.ocr == nil {
		return "", fmt.Errorf("%w: %s: OCR service is not configured", domain.ErrExtractor, name)
	}
	text, err := e.ocr.Recognize(ctx, data, domain.AllowedFileTypes[ft])
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrExtractor, name, err)
	}
	return text, nil
}

// GuardCorpus truncates a corpus to at most max bytes without splitting a
// UTF-8 sequence. max <= 0 disables the guard.
func GuardCorpus(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
