package extractor_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
	"github.com/andreasalomone/bot-perito-sub000/internal/extractor"
)

func makeDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		doc.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	doc.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func makeXlsx(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	require.NoError(t, wb.SetCellValue("Sheet1", "A1", "Merce"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B1", "Valore"))
	require.NoError(t, wb.SetCellValue("Sheet1", "A2", "Caffè"))
	require.NoError(t, wb.SetCellValue("Sheet1", "B2", "12000"))

	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))
	return buf.Bytes()
}

func TestFile_Docx(t *testing.T) {
	e := extractor.New(nil)

	text, err := e.File(context.Background(), "perizia.docx", makeDocx(t, "Riga uno", "Riga due"))

	require.NoError(t, err)
	assert.Equal(t, "Riga uno\nRiga due", text)
}

func TestFile_Xlsx(t *testing.T) {
	e := extractor.New(nil)

	text, err := e.File(context.Background(), "danni.xlsx", makeXlsx(t))

	require.NoError(t, err)
	assert.Contains(t, text, "--- START EXCEL SHEET (File: danni.xlsx, Sheet Index: 0, Sheet Name: Sheet1) ---")
	assert.Contains(t, text, "Merce,Valore")
	assert.Contains(t, text, "Caffè,12000")
	assert.Contains(t, text, "--- END EXCEL SHEET (Sheet Name: Sheet1) ---")
}

func TestFile_UnsupportedExtension(t *testing.T) {
	e := extractor.New(nil)

	_, err := e.File(context.Background(), "malware.exe", []byte("MZ"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractor))
}

func TestFile_ImageWithoutOCR(t *testing.T) {
	e := extractor.New(nil)

	_, err := e.File(context.Background(), "foto.jpg", []byte{0xFF, 0xD8})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractor))
	assert.Contains(t, err.Error(), "OCR service is not configured")
}

type fakeOCR struct{ text string }

func (f *fakeOCR) Recognize(_ context.Context, _ []byte, _ string) (string, error) {
	return f.text, nil
}

func TestFile_ImageWithOCR(t *testing.T) {
	e := extractor.New(&fakeOCR{text: "targa AB123CD"})

	text, err := e.File(context.Background(), "foto.jpeg", []byte{0xFF, 0xD8})

	require.NoError(t, err)
	assert.Equal(t, "targa AB123CD", text)
}

func TestBatch_JoinsInInputOrder(t *testing.T) {
	e := extractor.New(nil)
	files := []extractor.NamedFile{
		{Name: "a.docx", Data: makeDocx(t, "Primo documento")},
		{Name: "vuoto.docx", Data: makeDocx(t, "")},
		{Name: "b.docx", Data: makeDocx(t, "Secondo documento")},
	}

	corpus, err := e.Batch(context.Background(), files)

	require.NoError(t, err)
	assert.Equal(t, "Primo documento\n\nSecondo documento", corpus)
}

func TestBatch_FirstFailureFailsAll(t *testing.T) {
	e := extractor.New(nil)
	files := []extractor.NamedFile{
		{Name: "ok.docx", Data: makeDocx(t, "testo")},
		{Name: "broken.docx", Data: []byte("not a zip")},
	}

	_, err := e.Batch(context.Background(), files)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExtractor))
}

func TestGuardCorpus(t *testing.T) {
	assert.Equal(t, "abc", extractor.GuardCorpus("abc", 10))
	assert.Equal(t, "ab", extractor.GuardCorpus("abcdef", 2))
	assert.Equal(t, "abcdef", extractor.GuardCorpus("abcdef", 0))
}

func TestGuardCorpus_DoesNotSplitRunes(t *testing.T) {
	s := "perizia è pronta"
	cut := extractor.GuardCorpus(s, 9) // byte 9 is the middle of "è"

	assert.True(t, len(cut) <= 9)
	for _, r := range cut {
		assert.NotEqual(t, '�', r)
	}
	assert.Equal(t, "perizia ", cut)
}
