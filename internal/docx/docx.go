// Package docx reads and rewrites the main document part of Word (.docx)
// files. A .docx is a zip archive; all text lives in word/document.xml as
// w:t runs grouped into w:p paragraphs.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

const documentPart = "word/document.xml"

type entry struct {
	name string
	data []byte
}

// Archive is an opened .docx whose word/document.xml is parsed and mutable.
// All other zip entries are carried through verbatim on Bytes.
type Archive struct {
	entries []entry
	doc     *etree.Document
}

// Open parses a .docx from raw bytes.
func Open(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening docx archive: %v", domain.ErrDocBuilder, err)
	}

	a := &Archive{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: reading docx entry %s: %v", domain.ErrDocBuilder, f.Name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading docx entry %s: %v", domain.ErrDocBuilder, f.Name, err)
		}
		a.entries = append(a.entries, entry{name: f.Name, data: content})

		if f.Name == documentPart {
			doc := etree.NewDocument()
			if err := doc.ReadFromBytes(content); err != nil {
				return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrDocBuilder, documentPart, err)
			}
			a.doc = doc
		}
	}
	if a.doc == nil {
		return nil, fmt.Errorf("%w: %s not found in archive", domain.ErrDocBuilder, documentPart)
	}
	return a, nil
}

// Document returns the parsed word/document.xml tree for mutation.
func (a *Archive) Document() *etree.Document {
	return a.doc
}

// Body returns the w:body element.
func (a *Archive) Body() (*etree.Element, error) {
	root := a.doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: empty document part", domain.ErrDocBuilder)
	}
	body := root.SelectElement("w:body")
	if body == nil {
		return nil, fmt.Errorf("%w: w:body not found", domain.ErrDocBuilder)
	}
	return body, nil
}

// Bytes serializes the (possibly mutated) document back into a .docx.
func (a *Archive) Bytes() ([]byte, error) {
	rendered, err := a.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("%w: serializing %s: %v", domain.ErrDocBuilder, documentPart, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range a.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, fmt.Errorf("%w: writing docx entry %s: %v", domain.ErrDocBuilder, e.name, err)
		}
		data := e.data
		if e.name == documentPart {
			data = rendered
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("%w: writing docx entry %s: %v", domain.ErrDocBuilder, e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: closing docx archive: %v", domain.ErrDocBuilder, err)
	}
	return buf.Bytes(), nil
}

// Paragraphs collects every w:p descendant of root in document order,
// including paragraphs nested inside tables.
func Paragraphs(root *etree.Element) []*etree.Element {
	var out []*etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Space == "w" && child.Tag == "p" {
				out = append(out, child)
				continue
			}
			walk(child)
		}
	}
	walk(root)
	return out
}

// ParagraphText joins the text of every w:t run under p, including runs
// nested in hyperlinks.
func ParagraphText(p *etree.Element) string {
	var b strings.Builder
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Space == "w" && child.Tag == "t" {
				b.WriteString(child.Text())
				continue
			}
			walk(child)
		}
	}
	walk(p)
	return b.String()
}

// ParagraphTexts returns the text of each paragraph in a .docx.
func ParagraphTexts(data []byte) ([]string, error) {
	a, err := Open(data)
	if err != nil {
		return nil, err
	}
	body, err := a.Body()
	if err != nil {
		return nil, err
	}
	var texts []string
	for _, p := range Paragraphs(body) {
		texts = append(texts, ParagraphText(p))
	}
	return texts, nil
}

// ExtractText returns the full plain text of a .docx, one line per paragraph.
func ExtractText(data []byte) (string, error) {
	texts, err := ParagraphTexts(data)
	if err != nil {
		return "", err
	}
	return strings.Join(texts, "\n"), nil
}
