package docbuilder_test

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasalomone/bot-perito-sub000/internal/docbuilder"
	"github.com/andreasalomone/bot-perito-sub000/internal/docx"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

const documentTemplate = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Spett.le {{CLIENT}}</w:t></w:r></w:p>
    <w:p><w:r><w:t>Vs. rif. {{VSRIF}} - Polizza {{POLIZZA}}</w:t></w:r></w:p>
    <w:p><w:pPr><w:jc w:val="both"/></w:pPr><w:r><w:t>{{DINAMICA_EVENTI}}</w:t></w:r></w:p>
    <w:p><w:r><w:t>{{ACCERTAMENTI}}</w:t></w:r></w:p>
    <w:p><w:r><w:t>{{QUANTIFICAZIONE}}</w:t></w:r></w:p>
    <w:p><w:r><w:t>{{COMMENTO}}</w:t></w:r></w:p>
    <w:p><w:r><w:t>Allegati: {{ALLEGATI}}</w:t></w:r></w:p>
  </w:body>
</w:document>`

func makeTemplate(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func fullContext() map[string]any {
	ctx := map[string]any{}
	for _, key := range []string{
		"client", "client_address1", "client_address2", "date", "vs_rif",
		"rif_broker", "polizza", "ns_rif", "assicurato", "indirizzo_ass1",
		"indirizzo_ass2", "luogo", "data_danno", "cause", "data_incarico",
		"merce", "peso_merce", "valore_merce", "data_intervento",
	} {
		ctx[key] = "v-" + key
	}
	ctx["allegati"] = []string{"Verbale", "Fatture"}
	ctx["dinamica_eventi"] = "Primo paragrafo.\n\nSecondo paragrafo con **enfasi**.\n\nTerzo."
	ctx["accertamenti"] = "Sopralluogo effettuato."
	ctx["quantificazione"] = "Danno stimato."
	ctx["commento"] = "Commento finale."
	return ctx
}

func TestInject_ReplacesSimpleTags(t *testing.T) {
	template := makeTemplate(t, documentTemplate)

	out, err := docbuilder.Inject(template, fullContext())
	require.NoError(t, err)

	text, err := docx.ExtractText(out)
	require.NoError(t, err)
	assert.Contains(t, text, "Spett.le v-client")
	assert.Contains(t, text, "Vs. rif. v-vs_rif - Polizza v-polizza")
	assert.Contains(t, text, "Allegati: Verbale\nFatture")
	assert.NotContains(t, text, "{{")
}

func TestInject_ExpandsSectionIntoParagraphs(t *testing.T) {
	template := makeTemplate(t, documentTemplate)

	out, err := docbuilder.Inject(template, fullContext())
	require.NoError(t, err)

	paragraphs, err := docx.ParagraphTexts(out)
	require.NoError(t, err)

	// The marker paragraph becomes the first block; the following blocks
	// are inserted directly after it, before the next section marker.
	var idx []int
	for i, p := range paragraphs {
		switch p {
		case "Primo paragrafo.", "Secondo paragrafo con enfasi.", "Terzo.", "Sopralluogo effettuato.":
			idx = append(idx, i)
		}
	}
	require.Len(t, idx, 4)
	assert.Equal(t, idx[0]+1, idx[1])
	assert.Equal(t, idx[1]+1, idx[2])
	assert.Equal(t, idx[2]+1, idx[3])
}

func TestInject_BoldMarkersBecomeBoldRuns(t *testing.T) {
	template := makeTemplate(t, documentTemplate)

	out, err := docbuilder.Inject(template, fullContext())
	require.NoError(t, err)

	archive, err := docx.Open(out)
	require.NoError(t, err)
	body, err := archive.Body()
	require.NoError(t, err)

	bold := 0
	for _, b := range body.FindElements("//w:b") {
		if b != nil {
			bold++
		}
	}
	assert.Equal(t, 1, bold)

	text, err := docx.ExtractText(out)
	require.NoError(t, err)
	assert.NotContains(t, text, "**")
}

func TestInject_ClonesParagraphProperties(t *testing.T) {
	template := makeTemplate(t, documentTemplate)

	out, err := docbuilder.Inject(template, fullContext())
	require.NoError(t, err)

	archive, err := docx.Open(out)
	require.NoError(t, err)
	body, err := archive.Body()
	require.NoError(t, err)

	// The dinamica_eventi marker carried w:jc="both"; all three of its
	// blocks must carry the same properties.
	justified := body.FindElements("//w:jc")
	assert.Len(t, justified, 3)
}

func TestInject_MissingSimpleKeyNamed(t *testing.T) {
	template := makeTemplate(t, documentTemplate)
	ctx := fullContext()
	delete(ctx, "polizza")

	_, err := docbuilder.Inject(template, ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocBuilder))
	assert.Contains(t, err.Error(), `missing required key "polizza"`)
}

func TestInject_AbsentSectionMarkerIsNotAnError(t *testing.T) {
	doc := strings.Replace(documentTemplate, "<w:p><w:r><w:t>{{COMMENTO}}</w:t></w:r></w:p>", "", 1)
	template := makeTemplate(t, doc)

	_, err := docbuilder.Inject(template, fullContext())

	assert.NoError(t, err)
}

func TestInject_EmptySectionContent(t *testing.T) {
	template := makeTemplate(t, documentTemplate)
	ctx := fullContext()
	ctx["commento"] = ""

	out, err := docbuilder.Inject(template, ctx)
	require.NoError(t, err)

	text, err := docx.ExtractText(out)
	require.NoError(t, err)
	assert.NotContains(t, text, "{{COMMENTO}}")
}

func TestInject_AllegatiAsInterfaceList(t *testing.T) {
	// JSON decoding hands the context over as []any.
	template := makeTemplate(t, documentTemplate)
	ctx := fullContext()
	ctx["allegati"] = []any{"Uno", "Due"}

	out, err := docbuilder.Inject(template, ctx)
	require.NoError(t, err)

	text, err := docx.ExtractText(out)
	require.NoError(t, err)
	assert.Contains(t, text, "Uno\nDue")
}

func TestInject_UnsupportedValueType(t *testing.T) {
	template := makeTemplate(t, documentTemplate)
	ctx := fullContext()
	ctx["merce"] = 42

	_, err := docbuilder.Inject(template, ctx)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDocBuilder))
	assert.Contains(t, err.Error(), fmt.Sprintf("%q", "merce"))
}
