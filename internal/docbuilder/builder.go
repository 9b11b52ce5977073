// Package docbuilder injects the generated report context into the Word
// template. Simple {{TAG}} markers are replaced inline; the four narrative
// section markers are expanded into one paragraph per text block, cloning
// the marker paragraph's properties.
package docbuilder

import (
	"fmt"
	"log"
	"strings"

	"github.com/beevik/etree"

	"github.com/andreasalomone/bot-perito-sub000/internal/docx"
	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

// simpleTags maps template tags to the context keys that fill them.
var simpleTags = map[string]string{
	"CLIENT":               "client",
	"CLIENTADDRESS1":       "client_address1",
	"CLIENTADDRESS2":       "client_address2",
	"DATE":                 "date",
	"VSRIF":                "vs_rif",
	"RIFBROKER":            "rif_broker",
	"POLIZZA":              "polizza",
	"NSRIF":                "ns_rif",
	"ASSICURATO":           "assicurato",
	"INDIRIZZOASSICURATO1": "indirizzo_ass1",
	"INDIRIZZOASSICURATO2": "indirizzo_ass2",
	"LUOGO":                "luogo",
	"DATADANNO":            "data_danno",
	"CAUSE":                "cause",
	"DATAINCARICO":         "data_incarico",
	"MERCE":                "merce",
	"PESOMERCE":            "peso_merce",
	"VALOREMERCE":          "valore_merce",
	"DATAINTERVENTO":       "data_intervento",
	"ALLEGATI":             "allegati",
}

// sectionTags maps section markers to the context keys holding their
// multi-paragraph content.
var sectionTags = map[string]string{
	"{{DINAMICA_EVENTI}}": "dinamica_eventi",
	"{{ACCERTAMENTI}}":    "accertamenti",
	"{{QUANTIFICAZIONE}}": "quantificazione",
	"{{COMMENTO}}":        "commento",
}

func init() {
	seen := make(map[string]bool)
	for _, key := range simpleTags {
		if seen[key] {
			panic(fmt.Sprintf("docbuilder: duplicate context key %q in tag mapping", key))
		}
		seen[key] = true
	}
	for _, key := range sectionTags {
		if seen[key] {
			panic(fmt.Sprintf("docbuilder: duplicate context key %q in tag mapping", key))
		}
		seen[key] = true
	}
}

// Inject renders context into the template and returns the finished .docx.
// Every simple-tag key must be present in context; section keys default to
// empty. A marker absent from the template is only logged.
func Inject(template []byte, context map[string]any) ([]byte, error) {
	values, err := simpleValues(context)
	if err != nil {
		return nil, err
	}

	archive, err := docx.Open(template)
	if err != nil {
		return nil, err
	}
	body, err := archive.Body()
	if err != nil {
		return nil, err
	}

	replaceSimpleTags(body, values)
	if err := expandSections(body, context); err != nil {
		return nil, err
	}

	return archive.Bytes()
}

// simpleValues resolves the value for each simple tag, failing on missing
// keys. The allegati value may be a list of strings, joined with newlines.
func simpleValues(context map[string]any) (map[string]string, error) {
	values := make(map[string]string, len(simpleTags))
	for tag, key := range simpleTags {
		raw, ok := context[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing required key %q in report context", domain.ErrDocBuilder, key)
		}
		text, err := stringify(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", domain.ErrDocBuilder, key, err)
		}
		values[tag] = text
	}
	return values, nil
}

func stringify(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []string:
		return strings.Join(val, "\n"), nil
	case []any:
		var parts []string
		for _, item := range val {
			if item == nil {
				continue
			}
			s, ok := item.(string)
			if !ok {
				return "", fmt.Errorf("list items must be strings, got %T", item)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}

// replaceSimpleTags substitutes {{TAG}} markers inside every text run.
// Section markers are left in place for the expansion pass.
func replaceSimpleTags(body *etree.Element, values map[string]string) {
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if child.Space == "w" && child.Tag == "t" {
				text := child.Text()
				if strings.Contains(text, "{{") {
					for tag, value := range values {
						text = strings.ReplaceAll(text, "{{"+tag+"}}", value)
					}
					child.SetText(text)
				}
				continue
			}
			walk(child)
		}
	}
	walk(body)
}

// expandSections replaces each section-marker paragraph with the section's
// content, one paragraph per blank-line-separated block.
func expandSections(body *etree.Element, context map[string]any) error {
	found := make(map[string]bool)

	for _, p := range docx.Paragraphs(body) {
		text := docx.ParagraphText(p)
		for marker, key := range sectionTags {
			if !strings.Contains(text, marker) {
				continue
			}
			found[marker] = true
			content, _ := context[key].(string)
			if err := renderSection(p, content); err != nil {
				return err
			}
			break
		}
	}

	for marker := range sectionTags {
		if !found[marker] {
			log.Printf("docbuilder: marker %s not found in template, skipping", marker)
		}
	}
	return nil
}

// renderSection rewrites the marker paragraph with the first content block
// and inserts one cloned paragraph per following block directly after it.
func renderSection(p *etree.Element, content string) error {
	parent := p.Parent()
	if parent == nil {
		return fmt.Errorf("%w: marker paragraph has no parent", domain.ErrDocBuilder)
	}

	props := p.SelectElement("w:pPr")
	var propsCopy *etree.Element
	if props != nil {
		propsCopy = props.Copy()
	}

	var blocks []string
	for _, block := range strings.Split(content, "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			blocks = append(blocks, trimmed)
		}
	}

	clearParagraph(p, props)
	if len(blocks) == 0 {
		appendRuns(p, []textRun{{Text: ""}})
		return nil
	}
	appendRuns(p, parseBoldRuns(blocks[0]))

	insertAt := p.Index() + 1
	for _, block := range blocks[1:] {
		newP := etree.NewElement("w:p")
		if propsCopy != nil {
			newP.AddChild(propsCopy.Copy())
		}
		appendRuns(newP, parseBoldRuns(block))
		parent.InsertChildAt(insertAt, newP)
		insertAt++
	}
	return nil
}

// clearParagraph removes all paragraph children except its properties.
func clearParagraph(p *etree.Element, props *etree.Element) {
	for _, child := range p.ChildElements() {
		if child == props {
			continue
		}
		p.RemoveChild(child)
	}
}

func appendRuns(p *etree.Element, runs []textRun) {
	for _, run := range runs {
		r := p.CreateElement("w:r")
		if run.Bold {
			rPr := r.CreateElement("w:rPr")
			rPr.CreateElement("w:b")
		}
		t := r.CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(run.Text)
	}
}
