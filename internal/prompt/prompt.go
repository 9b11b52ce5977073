// Package prompt builds the Italian prompts sent to the language model. The
// wording matters: the completions are parsed as JSON, so every prompt ends
// with an explicit output contract.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/andreasalomone/bot-perito-sub000/internal/domain"
)

// BaseFieldKeys lists the report context keys in template order. The four
// section keys are filled by the pipeline; the rest come from the base
// extraction call.
var BaseFieldKeys = []string{
	"client", "client_address1", "client_address2", "date",
	"vs_rif", "rif_broker", "polizza", "ns_rif",
	"assicurato", "indirizzo_ass1", "indirizzo_ass2", "luogo",
	"data_danno", "cause", "data_incarico", "merce",
	"peso_merce", "valore_merce", "data_intervento",
	"dinamica_eventi", "accertamenti", "quantificazione", "commento",
	"allegati",
}

// SectionKeys are the narrative report sections the pipeline generates.
var SectionKeys = []string{"dinamica_eventi", "accertamenti", "quantificazione", "commento"}

// sectionQuestions steers each expansion toward the questions that section
// must answer.
var sectionQuestions = map[string]string{
	"dinamica_eventi": "Chi, cosa, quando, dove e perché è avvenuto il sinistro?",
	"accertamenti":    "Quali prove fotografiche e rilievi del danno sono stati eseguiti? Chi, dove e quando?",
	"quantificazione": "Dettaglia i costi totali del danno come lista puntata o tabella testo.",
	"commento":        "Fornisci una sintesi tecnica finale e le raccomandazioni.",
}

const baseFieldTable = `## Definizione chiavi
| chiave JSON       | tag DOCX                | contenuto richiesto                                   |
|-------------------|-------------------------|-------------------------------------------------------|
| client            | CLIENT                  | Ragione sociale cliente                               |
| client_address1   | CLIENTADDRESS1          | Via/Piazza + numero indirizzo cliente                 |
| client_address2   | CLIENTADDRESS2          | CAP + città cliente                                   |
| date              | DATE                    | Data di oggi (GG/MM/AAAA)                             |
| vs_rif            | VSRIF                   | Riferimento del sinistro (del cliente)                |
| rif_broker        | RIFBROKER               | Riferimento del sinistro (del broker)                 |
| polizza           | POLIZZA                 | Numero polizza assicurativa                           |
| ns_rif            | NSRIF                   | Riferimento del sinistro (interno, perito della Salomone e Associati) |
| assicurato        | ASSICURATO              | Ragione sociale dell'assicurato                       |
| indirizzo_ass1    | INDIRIZZOASSICURATO1    | Via/Piazza dell'indirizzo dell'assicurato             |
| indirizzo_ass2    | INDIRIZZOASSICURATO2    | CAP + città dell'indirizzo dell'assicurato            |
| luogo             | LUOGO                   | Luogo in cui è accaduto il sinistro                   |
| data_danno        | DATADANNO               | Data del sinistro                                     |
| cause             | CAUSE                   | Causa presunta del sinistro (oggetto di perizia)      |
| data_incarico     | DATAINCARICO            | Data in cui è stato incaricato il perito dal cliente  |
| merce             | MERCE                   | Tipo merce sinistrata                                 |
| peso_merce        | PESOMERCE               | Peso complessivo in kg della merce sinistrata         |
| valore_merce      | VALOREMERCE             | Valore in € della merce sinistrata                    |
| data_intervento   | DATAINTERVENTO          | Data del sopralluogo sul luogo del sinistro da parte del perito |
| dinamica_eventi   | DINAMICA_EVENTI         | Sez. 2a – descrivi solo la dinamica del sinistro: chi, come, dove, quando, perché è avvenuto — senza titolo |
| accertamenti      | ACCERTAMENTI            | Sez. 2b – descrivi gli accertamenti peritali eseguiti e le relative scoperte — senza titolo |
| quantificazione   | QUANTIFICAZIONE         | Sez. 3 – quantificazione del danno totale, le cifre come lista puntata o tabella testo — senza titolo |
| commento          | COMMENTO                | Sez. 4 – sintesi tecnica finale — senza titolo        |
| allegati          | ALLEGATI                | Elenco allegati in bullet list, uno sopra l'altro ("Nolo; Fattura; Bolla; Foto 1; Foto 2 ...") |

Se un valore non è rintracciabile, restituisci stringa vuota "".`

const baseOutputFormat = `## Formato di output (rispettare ordine e maiusc/minusc delle chiavi)
{
  "client": "",
  "client_address1": "",
  "client_address2": "",
  "date": "",
  "vs_rif": "",
  "rif_broker": "",
  "polizza": "",
  "ns_rif": "",
  "assicurato": "",
  "indirizzo_ass1": "",
  "indirizzo_ass2": "",
  "luogo": "",
  "data_danno": "",
  "cause": "",
  "data_incarico": "",
  "merce": "",
  "peso_merce": "",
  "valore_merce": "",
  "data_intervento": "",
  "dinamica_eventi": "",
  "accertamenti": "",
  "quantificazione": "",
  "commento": "",
  "allegati": ""
}

❗ Regole:
1. NIENTE markdown fuori dai campi specificati, html o commenti: solo JSON puro.
2. Non aggiungere campi extra. Non cambiare i nomi chiave.
3. Per le chiavi "dinamica_eventi", "accertamenti", "quantificazione", "commento"
   scrivi solo il contenuto (i titoli sono già nel template).
4. Separa tutti i paragrafi con UNA riga bianca.

RISPOSTA OBBLIGATORIA:
Restituisci SOLO il JSON, senza testo extra prima o dopo.`

// BaseContext returns the prompt for the initial field-extraction call.
func BaseContext(templateExcerpt, corpus, notes, styleText string, similarCases []domain.ReferenceCase) string {
	var b strings.Builder

	b.WriteString("Sei un perito assicurativo italiano della Salomone e Associati, abituato a scrivere perizie tecniche più lunghe e dettagliate possibili.\n")
	b.WriteString("Analizza i documenti e restituisci ESCLUSIVAMENTE un JSON valido, senza testo extra, con le chiavi qui sotto.\n\n")
	b.WriteString(baseFieldTable)
	b.WriteString("\n\n")
	b.WriteString(baseOutputFormat)

	b.WriteString("\n\n## Template di riferimento (tono & terminologia):\n<<<\n")
	b.WriteString(templateExcerpt)
	b.WriteString("\n>>>")

	if styleText != "" {
		b.WriteString("\n\nESEMPIO DI FORMATTAZIONE (SOLO PER TONO E STILE; IGNORA CONTENUTO):\n<<<\n")
		b.WriteString(styleText)
		b.WriteString("\n>>>")
	}

	b.WriteString("\n\n## Documentazione utente:\n<<<\n")
	b.WriteString(corpus)
	b.WriteString("\n>>>")

	b.WriteString("\n\n## Note extra:\n")
	b.WriteString(notes)

	if len(similarCases) > 0 {
		var joined []string
		for _, c := range similarCases {
			joined = append(joined, fmt.Sprintf("[%s]\n%s", c.Title, c.Body))
		}
		b.WriteString("\n\nCASI_SIMILI (usa solo come riferimento stilistico e per informazioni quali indirizzi, cause):\n<<<\n")
		b.WriteString(strings.Join(joined, "\n\n---\n\n"))
		b.WriteString("\n>>>")
	}

	return b.String()
}

// Outline returns the prompt that plans the four narrative sections.
func Outline(templateExcerpt, corpus, notes string) string {
	var b strings.Builder

	b.WriteString("Sei un perito assicurativo italiano. Pianifica la struttura delle sezioni narrative di una perizia.\n\n")
	b.WriteString("Le sezioni da pianificare sono, in quest'ordine: ")
	b.WriteString(strings.Join(SectionKeys, ", "))
	b.WriteString(".\n\nPer ogni sezione elenca da 3 a 6 punti essenziali ricavati dalla documentazione.\n\n")
	b.WriteString("## Formato di output\n")
	b.WriteString(`Restituisci SOLO un array JSON, un elemento per sezione:
[
  {"section": "dinamica_eventi", "title": "Dinamica degli eventi", "bullets": ["...", "..."]},
  ...
]`)

	b.WriteString("\n\n## Template di riferimento:\n<<<\n")
	b.WriteString(templateExcerpt)
	b.WriteString("\n>>>")

	b.WriteString("\n\n## Documentazione utente:\n<<<\n")
	b.WriteString(corpus)
	b.WriteString("\n>>>")

	b.WriteString("\n\n## Note extra:\n")
	b.WriteString(notes)

	return b.String()
}

// ExpandSection returns the prompt expanding one outline item into full prose.
func ExpandSection(item domain.OutlineItem, templateExcerpt, corpus, notes, styleText string) string {
	var b strings.Builder

	b.WriteString("Sei un perito assicurativo italiano. Scrivi il contenuto completo della sezione indicata, in tono tecnico e formale.\n\n")
	fmt.Fprintf(&b, "## Sezione: %s (chiave JSON: %s)\n", item.Title, item.Section)
	if q := sectionQuestions[item.Section]; q != "" {
		fmt.Fprintf(&b, "Domande a cui rispondere: %s\n", q)
	}
	if len(item.Bullets) > 0 {
		b.WriteString("Punti da sviluppare:\n")
		for _, bullet := range item.Bullets {
			fmt.Fprintf(&b, "- %s\n", bullet)
		}
	}

	b.WriteString("\nLa sezione deve contenere almeno 200 parole. Separa i paragrafi con UNA riga bianca. Usa **asterischi** per i grassetti se servono. Non ripetere il titolo della sezione.\n\n")
	fmt.Fprintf(&b, "## Formato di output\nRestituisci SOLO un oggetto JSON: {%q: \"testo completo della sezione\"}\n", item.Section)

	b.WriteString("\n## Template di riferimento:\n<<<\n")
	b.WriteString(templateExcerpt)
	b.WriteString("\n>>>")

	if styleText != "" {
		b.WriteString("\n\nESEMPIO DI FORMATTAZIONE (SOLO PER TONO E STILE; IGNORA CONTENUTO):\n<<<\n")
		b.WriteString(styleText)
		b.WriteString("\n>>>")
	}

	b.WriteString("\n\n## Documentazione utente:\n<<<\n")
	b.WriteString(corpus)
	b.WriteString("\n>>>")

	b.WriteString("\n\n## Note extra:\n")
	b.WriteString(notes)

	return b.String()
}

// Harmonize returns the prompt that smooths tone across the expanded
// sections. The sections map is embedded as JSON so the model returns the
// same keys.
func Harmonize(sections map[string]string, styleText string) (string, error) {
	sectionsJSON, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling sections: %w", err)
	}

	var b strings.Builder

	b.WriteString("Sei un perito assicurativo italiano. Rivedi le sezioni qui sotto per uniformare tono, terminologia e stile, senza alterare i fatti né le cifre.\n\n")
	b.WriteString("## Sezioni da armonizzare (JSON):\n")
	b.Write(sectionsJSON)
	b.WriteString("\n\n## Formato di output\nRestituisci SOLO un oggetto JSON con le STESSE chiavi e i testi armonizzati.\n")

	if styleText != "" {
		b.WriteString("\nESEMPIO DI FORMATTAZIONE (SOLO PER TONO E STILE; IGNORA CONTENUTO):\n<<<\n")
		b.WriteString(styleText)
		b.WriteString("\n>>>")
	}

	return b.String(), nil
}
