package formatter

import (
	"fmt"
	"html"
	"strings"

	"github.com/desertthunder/greekdeck/internal/models"
)

const (
	emOpen  = "\x00EM\x00"
	emClose = "\x00/EM\x00"
)

// RenderCard turns generated content into the HTML fields of a note.
//
// Text is HTML-escaped, except that example sentences keep <em> emphasis on the target word.
func RenderCard(card *models.GeneratedCard) models.Note {
	note := models.Note{
		Front: fmt.Sprintf("<div>%s</div><div><br></div><div>%s</div>", html.EscapeString(card.FrontRU), html.EscapeString(card.FrontEN)),
		Back:  card.Back,
	}

	examples := make([]string, 0, len(card.Examples))
	for _, ex := range card.Examples {
		examples = append(examples, fmt.Sprintf("<li><strong>%s</strong> %s</li>", escapeKeepingEm(ex.Greek), html.EscapeString(ex.Russian)))
	}
	note.Example = strings.Join(examples, "\n")

	var comment []string
	if card.Conjugation != "" {
		comment = append(comment, "<div>"+html.EscapeString(card.Conjugation)+"</div>", "<div><br></div>")
	}
	if len(card.Synonyms) > 0 {
		lines := make([]string, 0, len(card.Synonyms))
		for _, syn := range card.Synonyms {
			lines = append(lines, fmt.Sprintf("<li><strong>%s</strong>: %s</li>", html.EscapeString(syn.Word), html.EscapeString(syn.Distinction)))
		}
		comment = append(comment, "<div>"+strings.Join(lines, "\n")+"</div>")
	}
	note.Comment = strings.Join(comment, "\n")

	var collocations strings.Builder
	for _, c := range card.Collocations {
		collocations.WriteString("<li><strong>" + html.EscapeString(c) + "</strong></li>")
	}
	note.Collocations = collocations.String()

	if card.EtymologyNote != "" {
		note.Etymology = "<em>" + html.EscapeString(card.EtymologyNote) + "</em>"
	}
	return note
}

func escapeKeepingEm(s string) string {
	s = strings.NewReplacer("<em>", emOpen, "</em>", emClose).Replace(s)
	s = html.EscapeString(s)
	return strings.NewReplacer(emOpen, "<em>", emClose, "</em>").Replace(s)
}

// PreviewSection is one titled block of a card preview.
type PreviewSection struct {
	Title string
	Body  string
}

// PreviewSections lays out a card for review. Empty sections are omitted.
func PreviewSections(card *models.GeneratedCard) []PreviewSection {
	sections := []PreviewSection{
		{Title: "Front (translations)", Body: card.FrontRU + "\n\n" + card.FrontEN},
	}

	back := card.Back
	if card.PartOfSpeech != "" {
		back += "\n" + card.PartOfSpeech
	}
	sections = append(sections, PreviewSection{Title: "Back (Greek)", Body: back})

	if len(card.Examples) > 0 {
		lines := make([]string, 0, len(card.Examples))
		for i, ex := range card.Examples {
			lines = append(lines, fmt.Sprintf("%d. %s\n   %s", i+1, PlainText(ex.Greek), ex.Russian))
		}
		sections = append(sections, PreviewSection{Title: "Examples", Body: strings.Join(lines, "\n")})
	}

	var comment []string
	if card.Conjugation != "" {
		comment = append(comment, "Conjugation: "+card.Conjugation)
	}
	if len(card.Synonyms) > 0 {
		comment = append(comment, "Synonyms:")
		for _, syn := range card.Synonyms {
			comment = append(comment, fmt.Sprintf("  • %s: %s", syn.Word, syn.Distinction))
		}
	}
	if len(comment) > 0 {
		sections = append(sections, PreviewSection{Title: "Comment", Body: strings.Join(comment, "\n")})
	}

	if len(card.Collocations) > 0 {
		lines := make([]string, 0, len(card.Collocations))
		for _, c := range card.Collocations {
			lines = append(lines, "• "+c)
		}
		sections = append(sections, PreviewSection{Title: "Collocations", Body: strings.Join(lines, "\n")})
	}

	if card.EtymologyNote != "" {
		sections = append(sections, PreviewSection{Title: "Etymology", Body: card.EtymologyNote})
	}
	return sections
}

// CardPreview renders [PreviewSections] as plain text.
func CardPreview(card *models.GeneratedCard) string {
	var b strings.Builder
	for i, s := range PreviewSections(card) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("== " + s.Title + " ==\n")
		b.WriteString(s.Body + "\n")
	}
	return b.String()
}
