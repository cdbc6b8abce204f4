package hypothesis

import (
	"fmt"

	"github.com/kpauljoseph/annotanki/pkg/models"
)

const (
	TextQuoteSelector = "TextQuoteSelector"

	// NotAvailable stands in for a quote the annotation does not carry.
	NotAvailable = "N/A"
	NoText       = "No text"
)

type Annotation struct {
	ID      string   `json:"id"`
	Created string   `json:"created"`
	Updated string   `json:"updated"`
	User    string   `json:"user"`
	Text    *string  `json:"text"`
	URI     *string  `json:"uri"`
	Tags    []string `json:"tags"`
	Target  []Target `json:"target"`
}

type Target struct {
	Source   string     `json:"source"`
	Selector []Selector `json:"selector"`
}

type Selector struct {
	Type   string  `json:"type"`
	Exact  *string `json:"exact,omitempty"`
	Prefix string  `json:"prefix,omitempty"`
	Suffix string  `json:"suffix,omitempty"`
}

type searchResponse struct {
	Total int          `json:"total"`
	Rows  []Annotation `json:"rows"`
}

// QuoteText returns the highlighted passage: the exact text of the first
// TextQuoteSelector on the first target. It returns NotAvailable when the
// annotation has no target, no such selector, or the selector has no
// exact field.
func (a Annotation) QuoteText() string {
	if len(a.Target) == 0 {
		return NotAvailable
	}

	for _, sel := range a.Target[0].Selector {
		if sel.Type != TextQuoteSelector {
			continue
		}
		if sel.Exact == nil {
			return NotAvailable
		}
		return *sel.Exact
	}

	return NotAvailable
}

func (a Annotation) SourceURI() string {
	if a.URI == nil {
		return "#"
	}
	return *a.URI
}

// Flashcard converts the annotation into a card. The annotation's own note
// is the question; the quoted passage and a link to its page are the answer.
// customTag is appended after the annotation's tags when non-empty.
func (a Annotation) Flashcard(customTag string) models.Flashcard {
	front := NoText
	if a.Text != nil {
		front = *a.Text
	}

	card := models.Flashcard{
		Front: front,
		Back:  fmt.Sprintf("%s\n\nSource: <a href='%s'>Link</a>", a.QuoteText(), a.SourceURI()),
		Tags:  append([]string{}, a.Tags...),
	}
	if customTag != "" {
		card = card.WithTag(customTag)
	}

	return card
}
