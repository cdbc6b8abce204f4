package models

import (
	"strings"
)

// Flashcard is the unit handed to Anki or written to CSV. It only lives
// for the duration of a run. An empty Back means the card has no back text.
type Flashcard struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Tags  []string `json:"tags"`
}

// TagLine joins the tags the way they are shown to a human reader.
func (c Flashcard) TagLine() string {
	return strings.Join(c.Tags, ", ")
}

// WithTag returns a copy of the card with tag appended to its tags.
// The receiver's tag slice is never shared with the copy.
func (c Flashcard) WithTag(tag string) Flashcard {
	tags := make([]string, 0, len(c.Tags)+1)
	tags = append(tags, c.Tags...)
	c.Tags = append(tags, tag)
	return c
}

// TagFromName turns a free-form name (deck, document title) into a single
// Anki tag. Anki splits tags on whitespace, so runs of spaces become one
// underscore.
func TagFromName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}
