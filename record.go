package mathdoc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alnah/go-mathdoc/internal/markup"
	"github.com/alnah/go-mathdoc/internal/repair"
)

// Record is the stored form of a document. Older records keep their
// illustration in ImageURL instead of embedding it in Text.
type Record struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// Document returns the flat document, with the legacy image prepended as
// its own block when Text does not already embed it.
func (r Record) Document() string {
	if r.ImageURL == "" || strings.Contains(r.Text, "]("+r.ImageURL+")") {
		return r.Text
	}

	marker := markup.ImageMarker(r.ImageURL, "")
	if r.Text == "" {
		return marker
	}
	return marker + "\n\n" + r.Text
}

// Prepared runs Prepare on Text and then merges the legacy image, so the
// image marker is never read as part of a formula.
func (r Record) Prepared() string {
	return Record{Text: Prepare(r.Text), ImageURL: r.ImageURL}.Document()
}

// DecodeExtraction decodes a payload from the content extraction service
// into v, repairing unescaped LaTeX backslashes first.
func DecodeExtraction(raw []byte, v any) error {
	if err := json.Unmarshal(repair.JSONEscapes(raw), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// DecodeRecord decodes an extraction payload and reads the document from
// textField and the legacy image URL from imageField. An empty imageField
// skips the image. Fields other than these two are ignored.
func DecodeRecord(raw []byte, textField, imageField string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := DecodeExtraction(raw, &fields); err != nil {
		return Record{}, err
	}

	var rec Record
	if err := stringField(fields, textField, &rec.Text); err != nil {
		return Record{}, err
	}
	if imageField != "" {
		if _, ok := fields[imageField]; ok {
			if err := stringField(fields, imageField, &rec.ImageURL); err != nil {
				return Record{}, err
			}
		}
	}
	return rec, nil
}

func stringField(fields map[string]json.RawMessage, name string, dst *string) error {
	msg, ok := fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingField, name)
	}
	if string(msg) == "null" {
		*dst = ""
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("%w: %q", ErrMissingField, name)
	}
	return nil
}
