package memory

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/memobloom/memobloom/internal/timeline"
	"github.com/memobloom/memobloom/internal/validation"
)

// Draft is the user-editable part of a memory, as submitted by a form.
type Draft struct {
	Title       string   `json:"title" validate:"required,max=120"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	Type        string   `json:"type" validate:"required,oneof=photo voice text"`
	Content     string   `json:"content" validate:"required"`
	Location    string   `json:"location" validate:"max=120"`
	People      []string `json:"people" validate:"dive,max=80"`
	Filter      string   `json:"filter" validate:"omitempty,oneof=none polaroid sepia vintage"`
	Description string   `json:"description" validate:"max=2000"`
	Tags        []string `json:"tags" validate:"dive,max=40"`
}

// FromRecord returns the editable fields of r.
func FromRecord(r timeline.Record) Draft {
	return Draft{
		Title:       r.Title,
		Date:        r.Date,
		Type:        string(r.Type),
		Content:     r.Content,
		Location:    r.Location,
		People:      append([]string(nil), r.People...),
		Filter:      string(r.Filter),
		Description: r.Description,
		Tags:        append([]string(nil), r.Tags...),
	}
}

// Record converts a normalised draft into engine fields. ID is left empty.
func (d Draft) Record() timeline.Record {
	return timeline.Record{
		Title:       d.Title,
		Date:        d.Date,
		Type:        timeline.Type(d.Type),
		Content:     d.Content,
		Location:    d.Location,
		People:      d.People,
		Filter:      timeline.Filter(d.Filter),
		Description: d.Description,
		Tags:        d.Tags,
	}
}

// Normalize trims text fields, lowercases type and filter, defaults the
// filter to none, and cleans the people and tag lists.
func (d *Draft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Date = strings.TrimSpace(d.Date)
	d.Type = strings.ToLower(strings.TrimSpace(d.Type))
	d.Location = strings.TrimSpace(d.Location)
	d.Description = strings.TrimSpace(d.Description)
	d.Filter = strings.ToLower(strings.TrimSpace(d.Filter))
	if d.Filter == "" {
		d.Filter = string(timeline.FilterNone)
	}
	// Inline text keeps its whitespace; only references are trimmed.
	if d.Type != string(timeline.TypeText) {
		d.Content = strings.TrimSpace(d.Content)
	} else if strings.TrimSpace(d.Content) == "" {
		d.Content = ""
	}
	d.People = CleanNames(d.People)
	d.Tags = CleanNames(d.Tags)
}

// CleanNames trims each name, drops blanks, and drops repeats keeping the
// first occurrence.
func CleanNames(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidationError lists the rejected fields with a message for each.
type ValidationError = validation.Error

// Validate normalises d in place and checks it. The returned error is a
// *ValidationError when a field is rejected.
func Validate(d *Draft) error {
	d.Normalize()
	return validation.Struct(d, func(field string, fe validator.FieldError) (string, bool) {
		return formMessage(d, field, fe)
	})
}

// formMessage gives the memory form's wording for missing title and content.
func formMessage(d *Draft, field string, fe validator.FieldError) (string, bool) {
	if fe.Tag() != "required" {
		return "", false
	}
	switch field {
	case "title":
		return "Please enter a title for your memory", true
	case "content":
		switch timeline.Type(d.Type) {
		case timeline.TypePhoto:
			return "Please upload a photo", true
		case timeline.TypeVoice:
			return "Please record a voice memory", true
		default:
			return "Please enter some text for your memory", true
		}
	}
	return "", false
}
