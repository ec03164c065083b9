package timeline

import (
	"fmt"
	"strings"
)

// Content is the type-specific payload of a card. The concrete value is one
// of Photo, Voice or Text.
type Content interface {
	Kind() Type
	isContent()
}

// Photo renders an image with the record's filter style applied.
type Photo struct {
	URI   string      `json:"uri"`
	Alt   string      `json:"alt"`
	Style FilterStyle `json:"style"`
}

// Voice renders a play control for an audio recording.
type Voice struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// Text renders inline text.
type Text struct {
	Body string `json:"body"`
}

func (Photo) Kind() Type { return TypePhoto }
func (Voice) Kind() Type { return TypeVoice }
func (Text) Kind() Type  { return TypeText }

func (Photo) isContent() {}
func (Voice) isContent() {}
func (Text) isContent()  {}

// VoiceLabel is the caption on the voice play control.
const VoiceLabel = "Play Voice Memory"

// RenderContent returns the payload for r, or nil when r.Type is not a
// known type. Records come from an external store, so an unknown type is
// expected input and simply renders no content.
func RenderContent(r Record) Content {
	switch r.Type {
	case TypePhoto:
		return Photo{URI: r.Content, Alt: r.Title, Style: StyleFor(r.Filter)}
	case TypeVoice:
		return Voice{URI: r.Content, Label: VoiceLabel}
	case TypeText:
		return Text{Body: r.Content}
	default:
		return nil
	}
}

// FilterStyle describes how a photo frame is drawn.
type FilterStyle struct {
	CSSFilter string  `json:"css_filter,omitempty"`
	Border    string  `json:"border,omitempty"`
	BoxShadow string  `json:"box_shadow,omitempty"`
	RotateDeg float64 `json:"rotate_deg,omitempty"`
}

// StyleFor maps a filter tag to its frame style. Unknown tags get the plain
// style.
func StyleFor(f Filter) FilterStyle {
	switch f {
	case FilterPolaroid:
		return FilterStyle{
			Border:    "15px solid white",
			BoxShadow: "0 4px 15px rgba(0, 0, 0, 0.1)",
			RotateDeg: -2,
		}
	case FilterSepia:
		return FilterStyle{
			CSSFilter: "sepia(100%)",
			Border:    "5px solid #d4b483",
		}
	case FilterVintage:
		return FilterStyle{
			CSSFilter: "grayscale(50%)",
			Border:    "8px solid #f5f5f5",
			BoxShadow: "0 4px 8px rgba(0, 0, 0, 0.15)",
		}
	default:
		return FilterStyle{}
	}
}

// ChipKind tags the small badges shown under a card title.
type ChipKind string

const (
	ChipType     ChipKind = "type"
	ChipLocation ChipKind = "location"
	ChipPeople   ChipKind = "people"
)

type Chip struct {
	Kind  ChipKind `json:"kind"`
	Label string   `json:"label"`
}

// Card is the render-ready form of one record.
type Card struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	DateLabel   string  `json:"date_label"`
	Chips       []Chip  `json:"chips"`
	ContentKind Type    `json:"content_kind,omitempty"`
	Content     Content `json:"content,omitempty"`
}

// RenderCard builds the card for r. Title, date and chips are always
// present; Content is nil for unknown types.
func RenderCard(r Record) Card {
	c := Card{
		ID:        r.ID,
		Title:     r.Title,
		DateLabel: LongDate(r.Date),
		Chips:     chipsFor(r),
	}
	if r.Type.Known() {
		c.Content = RenderContent(r)
		c.ContentKind = r.Type
	}
	return c
}

func chipsFor(r Record) []Chip {
	chips := make([]Chip, 0, 3)
	if r.Type != "" {
		chips = append(chips, Chip{Kind: ChipType, Label: capitalize(string(r.Type))})
	}
	if r.Location != "" {
		chips = append(chips, Chip{Kind: ChipLocation, Label: r.Location})
	}
	if n := len(r.People); n > 0 {
		chips = append(chips, Chip{Kind: ChipPeople, Label: PeopleCount(n)})
	}
	return chips
}

// PeopleCount formats a people badge: "1 person", "3 people".
func PeopleCount(n int) string {
	if n == 1 {
		return "1 person"
	}
	return fmt.Sprintf("%d people", n)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
