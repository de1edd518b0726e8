package controllers

import (
	"context"
	"strconv"
	"strings"

	"github.com/amaumene/catalogarr/internal/models"
	"github.com/sirupsen/logrus"
)

// Field names one metadata prompt
type Field string

const (
	FieldName        Field = "name"
	FieldYear        Field = "year"
	FieldLanguage    Field = "language"
	FieldGenre       Field = "genre"
	FieldActors      Field = "actors"
	FieldPosterURL   Field = "poster_url"
	FieldDescription Field = "description"
	FieldDirector    Field = "director"
	FieldSeasons     Field = "seasons"
	FieldEpisodes    Field = "episodes"
)

const (
	minYear = 1900
	maxYear = 2030
)

var baseFields = []Field{
	FieldName, FieldYear, FieldLanguage, FieldGenre, FieldActors, FieldPosterURL, FieldDescription,
}

// FieldsFor returns the prompt order for a content type
func FieldsFor(ct models.ContentType) []Field {
	fields := append([]Field(nil), baseFields...)
	if ct.IsSeries() {
		return append(fields, FieldSeasons, FieldEpisodes)
	}
	return append(fields, FieldDirector)
}

// ItemDetails holds the parsed metadata collected for one name
type ItemDetails struct {
	Name        *string
	Year        *int
	Language    *string
	IsDubbed    bool
	Genre       []string
	Actors      []string
	PosterURL   *string
	Description *string
	Director    *string
	Seasons     int
	Episodes    int
}

// Prompt asks the operator for the next field
type Prompt struct {
	Name       string `json:"name"`
	Field      Field  `json:"field"`
	FieldIndex int    `json:"field_index"`
	FieldCount int    `json:"field_count"`
	ItemIndex  int    `json:"item_index"`
	ItemCount  int    `json:"item_count"`
}

var nullTokens = map[string]bool{
	"none":    true,
	"skip":    true,
	"unknown": true,
	"n/a":     true,
}

// isNull reports whether the input means "no value"
func isNull(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || nullTokens[strings.ToLower(text)]
}

// Apply parses text into the given field. Unparsable input never fails:
// it becomes null, or 1 for season and episode counts.
func (d *ItemDetails) Apply(field Field, text string) {
	text = strings.TrimSpace(text)
	null := isNull(text)

	switch field {
	case FieldName:
		d.Name = optionalString(text, null)
	case FieldYear:
		d.Year = parseYear(text, null)
	case FieldLanguage:
		d.Language = optionalString(text, null)
		d.IsDubbed = d.Language != nil && strings.Contains(strings.ToLower(*d.Language), "dub")
	case FieldGenre:
		d.Genre = splitList(text, null)
	case FieldActors:
		d.Actors = splitList(text, null)
	case FieldPosterURL:
		d.PosterURL = optionalString(text, null)
	case FieldDescription:
		d.Description = optionalString(text, null)
	case FieldDirector:
		d.Director = optionalString(text, null)
	case FieldSeasons:
		d.Seasons = parseCount(text, null)
	case FieldEpisodes:
		d.Episodes = parseCount(text, null)
	}
}

func optionalString(text string, null bool) *string {
	if null {
		return nil
	}
	return &text
}

func parseYear(text string, null bool) *int {
	if null {
		return nil
	}
	year, err := strconv.Atoi(text)
	if err != nil || year < minYear || year > maxYear {
		return nil
	}
	return &year
}

func parseCount(text string, null bool) int {
	if null {
		return 1
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func splitList(text string, null bool) []string {
	if null {
		return nil
	}
	var items []string
	for _, part := range strings.Split(text, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func (s *Session) promptLocked() *Prompt {
	if s.DetailCursor >= len(s.DetailNames) {
		return nil
	}
	fields := FieldsFor(s.ContentType)
	return &Prompt{
		Name:       s.DetailNames[s.DetailCursor],
		Field:      fields[s.FieldCursor],
		FieldIndex: s.FieldCursor,
		FieldCount: len(fields),
		ItemIndex:  s.DetailCursor,
		ItemCount:  len(s.DetailNames),
	}
}

// SubmitField records the answer to the current prompt. After the last
// field of the last item the batch is finalized.
func (e *Engine) SubmitField(ctx context.Context, operatorID int64, text string) (*Reply, error) {
	s := e.sessions.Get(operatorID)
	s.mu.Lock()
	if s.Step != StepCollectingDetails || s.DetailCursor >= len(s.DetailNames) {
		step := s.Step
		s.mu.Unlock()
		return nil, unexpected(step, ActionSubmitField)
	}

	fields := FieldsFor(s.ContentType)
	name := s.DetailNames[s.DetailCursor]
	field := fields[s.FieldCursor]
	s.Details[name].Apply(field, text)

	e.logger.WithFields(logrus.Fields{
		"operator_id": operatorID,
		"name":        name,
		"field":       field,
	}).Debug("Field collected")

	s.FieldCursor++
	if s.FieldCursor >= len(fields) {
		s.FieldCursor = 0
		s.DetailCursor++
	}
	if s.DetailCursor < len(s.DetailNames) {
		reply := s.replyLocked()
		s.mu.Unlock()
		return reply, nil
	}
	s.Step = StepFinalizing
	gen := s.generation
	s.mu.Unlock()

	return e.finalize(ctx, s, gen)
}
