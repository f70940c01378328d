package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-press/pkg/interfaces"
)

// dateLayouts enumerates the publication date formats accepted in front
// matter. The space-separated forms match what static-site archives carry.
var dateLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseFrontMatter extracts metadata and Markdown body content from the
// provided source bytes. It returns the structured front matter, the body
// without delimiters, and any error encountered. Dates and category lists
// are coerced from the loose forms found in real documents.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	fm, err := envelopeToFrontMatter(meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, err
	}
	return fm, body, nil
}

// BuildDocument assembles an interfaces.Document from the supplied file path,
// raw content, and modification time. BodyHTML is intentionally left empty so
// callers can render lazily.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.Document, error) {
	fm, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.Document{
		FilePath:     path,
		FrontMatter:  fm,
		Body:         body,
		LastModified: modified,
	}, nil
}

// frontMatterEnvelope keeps the YAML-facing shapes loose: dates arrive as
// strings in several layouts and categories appear as either a list or a
// delimited scalar. Coercion happens in envelopeToFrontMatter so a malformed
// value surfaces as a parse failure for that file alone.
type frontMatterEnvelope struct {
	Layout     string         `yaml:"layout"`
	Title      string         `yaml:"title"`
	Slug       string         `yaml:"slug"`
	Summary    string         `yaml:"summary"`
	Date       string         `yaml:"date"`
	Categories any            `yaml:"categories"`
	Draft      bool           `yaml:"draft"`
	Custom     map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) (interfaces.FrontMatter, error) {
	date, err := parseDate(env.Date)
	if err != nil {
		return interfaces.FrontMatter{}, err
	}

	categories, err := parseCategories(env.Categories)
	if err != nil {
		return interfaces.FrontMatter{}, err
	}

	if env.Custom == nil {
		env.Custom = map[string]any{}
	}

	raw := make(map[string]any, len(env.Custom)+7)
	for key, value := range env.Custom {
		raw[key] = value
	}

	if env.Layout != "" {
		raw["layout"] = env.Layout
	}
	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Summary != "" {
		raw["summary"] = env.Summary
	}
	if len(categories) > 0 {
		raw["categories"] = append([]string(nil), categories...)
	}
	if !date.IsZero() {
		raw["date"] = date
	}
	raw["draft"] = env.Draft

	return interfaces.FrontMatter{
		Layout:     env.Layout,
		Title:      env.Title,
		Slug:       env.Slug,
		Summary:    env.Summary,
		Categories: categories,
		Date:       date,
		Draft:      env.Draft,
		Custom:     cloneMap(env.Custom),
		Raw:        raw,
	}, nil
}

// parseDate accepts the date layouts listed in dateLayouts. An empty value is
// allowed; callers may fall back to a date encoded in the file name.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse frontmatter: date %q: unrecognised format", value)
}

// parseCategories accepts a YAML list, a single scalar, or a comma/space
// delimited string.
func parseCategories(value any) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("parse frontmatter: categories entry %v is not a string", item)
			}
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		return out, nil
	case []string:
		out := make([]string, 0, len(typed))
		for _, name := range typed {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
		return out, nil
	case string:
		return splitCategories(typed), nil
	default:
		return nil, fmt.Errorf("parse frontmatter: categories %v has unsupported type %T", value, value)
	}
}

func splitCategories(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
