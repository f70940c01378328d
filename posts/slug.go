package posts

import (
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
)

// SlugNormalizer exposes the slug normalizer interface.
type SlugNormalizer = slug.Normalizer

// DefaultSlugNormalizer returns the default slug normalizer.
func DefaultSlugNormalizer() SlugNormalizer {
	return slug.Default()
}

// NormalizeSlug applies the default slug normalization rules.
func NormalizeSlug(value string) (string, error) {
	return slug.Normalize(value)
}

// IsValidSlug reports whether the slug matches the default rules.
func IsValidSlug(value string) bool {
	return slug.IsValid(value)
}

var datePrefixPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// Identifier derives the stable document identifier from the publication
// date and slug: YYYY-MM-DD-<slug>. The same inputs always produce the same
// identifier, so reloads and archives agree on document identity.
func Identifier(publishedAt time.Time, slugValue string) string {
	return publishedAt.Format("2006-01-02") + "-" + slugValue
}

// DeriveSlug resolves the slug portion of a document identifier. Precedence
// follows the authoring convention: an explicit front-matter slug wins, then
// the source filename stem (minus any date prefix), then the title.
func DeriveSlug(declared, sourcePath, title string) (string, error) {
	if candidate := strings.TrimSpace(declared); candidate != "" {
		return NormalizeSlug(candidate)
	}
	if stem := sourceStem(sourcePath); stem != "" {
		return NormalizeSlug(stem)
	}
	if candidate := strings.TrimSpace(title); candidate != "" {
		return NormalizeSlug(candidate)
	}
	return "", ErrSlugRequired
}

// sourceStem extracts the slug-bearing portion of a source filename:
// "posts/2025-05-26-program-verification-intro.md" yields
// "program-verification-intro".
func sourceStem(sourcePath string) string {
	base := path.Base(strings.ReplaceAll(sourcePath, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	base = datePrefixPattern.ReplaceAllString(base, "")
	return strings.TrimSpace(base)
}

// DateFromSource extracts a YYYY-MM-DD prefix from a source filename,
// returning the zero time when the filename carries none.
func DateFromSource(sourcePath string) time.Time {
	base := path.Base(strings.ReplaceAll(sourcePath, "\\", "/"))
	match := datePrefixPattern.FindString(base)
	if match == "" {
		return time.Time{}
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSuffix(match, "-"))
	if err != nil {
		return time.Time{}
	}
	return parsed
}
