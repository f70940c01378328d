package posts

import (
	"errors"
	"testing"
	"time"
)

func TestIdentifierCombinesDateAndSlug(t *testing.T) {
	publishedAt := time.Date(2025, 5, 26, 10, 30, 0, 0, time.UTC)
	got := Identifier(publishedAt, "program-verification-intro")
	if got != "2025-05-26-program-verification-intro" {
		t.Fatalf("unexpected identifier: %s", got)
	}
}

func TestDeriveSlugPrecedence(t *testing.T) {
	cases := []struct {
		name       string
		declared   string
		sourcePath string
		title      string
		want       string
	}{
		{
			name:       "declared slug wins",
			declared:   "custom-slug",
			sourcePath: "posts/2025-05-26-program-verification-intro.md",
			title:      "Code's Deeper Truths",
			want:       "custom-slug",
		},
		{
			name:       "filename stem drops date prefix",
			sourcePath: "posts/2025-05-26-program-verification-intro.md",
			title:      "Code's Deeper Truths",
			want:       "program-verification-intro",
		},
		{
			name:       "filename stem without date prefix",
			sourcePath: "notes/closing-thoughts.md",
			want:       "closing-thoughts",
		},
		{
			name:  "title fallback",
			title: "Deeper Truths",
			want:  "deeper-truths",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DeriveSlug(tc.declared, tc.sourcePath, tc.title)
			if err != nil {
				t.Fatalf("DeriveSlug returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestDeriveSlugRequiresSomeSource(t *testing.T) {
	_, err := DeriveSlug("", "", "")
	if !errors.Is(err, ErrSlugRequired) {
		t.Fatalf("expected ErrSlugRequired, got %v", err)
	}
}

func TestDateFromSource(t *testing.T) {
	got := DateFromSource("content/posts/2025-08-09-when-one-run-isnt-enough.md")
	want := time.Date(2025, 8, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if zero := DateFromSource("notes/closing-thoughts.md"); !zero.IsZero() {
		t.Fatalf("expected zero time for undated filename, got %v", zero)
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := &NotFoundError{Resource: "document", Key: "nonexistent-id"}
	if got := err.Error(); got != `document "nonexistent-id" not found` {
		t.Fatalf("unexpected message: %s", got)
	}
	if !IsNotFound(err) {
		t.Fatal("expected IsNotFound to match")
	}
}

func TestParseErrorMessageJoinsIssues(t *testing.T) {
	err := &ParseError{
		Path:   "posts/bad.md",
		Issues: []string{"title is required", "date is invalid"},
	}
	want := "posts: parse posts/bad.md: title is required; date is invalid"
	if got := err.Error(); got != want {
		t.Fatalf("unexpected message: %s", got)
	}
	if !IsParseError(err) {
		t.Fatal("expected IsParseError to match")
	}
}
