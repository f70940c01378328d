package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-press/cmd/internal/bootstrap"
	"github.com/goliatone/go-press/internal/logging"
	"github.com/goliatone/go-press/pkg/interfaces"
)

type stubMarkdownService struct {
	loadCalls int
	loadPath  string
	document  *interfaces.Document
}

func (s *stubMarkdownService) Load(_ context.Context, path string, _ interfaces.LoadOptions) (*interfaces.Document, error) {
	s.loadCalls++
	s.loadPath = path
	return s.document, nil
}

func (s *stubMarkdownService) LoadDirectory(context.Context, string, interfaces.LoadOptions) ([]*interfaces.Document, error) {
	return nil, nil
}

func (s *stubMarkdownService) LoadCorpus(context.Context, string, interfaces.LoadOptions) (*interfaces.CorpusResult, error) {
	return nil, nil
}

func (s *stubMarkdownService) Render(context.Context, []byte, interfaces.ParseOptions) ([]byte, error) {
	return nil, nil
}

func (s *stubMarkdownService) RenderDocument(context.Context, *interfaces.Document, interfaces.ParseOptions) ([]byte, error) {
	return nil, nil
}

func previewDocument() *interfaces.Document {
	return &interfaces.Document{
		FilePath: "2025-05-26-program-verification-intro.md",
		FrontMatter: interfaces.FrontMatter{
			Title: "Code's Deeper Truths",
			Raw:   map[string]any{"title": "Code's Deeper Truths", "layout": "post"},
		},
		Body:     []byte("# Heading\n\nBody text."),
		BodyHTML: []byte("<h1>Heading</h1>\n<p>Body text.</p>"),
		Checksum: []byte{0xde, 0xad, 0xbe, 0xef},
	}
}

func withStubPreviewModule(t *testing.T, svc *stubMarkdownService) {
	t.Helper()
	original := moduleBuilder
	t.Cleanup(func() { moduleBuilder = original })
	moduleBuilder = func(bootstrap.Options) (*bootstrap.Module, error) {
		return &bootstrap.Module{
			Markdown: svc,
			Logger:   logging.NoOp(),
		}, nil
	}
}

func TestRunPreviewRendersHTML(t *testing.T) {
	svc := &stubMarkdownService{document: previewDocument()}
	withStubPreviewModule(t, svc)

	var out bytes.Buffer
	if err := runPreview([]string{"-file", "2025-05-26-program-verification-intro.md"}, &out); err != nil {
		t.Fatalf("runPreview returned error: %v", err)
	}

	if svc.loadCalls != 1 {
		t.Fatalf("expected one load, got %d", svc.loadCalls)
	}
	if svc.loadPath != "2025-05-26-program-verification-intro.md" {
		t.Fatalf("unexpected load path %q", svc.loadPath)
	}

	text := out.String()
	for _, want := range []string{
		"Checksum: deadbeef",
		`"layout": "post"`,
		"<h1>Heading</h1>",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, text)
		}
	}
}

func TestRunPreviewRawBody(t *testing.T) {
	svc := &stubMarkdownService{document: previewDocument()}
	withStubPreviewModule(t, svc)

	var out bytes.Buffer
	if err := runPreview([]string{"-file", "essay.md", "-render-html=false"}, &out); err != nil {
		t.Fatalf("runPreview returned error: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "# Heading") {
		t.Fatalf("expected raw markdown body, got:\n%s", text)
	}
	if strings.Contains(text, "<h1>") {
		t.Fatalf("expected no rendered HTML, got:\n%s", text)
	}
}

func TestRunPreviewRequiresFile(t *testing.T) {
	svc := &stubMarkdownService{document: previewDocument()}
	withStubPreviewModule(t, svc)

	var out bytes.Buffer
	if err := runPreview(nil, &out); err == nil {
		t.Fatal("expected error when --file is omitted")
	}
	if svc.loadCalls != 0 {
		t.Fatalf("expected no load without a file, got %d", svc.loadCalls)
	}
}
