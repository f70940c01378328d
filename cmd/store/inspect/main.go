package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/cmd/internal/bootstrap"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runInspect(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("store inspect: %v", err)
	}
}

func runInspect(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("store-inspect", flag.ContinueOnError)

	var (
		contentDir    = flags.String("content-dir", "content/posts", "Path to the markdown content root")
		pattern       = flags.String("pattern", "*.md", "Glob pattern applied when discovering documents")
		identifier    = flags.String("id", "", "Inspect a single document by identifier instead of listing")
		category      = flags.String("category", "", "Restrict the listing to one category")
		includeDrafts = flags.Bool("include-drafts", false, "Admit documents marked draft: true")
		asJSON        = flags.Bool("json", false, "Emit machine-readable JSON")
		showIssues    = flags.Bool("issues", false, "Report documents excluded by parse failures")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		ContentDir:    *contentDir,
		Pattern:       *pattern,
		Recursive:     true,
		IncludeDrafts: *includeDrafts,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	ctx := context.Background()

	if _, err := module.Store.Reload(ctx); err != nil {
		return fmt.Errorf("load document store: %w", err)
	}

	if id := strings.TrimSpace(*identifier); id != "" {
		doc, err := module.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if *asJSON {
			return writeJSON(out, doc)
		}
		fmt.Fprintf(out, "Identifier: %s\nTitle: %s\nPublished: %s\nCategories: %s\nSource: %s\n",
			doc.Identifier, doc.Title, doc.PublishedAt.Format("2006-01-02 15:04"),
			strings.Join(doc.Categories, ", "), doc.SourcePath)
		return nil
	}

	documents, err := listDocuments(ctx, module, *category)
	if err != nil {
		return err
	}

	if *asJSON {
		return writeJSON(out, documents)
	}

	for _, doc := range documents {
		fmt.Fprintf(out, "%s  %s  %s\n",
			doc.PublishedAt.Format("2006-01-02"), doc.Identifier, doc.Title)
	}
	fmt.Fprintf(out, "\n%d document(s)\n", len(documents))

	if *showIssues {
		for _, issue := range module.Store.Issues() {
			fmt.Fprintf(out, "excluded: %s\n", issue.Error())
		}
	}
	return nil
}

func listDocuments(ctx context.Context, module *bootstrap.Module, category string) ([]*documentView, error) {
	var (
		docs []*documentView
		err  error
	)
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		listed, listErr := module.Store.ListByCategory(ctx, trimmed)
		err = listErr
		docs = toViews(listed)
	} else {
		listed, listErr := module.Store.List(ctx)
		err = listErr
		docs = toViews(listed)
	}
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

type documentView struct {
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Categories  []string  `json:"categories,omitempty"`
	SourcePath  string    `json:"source_path"`
}

func toViews(documents []*press.Document) []*documentView {
	views := make([]*documentView, 0, len(documents))
	for _, doc := range documents {
		views = append(views, &documentView{
			Identifier:  doc.Identifier,
			Title:       doc.Title,
			PublishedAt: doc.PublishedAt,
			Categories:  doc.Categories,
			SourcePath:  doc.SourcePath,
		})
	}
	return views
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
