package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goliatone/go-press/cmd/internal/bootstrap"
	"github.com/goliatone/go-press/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runPreview(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("markdown preview: %v", err)
	}
}

func runPreview(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("markdown-preview", flag.ContinueOnError)

	var (
		contentDir = flags.String("content-dir", "content/posts", "Path to the markdown content root")
		filePath   = flags.String("file", "", "Markdown file to preview (relative to the content root)")
		renderHTML = flags.Bool("render-html", true, "Render the markdown body into HTML")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *filePath == "" {
		return fmt.Errorf("--file is required")
	}

	module, err := moduleBuilder(bootstrap.Options{
		ContentDir: *contentDir,
		Recursive:  true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	ctx := context.Background()

	doc, err := module.Markdown.Load(ctx, *filePath, interfaces.LoadOptions{})
	if err != nil {
		return fmt.Errorf("load markdown document: %w", err)
	}

	fmt.Fprintf(out, "Path: %s\nChecksum: %x\n\n", doc.FilePath, doc.Checksum)

	if doc.FrontMatter.Raw != nil {
		frontmatter, err := json.MarshalIndent(doc.FrontMatter.Raw, "", "  ")
		if err == nil {
			fmt.Fprintf(out, "Frontmatter:\n%s\n\n", frontmatter)
		}
	}

	if *renderHTML {
		fmt.Fprintf(out, "Rendered HTML:\n%s\n", string(doc.BodyHTML))
	} else {
		fmt.Fprintf(out, "Markdown Body:\n%s\n", string(doc.Body))
	}
	return nil
}
