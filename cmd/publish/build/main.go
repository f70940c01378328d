package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	press "github.com/goliatone/go-press"
	"github.com/goliatone/go-press/cmd/internal/bootstrap"
	"github.com/goliatone/go-press/examples/pressutil"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runBuild(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("publish build: %v", err)
	}
}

func runBuild(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("publish-build", flag.ContinueOnError)

	var (
		contentDir  = flags.String("content-dir", "content/posts", "Path to the markdown content root")
		outputDir   = flags.String("output", "dist", "Directory the static site is written to")
		baseURL     = flags.String("base-url", "", "Absolute base URL used for feeds and the sitemap")
		templateDir = flags.String("templates", "", "Directory holding html/template page templates")
		identifiers = flags.String("only", "", "Comma separated identifiers to rebuild (defaults to all)")
		dryRun      = flags.Bool("dry-run", false, "Render without writing artifacts")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	renderer, err := pressutil.NewHTMLRenderer(*templateDir)
	if err != nil {
		return fmt.Errorf("configure renderer: %w", err)
	}

	opts := bootstrap.Options{
		ContentDir: *contentDir,
		Recursive:  true,
		Publisher:  true,
		OutputDir:  *outputDir,
		BaseURL:    *baseURL,
		Template:   renderer,
	}
	if !*dryRun {
		opts.Storage = pressutil.NewFilesystemStorage(".")
	}

	module, err := moduleBuilder(opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	ctx := context.Background()

	if _, err := module.Store.Reload(ctx); err != nil {
		return fmt.Errorf("load document store: %w", err)
	}

	result, err := module.Publisher.Build(ctx, press.BuildOptions{
		Identifiers: splitIdentifiers(*identifiers),
		DryRun:      *dryRun,
	})
	if err != nil {
		return fmt.Errorf("build site: %w", err)
	}

	fmt.Fprintf(out, "pages=%d feeds=%d assets=%d took=%s\n",
		result.Pages, result.Feeds, result.Assets, result.Took)
	if *dryRun {
		for _, artifact := range result.Artifacts {
			fmt.Fprintf(out, "would write %s\n", artifact)
		}
	}
	return nil
}

func splitIdentifiers(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	identifiers := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			identifiers = append(identifiers, trimmed)
		}
	}
	return identifiers
}
