package publisher

import (
	"context"
	"fmt"
	"html"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-press/internal/posts"
)

const maxFeedItems = 100

type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	Categories  []string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// feedDocument holds the items for one feed. Name is empty for the
// site-wide feed and carries the category name otherwise.
type feedDocument struct {
	Name  string
	Items []feedItem
}

func (s *service) buildFeedDocuments(buildCtx *BuildContext) []feedDocument {
	if buildCtx == nil || len(buildCtx.Pages) == 0 {
		return nil
	}

	byName := make(map[string]*feedDocument)
	seen := make(map[string]map[string]struct{})

	appendItem := func(name string, item feedItem) {
		doc := byName[name]
		if doc == nil {
			doc = &feedDocument{Name: name}
			byName[name] = doc
			seen[name] = map[string]struct{}{}
		}
		if _, ok := seen[name][item.GUID]; ok {
			return
		}
		seen[name][item.GUID] = struct{}{}
		doc.Items = append(doc.Items, item)
	}

	for _, data := range buildCtx.Pages {
		if data == nil || data.Kind != kindPost || data.Document == nil {
			continue
		}
		route := strings.TrimSpace(data.Route)
		if route == "" {
			continue
		}
		doc := data.Document

		title := strings.TrimSpace(doc.Title)
		if title == "" {
			title = doc.Identifier
		}

		publishedAt := firstNonZeroTime(doc.PublishedAt, data.Metadata.LastModified)
		if publishedAt.IsZero() {
			publishedAt = buildCtx.GeneratedAt
		}
		updatedAt := firstNonZeroTime(doc.UpdatedAt, data.Metadata.LastModified, publishedAt)

		item := feedItem{
			Title:       title,
			Summary:     feedSummary(doc),
			Link:        absoluteURL(s.cfg.BaseURL, route),
			GUID:        doc.Identifier,
			Categories:  append([]string(nil), doc.Categories...),
			PublishedAt: publishedAt,
			UpdatedAt:   updatedAt,
		}

		appendItem("", item)
		if s.cfg.CategoryFeeds {
			for _, category := range doc.Categories {
				name := strings.TrimSpace(category)
				if name == "" {
					continue
				}
				appendItem(name, item)
			}
		}
	}

	docs := make([]feedDocument, 0, len(byName))
	for _, doc := range byName {
		if len(doc.Items) == 0 {
			continue
		}
		sort.Slice(doc.Items, func(i, j int) bool {
			left := doc.Items[i].PublishedAt
			if left.IsZero() {
				left = doc.Items[i].UpdatedAt
			}
			right := doc.Items[j].PublishedAt
			if right.IsZero() {
				right = doc.Items[j].UpdatedAt
			}
			if left.Equal(right) {
				return doc.Items[i].GUID < doc.Items[j].GUID
			}
			return left.After(right)
		})
		if len(doc.Items) > maxFeedItems {
			doc.Items = append([]feedItem(nil), doc.Items[:maxFeedItems]...)
		}
		docs = append(docs, *doc)
	}

	// Empty name sorts first so the site feed leads.
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].Name < docs[j].Name
	})
	return docs
}

func (s *service) writeFeeds(
	ctx context.Context,
	writer artifactWriter,
	siteMeta SiteMetadata,
	buildCtx *BuildContext,
	docs []feedDocument,
) (int, []string, error) {
	if len(docs) == 0 {
		return 0, nil, nil
	}
	baseDir := strings.Trim(strings.TrimSpace(s.cfg.OutputDir), "/")
	dirCache := map[string]struct{}{}
	if baseDir != "" {
		dirCache[baseDir] = struct{}{}
		if err := writer.EnsureDir(ctx, baseDir); err != nil {
			return 0, nil, err
		}
	}

	total := 0
	artifacts := make([]string, 0, len(docs)*2)
	write := func(target, feedContent, contentType, feedType string, doc feedDocument) error {
		if err := ensureDir(ctx, writer, dirCache, path.Dir(target)); err != nil {
			return err
		}
		if err := writer.WriteFile(ctx, writeFileRequest{
			Path:        target,
			Content:     strings.NewReader(feedContent),
			Size:        int64(len(feedContent)),
			Identifier:  doc.Name,
			Category:    categoryFeed,
			ContentType: contentType,
			Checksum:    computeHashFromString(feedContent),
			Metadata:    feedMetadata(doc.Name, feedType, buildCtx.GeneratedAt),
		}); err != nil {
			return err
		}
		total++
		artifacts = append(artifacts, target)
		return nil
	}

	for _, doc := range docs {
		if len(doc.Items) == 0 {
			continue
		}
		rssPath, atomPath := feedPaths(baseDir, doc.Name)
		rssContent := buildRSSFeed(siteMeta, doc, buildCtx.GeneratedAt)
		if err := write(rssPath, rssContent, "application/rss+xml", "rss", doc); err != nil {
			return total, artifacts, err
		}
		atomContent := buildAtomFeed(siteMeta, doc, buildCtx.GeneratedAt)
		if err := write(atomPath, atomContent, "application/atom+xml", "atom", doc); err != nil {
			return total, artifacts, err
		}
	}
	return total, artifacts, nil
}

// feedPaths returns the RSS and Atom output paths for a feed. The site
// feed lives at the output root; category feeds live under feeds/.
func feedPaths(baseDir, name string) (string, string) {
	if strings.TrimSpace(name) == "" {
		return joinOutputPath(baseDir, "feed.xml"), joinOutputPath(baseDir, "feed.atom.xml")
	}
	slug := categorySlug(name)
	rssPath := joinOutputPath(baseDir, path.Join("feeds", fmt.Sprintf("%s.rss.xml", slug)))
	atomPath := joinOutputPath(baseDir, path.Join("feeds", fmt.Sprintf("%s.atom.xml", slug)))
	return rssPath, atomPath
}

func buildRSSFeed(site SiteMetadata, doc feedDocument, generatedAt time.Time) string {
	baseLink := baseURLWithFallback(site.BaseURL)
	title := feedTitleFor(site, doc.Name)
	description := feedDescriptionFor(site, doc.Name)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(baseLink)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(description)))
	if strings.TrimSpace(doc.Name) != "" {
		builder.WriteString(fmt.Sprintf("    <category>%s</category>\n", escapeXML(doc.Name)))
	}
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))
	for _, item := range doc.Items {
		pub := item.PublishedAt
		if pub.IsZero() {
			pub = generatedAt
		}
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf("      <guid isPermaLink=\"false\">%s</guid>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", pub.UTC().Format(time.RFC1123Z)))
		for _, category := range item.Categories {
			builder.WriteString(fmt.Sprintf("      <category>%s</category>\n", escapeXML(category)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}
	builder.WriteString("  </channel>\n")
	builder.WriteString(`</rss>` + "\n")
	return builder.String()
}

func buildAtomFeed(site SiteMetadata, doc feedDocument, generatedAt time.Time) string {
	baseLink := baseURLWithFallback(site.BaseURL)
	feedID := baseLink + "/feed.atom.xml"
	if strings.TrimSpace(doc.Name) != "" {
		feedID = fmt.Sprintf("%s/feeds/%s.atom.xml", baseLink, categorySlug(doc.Name))
	}
	title := feedTitleFor(site, doc.Name)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(title)))
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(baseLink)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(feedID)))
	for _, item := range doc.Items {
		updated := item.UpdatedAt
		if updated.IsZero() {
			updated = item.PublishedAt
		}
		if updated.IsZero() {
			updated = generatedAt
		}
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXMLAttr(item.Link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339)))
		if !item.PublishedAt.IsZero() {
			builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		}
		for _, category := range item.Categories {
			builder.WriteString(fmt.Sprintf(`    <category term="%s" />`+"\n", escapeXMLAttr(category)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

func feedMetadata(name, feedType string, generatedAt time.Time) map[string]string {
	meta := map[string]string{
		"generated_at": generatedAt.UTC().Format(time.RFC3339),
		"feed_type":    feedType,
	}
	if strings.TrimSpace(name) != "" {
		meta["category"] = name
	}
	return meta
}

func feedTitleFor(site SiteMetadata, name string) string {
	base := siteTitle(site)
	if strings.TrimSpace(name) == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, name)
}

func feedDescriptionFor(site SiteMetadata, name string) string {
	base := strings.TrimSpace(site.Description)
	if base == "" && site.Metadata != nil {
		if desc, ok := site.Metadata["description"].(string); ok {
			base = strings.TrimSpace(desc)
		}
	}
	if strings.TrimSpace(name) == "" {
		if base != "" {
			return base
		}
		return "Latest documents"
	}
	if base != "" {
		return fmt.Sprintf("%s (%s)", base, name)
	}
	return fmt.Sprintf("Latest documents in %s", name)
}

func siteTitle(site SiteMetadata) string {
	if title := strings.TrimSpace(site.Title); title != "" {
		return title
	}
	if site.Metadata != nil {
		if title, ok := site.Metadata["title"].(string); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
	}
	if base := strings.TrimSpace(site.BaseURL); base != "" {
		return base
	}
	return "Document Feed"
}

func feedSummary(doc *posts.Document) string {
	if doc == nil || doc.Summary == nil {
		return ""
	}
	return normalizeWhitespace(*doc.Summary)
}

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	targetBase := baseURLWithFallback(base)
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return targetBase
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return targetBase + normalized
}

func firstNonZeroTime(instants ...time.Time) time.Time {
	for _, ts := range instants {
		if !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

func normalizeWhitespace(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	return strings.Join(strings.Fields(input), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
