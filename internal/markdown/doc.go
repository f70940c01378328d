// Package markdown loads front-matter Markdown files from a filesystem and
// renders them to HTML. It feeds the document store: discovery and parsing
// live here, ordering and lookup live in the store itself.
package markdown
