package posts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIdentifierRequired  = errors.New("posts: document identifier is required")
	ErrTitleRequired       = errors.New("posts: document title is required")
	ErrPublishedAtRequired = errors.New("posts: document publication date is required")
	ErrSlugRequired        = errors.New("posts: document slug is required")
	ErrSlugInvalid         = errors.New("posts: slug contains invalid characters")
	ErrDuplicateIdentifier = errors.New("posts: duplicate document identifier")
	ErrDocumentRequired    = errors.New("posts: document is required")
	ErrSourceRequired      = errors.New("posts: document source is required")
	ErrStoreDisabled       = errors.New("posts: store is disabled")
)

// NotFoundError indicates a lookup for a missing resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// ParseError reports a document whose metadata block could not be
// interpreted. The offending document is excluded from listings until the
// source file is corrected; loading continues for the rest of the store.
type ParseError struct {
	Path   string
	Issues []string
	Cause  error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "posts: document parse failed"
	}
	var sb strings.Builder
	sb.WriteString("posts: parse ")
	sb.WriteString(e.Path)
	if len(e.Issues) > 0 {
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Issues, "; "))
	} else if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsParseError reports whether err wraps a ParseError.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
