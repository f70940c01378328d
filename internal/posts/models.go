package posts

import presspost "github.com/goliatone/go-press/posts"

type (
	Document      = presspost.Document
	Status        = presspost.Status
	CategoryCount = presspost.CategoryCount
	NotFoundError = presspost.NotFoundError
	ParseError    = presspost.ParseError
)

const (
	StatusDraft     = presspost.StatusDraft
	StatusPublished = presspost.StatusPublished
)

var (
	ErrIdentifierRequired  = presspost.ErrIdentifierRequired
	ErrTitleRequired       = presspost.ErrTitleRequired
	ErrPublishedAtRequired = presspost.ErrPublishedAtRequired
	ErrSlugRequired        = presspost.ErrSlugRequired
	ErrSlugInvalid         = presspost.ErrSlugInvalid
	ErrDuplicateIdentifier = presspost.ErrDuplicateIdentifier
	ErrDocumentRequired    = presspost.ErrDocumentRequired
	ErrSourceRequired      = presspost.ErrSourceRequired
	ErrStoreDisabled       = presspost.ErrStoreDisabled
)

var (
	IsNotFound     = presspost.IsNotFound
	IsParseError   = presspost.IsParseError
	Identifier     = presspost.Identifier
	DeriveSlug     = presspost.DeriveSlug
	DateFromSource = presspost.DateFromSource
	NormalizeSlug  = presspost.NormalizeSlug
	IsValidSlug    = presspost.IsValidSlug
)
