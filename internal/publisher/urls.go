package publisher

import (
	"fmt"
	"strings"
	"sync"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-press/internal/posts"
)

// RouteResolverOptions configures the go-urlkit backed resolver. Zero values
// fall back to plain path construction so the publisher works without any
// navigation configuration.
type RouteResolverOptions struct {
	Manager         *urlkit.RouteManager
	PostsGroup      string
	CategoriesGroup string
	FeedsGroup      string
	PostRoute       string
	CategoryRoute   string
	FeedRoute       string
	IdentifierParam string
	CategoryParam   string
	KindParam       string
}

// RouteResolver builds site routes for documents, categories, and feeds. When
// a RouteManager is configured the routes come from its groups; otherwise the
// resolver falls back to the conventional /posts, /categories, /feed paths.
type RouteResolver struct {
	manager *urlkit.RouteManager

	postsGroup      string
	categoriesGroup string
	feedsGroup      string

	postRoute       string
	categoryRoute   string
	feedRoute       string
	identifierParam string
	categoryParam   string
	kindParam       string

	groupCache map[string]*urlkit.Group
	mu         sync.RWMutex
}

// NewRouteResolver constructs a resolver. A nil manager keeps the fallback paths.
func NewRouteResolver(opts RouteResolverOptions) *RouteResolver {
	if opts.PostsGroup == "" {
		opts.PostsGroup = "posts"
	}
	if opts.CategoriesGroup == "" {
		opts.CategoriesGroup = "categories"
	}
	if opts.FeedsGroup == "" {
		opts.FeedsGroup = "feeds"
	}
	if opts.PostRoute == "" {
		opts.PostRoute = "post"
	}
	if opts.CategoryRoute == "" {
		opts.CategoryRoute = "category"
	}
	if opts.FeedRoute == "" {
		opts.FeedRoute = "feed"
	}
	if opts.IdentifierParam == "" {
		opts.IdentifierParam = "identifier"
	}
	if opts.CategoryParam == "" {
		opts.CategoryParam = "category"
	}
	if opts.KindParam == "" {
		opts.KindParam = "kind"
	}

	return &RouteResolver{
		manager: opts.Manager,

		postsGroup:      strings.TrimSpace(opts.PostsGroup),
		categoriesGroup: strings.TrimSpace(opts.CategoriesGroup),
		feedsGroup:      strings.TrimSpace(opts.FeedsGroup),

		postRoute:       strings.TrimSpace(opts.PostRoute),
		categoryRoute:   strings.TrimSpace(opts.CategoryRoute),
		feedRoute:       strings.TrimSpace(opts.FeedRoute),
		identifierParam: strings.TrimSpace(opts.IdentifierParam),
		categoryParam:   strings.TrimSpace(opts.CategoryParam),
		kindParam:       strings.TrimSpace(opts.KindParam),

		groupCache: make(map[string]*urlkit.Group),
	}
}

// Document resolves the route a document is served from.
func (r *RouteResolver) Document(doc *posts.Document) (string, error) {
	if doc == nil {
		return "", nil
	}
	if r == nil || r.manager == nil {
		return "/posts/" + doc.Identifier + "/", nil
	}
	return r.build(r.postsGroup, r.postRoute, map[string]any{
		r.identifierParam: doc.Identifier,
	})
}

// Category resolves the route for a category listing.
func (r *RouteResolver) Category(name string) (string, error) {
	slug := categorySlug(name)
	if slug == "" {
		return "", nil
	}
	if r == nil || r.manager == nil {
		return "/categories/" + slug + "/", nil
	}
	return r.build(r.categoriesGroup, r.categoryRoute, map[string]any{
		r.categoryParam: slug,
	})
}

// Feed resolves the route for a site feed. Kind is "rss" or "atom".
func (r *RouteResolver) Feed(kind string) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if r == nil || r.manager == nil {
		if kind == "atom" {
			return "/feed.atom.xml", nil
		}
		return "/feed.xml", nil
	}
	return r.build(r.feedsGroup, r.feedRoute, map[string]any{
		r.kindParam: kind,
	})
}

func (r *RouteResolver) build(groupPath, routeName string, params map[string]any) (string, error) {
	group, err := r.groupForPath(groupPath)
	if err != nil {
		return "", err
	}

	builder, err := r.safeBuilder(group, routeName)
	if err != nil {
		return "", err
	}

	for key, val := range params {
		builder.WithParam(key, val)
	}

	url, err := builder.Build()
	if err != nil {
		return "", err
	}
	return url, nil
}

func (r *RouteResolver) groupForPath(path string) (*urlkit.Group, error) {
	r.mu.RLock()
	group, ok := r.groupCache[path]
	r.mu.RUnlock()
	if ok {
		return group, nil
	}

	parts := strings.Split(path, ".")
	if len(parts) == 0 {
		return nil, fmt.Errorf("publisher: invalid route group path %q", path)
	}

	root, err := lookupGroup(r.manager, parts[0])
	if err != nil {
		return nil, err
	}
	current := root
	for _, part := range parts[1:] {
		current, err = lookupChildGroup(current, part)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	r.groupCache[path] = current
	r.mu.Unlock()
	return current, nil
}

func (r *RouteResolver) safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("publisher: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			builder = nil
			err = fmt.Errorf("publisher: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, nil
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	if manager == nil {
		return nil, fmt.Errorf("publisher: route manager not configured")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("publisher: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, nil
}

func lookupChildGroup(parent *urlkit.Group, name string) (group *urlkit.Group, err error) {
	if parent == nil {
		return nil, fmt.Errorf("publisher: parent group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			group = nil
			err = fmt.Errorf("publisher: child group %q not found", name)
		}
	}()
	group = parent.Group(name)
	return group, nil
}

// categorySlug normalises a category label into a path segment.
func categorySlug(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	normalized, err := posts.NormalizeSlug(trimmed)
	if err != nil || normalized == "" {
		return strings.ToLower(strings.Join(strings.Fields(trimmed), "-"))
	}
	return normalized
}
