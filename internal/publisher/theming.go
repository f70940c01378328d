package publisher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"
)

// ThemingConfig controls theme manifest loading and selection for builds.
type ThemingConfig struct {
	// Dir is the theme directory holding a go-theme manifest.
	Dir string
	// Theme names the manifest to select; defaults to the loaded manifest name.
	Theme string
	// Variant selects a manifest variant.
	Variant string
	// CSSVariablePrefix prefixes generated CSS custom properties.
	CSSVariablePrefix string
	// PartialFallbacks supplies partial names used when a theme omits one.
	PartialFallbacks map[string]string
	// Assets lists additional asset files to copy when the manifest
	// declares none, or when no theme is configured at all.
	Assets []string
}

func (c ThemingConfig) enabled() bool {
	return strings.TrimSpace(c.Dir) != "" || strings.TrimSpace(c.Theme) != ""
}

type themeManifestLoader interface {
	Load(themePath string) (*gotheme.Manifest, error)
}

type fsThemeManifestLoader struct{}

func (fsThemeManifestLoader) Load(themePath string) (*gotheme.Manifest, error) {
	cleaned := filepath.Clean(strings.TrimSpace(themePath))
	if cleaned == "" {
		return nil, fmt.Errorf("theme path required")
	}

	return gotheme.LoadDir(os.DirFS(cleaned), ".")
}

type themeSelector struct {
	registry *gotheme.MemoryRegistry
	loader   themeManifestLoader
	dir      string
	theme    string
	variant  string

	mu       sync.Mutex
	manifest *gotheme.Manifest
}

func newThemeSelector(cfg ThemingConfig, loader themeManifestLoader) *themeSelector {
	if loader == nil {
		loader = fsThemeManifestLoader{}
	}
	return &themeSelector{
		registry: gotheme.NewRegistry(),
		loader:   loader,
		dir:      strings.TrimSpace(cfg.Dir),
		theme:    strings.TrimSpace(cfg.Theme),
		variant:  strings.TrimSpace(cfg.Variant),
	}
}

// Selection loads and registers the configured theme manifest once, then
// resolves the selection for the configured theme and variant.
func (s *themeSelector) Selection() (*gotheme.Selection, error) {
	if s == nil {
		return nil, nil
	}

	manifest, err := s.ensureManifest()
	if err != nil {
		return nil, err
	}
	if manifest == nil {
		return nil, nil
	}

	name := s.theme
	if name == "" {
		name = strings.TrimSpace(manifest.Name)
	}
	if name == "" {
		return nil, fmt.Errorf("theme name required for selection")
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   name,
		DefaultVariant: s.variant,
	}

	selection, err := selector.Select(name, s.variant)
	if err != nil {
		return nil, fmt.Errorf("select theme %s: %w", name, err)
	}
	return selection, nil
}

func (s *themeSelector) ensureManifest() (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manifest != nil {
		return s.manifest, nil
	}
	if s.dir == "" {
		return nil, nil
	}

	manifest, err := s.loader.Load(s.dir)
	if err != nil {
		return nil, fmt.Errorf("load theme manifest from %s: %w", s.dir, err)
	}

	normalized := *manifest
	if s.theme != "" && !strings.EqualFold(normalized.Name, s.theme) {
		normalized.Name = s.theme
	}
	if strings.TrimSpace(normalized.Name) == "" {
		return nil, fmt.Errorf("theme name required for manifest registration")
	}

	if err := s.registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("register theme manifest: %w", err)
	}
	s.manifest = &normalized
	return &normalized, nil
}
