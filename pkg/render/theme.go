package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeView is the theme data handed to templates.
type ThemeView struct {
	Name    string            `json:"name,omitempty"`
	Variant string            `json:"variant,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty"`
	CSSVars map[string]string `json:"cssVars,omitempty"`
	Style   string            `json:"style,omitempty"`
	Assets  map[string]string `json:"assets,omitempty"`
}

// RendererConfig derives renderer configuration from a selection: variant
// tokens override manifest tokens and every token becomes a --token CSS
// variable.
func RendererConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
	}
	manifest := selection.Manifest
	if manifest == nil {
		return cfg
	}

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	prefix := manifest.Assets.Prefix
	files := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Assets.Files {
		files[key] = value
	}
	if variant, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
		for key, value := range variant.Assets.Files {
			files[key] = value
		}
	}

	cfg.Tokens = tokens
	cfg.CSSVars = make(map[string]string, len(tokens))
	for key, value := range tokens {
		cfg.CSSVars["--"+strings.TrimPrefix(key, "--")] = value
	}
	cfg.AssetURL = func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(file, "/")
	}
	return cfg
}

func themeView(cfg *theme.RendererConfig, assetKeys ...string) ThemeView {
	if cfg == nil {
		return ThemeView{}
	}
	view := ThemeView{
		Name:    cfg.Theme,
		Variant: cfg.Variant,
		Tokens:  cfg.Tokens,
		CSSVars: cfg.CSSVars,
		Style:   cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		for _, key := range assetKeys {
			if url := cfg.AssetURL(key); url != "" {
				if view.Assets == nil {
					view.Assets = make(map[string]string)
				}
				view.Assets[key] = url
			}
		}
	}
	return view
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, vars[key]))
	}
	return strings.Join(parts, "; ")
}

// StaticThemes selects from a fixed set of manifests. Unknown names fall
// back to the default theme.
type StaticThemes struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*StaticThemes)(nil)

// NewStaticThemes indexes manifests by name.
func NewStaticThemes(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) *StaticThemes {
	index := make(map[string]*theme.Manifest, len(manifests))
	for _, manifest := range manifests {
		if manifest != nil && manifest.Name != "" {
			index[manifest.Name] = manifest
		}
	}
	return &StaticThemes{manifests: index, defaultTheme: defaultTheme, defaultVariant: defaultVariant}
}

// Select resolves name and variant against the known manifests.
func (s *StaticThemes) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = s.defaultTheme
	}
	manifest, ok := s.manifests[name]
	if !ok {
		manifest, ok = s.manifests[s.defaultTheme]
		name = s.defaultTheme
	}
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	if variant == "" {
		variant = s.defaultVariant
	}
	if _, known := manifest.Variants[variant]; !known {
		variant = ""
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}
