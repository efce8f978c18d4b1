package schemadoc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source identifies where a persisted document lives so loaders can read
// files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Loader reads the raw bytes behind a Source.
type Loader interface {
	Load(ctx context.Context, src Source) ([]byte, error)
}

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }

func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }

func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }

func (s urlSource) Kind() SourceKind { return SourceKindURL }

// SourceFromURL validates raw and returns a URL Source.
func SourceFromURL(raw string) (Source, error) {
	if raw == "" {
		return nil, errors.New("schemadoc: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return nil, fmt.Errorf("schemadoc: invalid URL %q: %w", raw, err)
	}
	return urlSource{raw: raw}, nil
}

// ParseSource maps a command line argument to a Source: http(s) URLs become
// URL sources, everything else a file path.
func ParseSource(raw string) (Source, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("schemadoc: source is required")
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return SourceFromURL(trimmed)
	}
	return SourceFromFile(trimmed), nil
}

// LoadPair reads and strictly parses a schema and an optional UI schema.
// A nil uiSrc yields an empty UI schema.
func LoadPair(ctx context.Context, loader Loader, schemaSrc, uiSrc Source) (Pair, error) {
	if loader == nil {
		return Pair{}, errors.New("schemadoc: loader is required")
	}
	if schemaSrc == nil {
		return Pair{}, errors.New("schemadoc: schema source is required")
	}
	raw, err := loader.Load(ctx, schemaSrc)
	if err != nil {
		return Pair{}, fmt.Errorf("schemadoc: load %s: %w", schemaSrc.Location(), err)
	}
	schema, err := ParseSchema(raw)
	if err != nil {
		return Pair{}, fmt.Errorf("schemadoc: %s: %w", schemaSrc.Location(), err)
	}
	pair := Pair{Schema: schema}
	if uiSrc == nil {
		return pair, nil
	}
	raw, err = loader.Load(ctx, uiSrc)
	if err != nil {
		return Pair{}, fmt.Errorf("schemadoc: load %s: %w", uiSrc.Location(), err)
	}
	ui, err := ParseUISchema(raw)
	if err != nil && !errors.Is(err, ErrEmptyDocument) {
		return Pair{}, fmt.Errorf("schemadoc: %s: %w", uiSrc.Location(), err)
	}
	pair.UI = ui
	return pair, nil
}
