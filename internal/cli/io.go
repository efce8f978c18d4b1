package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

func (a *app) loadPair(ctx context.Context, schemaArg string) (schemadoc.Pair, error) {
	schemaSrc, err := schemadoc.ParseSource(schemaArg)
	if err != nil {
		return schemadoc.Pair{}, err
	}
	var uiSrc schemadoc.Source
	if a.uiPath != "" {
		if uiSrc, err = schemadoc.ParseSource(a.uiPath); err != nil {
			return schemadoc.Pair{}, err
		}
	}
	return schemadoc.LoadPair(ctx, a.loader(), schemaSrc, uiSrc)
}

func (a *app) loadBytes(ctx context.Context, location string) ([]byte, error) {
	src, err := schemadoc.ParseSource(location)
	if err != nil {
		return nil, err
	}
	return a.loader().Load(ctx, src)
}

// readIfExists returns the document at location, or "" when location is
// empty or names a missing file.
func (a *app) readIfExists(ctx context.Context, location string) (string, error) {
	if location == "" {
		return "", nil
	}
	src, err := schemadoc.ParseSource(location)
	if err != nil {
		return "", err
	}
	if src.Kind() == schemadoc.SourceKindFile {
		if _, err := os.Stat(location); errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
	}
	raw, err := a.loader().Load(ctx, src)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// loadValues reads form data from a JSON or YAML object. An empty location
// yields no values.
func (a *app) loadValues(ctx context.Context, location string) (map[string]any, error) {
	values := map[string]any{}
	if location == "" {
		return values, nil
	}
	raw, err := a.loadBytes(ctx, location)
	if err != nil {
		return nil, err
	}
	if jsonErr := json.Unmarshal(raw, &values); jsonErr != nil {
		values = map[string]any{}
		if err := yaml.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("data %s: %w", location, jsonErr)
		}
	}
	return values, nil
}

// encode renders value as indented JSON or as block style YAML keeping the
// JSON key order.
func encode(format string, value any) ([]byte, error) {
	data, err := schemadoc.MarshalIndent(value)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "", "json":
		return append(data, '\n'), nil
	case "yaml", "yml":
		return toYAML(data)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func toYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}

// emit writes data to the --output file, or to the command output.
func (a *app) emit(cmd *cobra.Command, data []byte) error {
	if a.output == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return writeFile(cmd, a.output, data)
}

func writeFile(cmd *cobra.Command, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", path)
	return nil
}
