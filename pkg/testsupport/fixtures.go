package testsupport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// MustParsePair parses a schema and UI schema with the strict parsers. An
// empty ui string yields an empty UI schema.
func MustParsePair(t *testing.T, schema, ui string) schemadoc.Pair {
	t.Helper()

	parsed, err := schemadoc.ParseSchema([]byte(schema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	pair := schemadoc.Pair{Schema: parsed}
	if ui == "" {
		return pair
	}
	parsedUI, err := schemadoc.ParseUISchema([]byte(ui))
	if err != nil {
		t.Fatalf("parse ui schema: %v", err)
	}
	pair.UI = parsedUI
	return pair
}

// MustJSON encodes value with the document codec.
func MustJSON(t *testing.T, value any) string {
	t.Helper()

	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

// AssertJSONEqual compares want with the JSON encoding of got, ignoring
// whitespace and object key order.
func AssertJSONEqual(t *testing.T, want string, got any) {
	t.Helper()

	var gotData []byte
	switch typed := got.(type) {
	case []byte:
		gotData = typed
	case string:
		gotData = []byte(typed)
	default:
		gotData = []byte(MustJSON(t, got))
	}

	var wantValue, gotValue any
	if err := json.Unmarshal([]byte(want), &wantValue); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if err := json.Unmarshal(gotData, &gotValue); err != nil {
		t.Fatalf("decode got: %v\n%s", err, gotData)
	}
	if diff := cmp.Diff(wantValue, gotValue); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
