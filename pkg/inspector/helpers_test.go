package inspector_test

import (
	"testing"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

func mustField(t *testing.T, pair schemadoc.Pair, name string) schemadoc.FieldSchema {
	t.Helper()
	field, ok := pair.Schema.Field(name)
	if !ok {
		t.Fatalf("field %q not found", name)
	}
	return field
}
