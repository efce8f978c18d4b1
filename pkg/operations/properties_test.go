package operations

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbuilder/pkg/fieldtypes"
	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// randomPair builds a document by replaying random palette additions,
// required toggles and conditions.
func randomPair(rng *rand.Rand, engine *Engine) schemadoc.Pair {
	palette := engine.FieldTypes().All()
	pair := schemadoc.NewPair()
	for range rng.Intn(8) {
		ft := palette[rng.Intn(len(palette))].Type
		name := engine.GenerateFieldName(pair.Schema, ft)
		pair = engine.AddField(pair, name, ft, rng.Intn(4)-1)
		if rng.Intn(3) == 0 {
			pair.Schema = engine.ToggleRequired(pair.Schema, name)
		}
	}
	sources := engine.ConditionSourceFields(pair.Schema)
	names := pair.Schema.Properties.Keys()
	for range rng.Intn(4) {
		if len(sources) == 0 || len(names) == 0 {
			break
		}
		source := sources[rng.Intn(len(sources))]
		value := source.Values[rng.Intn(len(source.Values))].Value
		pair.Schema = engine.SetFieldCondition(pair.Schema, names[rng.Intn(len(names))], FieldCondition{
			DependsOnField: source.Name,
			DependsOnValue: value,
		})
	}
	return pair
}

func TestProperty_AddRemoveRestoresDocument(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(42))
	palette := engine.FieldTypes().All()

	for iteration := range 200 {
		pair := randomPair(rng, engine)
		wantSchema, wantUI := mustStrings(t, pair)

		ft := palette[rng.Intn(len(palette))].Type
		name := engine.GenerateFieldName(pair.Schema, ft)
		added := engine.AddField(pair, name, ft, rng.Intn(6)-1)
		restored := engine.RemoveField(added, name)

		gotSchema, gotUI := mustStrings(t, restored)
		if diff := cmp.Diff(wantSchema, gotSchema); diff != "" {
			t.Fatalf("iteration %d: schema mismatch (-want +got):\n%s", iteration, diff)
		}
		if diff := cmp.Diff(wantUI, gotUI); diff != "" {
			t.Fatalf("iteration %d: ui schema mismatch (-want +got):\n%s", iteration, diff)
		}
	}
}

// A document persisted without ui:order gets one seeded from the property
// order on the first add, and keeps it after the field is removed again.
func TestProperty_AddRemoveSeedsOrderWhenAbsent(t *testing.T) {
	engine := New()
	pair := schemadoc.ParsePair(
		`{"type":"object","properties":{"b":{"type":"string","title":"B"},"a":{"type":"number"}},"required":["a"]}`,
		`{"a":{"ui:widget":"TextWidget"}}`,
	)
	wantSchema, _ := mustStrings(t, pair)

	added := engine.AddField(pair, "text", fieldtypes.Text, 1)
	if diff := cmp.Diff([]string{"b", "text", "a"}, added.UI.Order); diff != "" {
		t.Fatalf("seeded order mismatch (-want +got):\n%s", diff)
	}
	restored := engine.RemoveField(added, "text")

	gotSchema, gotUI := mustStrings(t, restored)
	if diff := cmp.Diff(wantSchema, gotSchema); diff != "" {
		t.Fatalf("schema mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(`{"ui:order":["b","a"],"a":{"ui:widget":"TextWidget"}}`, gotUI); diff != "" {
		t.Fatalf("ui schema mismatch (-want +got):\n%s", diff)
	}
}

func mustStrings(t *testing.T, pair schemadoc.Pair) (string, string) {
	t.Helper()
	schema, ui, err := pair.Strings()
	if err != nil {
		t.Fatalf("encode pair: %v", err)
	}
	return schema, ui
}

func TestProperty_GeneratedNamesAreUnique(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(7))

	for iteration := range 200 {
		pair := randomPair(rng, engine)
		for _, entry := range engine.FieldTypes().All() {
			name := engine.GenerateFieldName(pair.Schema, entry.Type)
			if pair.Schema.Properties.Has(name) {
				t.Fatalf("iteration %d: generated name %q already exists", iteration, name)
			}
		}
	}
}

func TestProperty_AtMostOneConditionPerTarget(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(99))

	for iteration := range 200 {
		pair := randomPair(rng, engine)
		for _, name := range pair.Schema.Properties.Keys() {
			count := 0
			for _, rule := range pair.Schema.AllOf {
				if rule.Then != nil && slices.Contains(rule.Then.Required, name) {
					count++
				}
			}
			if count > 1 {
				t.Fatalf("iteration %d: %q is targeted by %d rules", iteration, name, count)
			}
		}
	}
}

func TestProperty_EnumEncodingsAreExclusive(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(3))
	updates := []schemadoc.Update{
		{"enum": []any{"a", "b"}},
		{"oneOf": []any{map[string]any{"const": "a", "title": "A"}}},
		{"enum": []any{"x"}, "enumNames": []any{"X"}},
		{"title": "Rubrik"},
		{"enum": nil},
	}

	for iteration := range 200 {
		pair := randomPair(rng, engine)
		pair = engine.AddField(pair, engine.GenerateFieldName(pair.Schema, fieldtypes.Select), fieldtypes.Select, Append)
		names := pair.Schema.Properties.Keys()
		schema := pair.Schema
		for range 10 {
			schema = engine.UpdateFieldSchema(schema, names[rng.Intn(len(names))], updates[rng.Intn(len(updates))])
		}
		for name, field := range schema.Properties.All() {
			if field.HasEnum() && field.HasOneOf() {
				t.Fatalf("iteration %d: %q carries both enum and oneOf", iteration, name)
			}
		}
	}
}

func TestProperty_ReorderSameIndexIsIdentity(t *testing.T) {
	engine := New()
	rng := rand.New(rand.NewSource(11))

	for iteration := range 100 {
		pair := randomPair(rng, engine)
		if len(pair.UI.Order) == 0 {
			continue
		}
		idx := rng.Intn(len(pair.UI.Order))
		got := engine.ReorderFields(pair.UI, idx, idx)
		if diff := cmp.Diff(pair.UI.Order, got.Order); diff != "" {
			t.Fatalf("iteration %d: order mismatch (-want +got):\n%s", iteration, diff)
		}
	}
}
