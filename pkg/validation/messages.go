package validation

import (
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/schemadoc"
)

// Params describes one failed keyword.
type Params struct {
	Keyword string
	Field   string
	// Param is the keyword value in the schema, when it could be resolved.
	Param any
	// Message is the library message.
	Message string
}

// MessageFunc builds the user facing message of a failed keyword.
type MessageFunc func(Params) string

// Messages maps keywords to message builders. Keywords without an entry keep
// the library message.
type Messages map[string]MessageFunc

var swedishTypes = map[string]string{
	"string":  "text",
	"number":  "nummer",
	"integer": "heltal",
	"boolean": "ja/nej",
	"array":   "lista",
	"object":  "objekt",
}

var swedishFormats = map[string]string{
	"email":     "e-postadress",
	"uri":       "URL",
	"date-time": "datum och tid",
	"date":      "datum",
	"time":      "tid",
	"hostname":  "värdnamn",
	"ipv4":      "IPv4-adress",
	"ipv6":      "IPv6-adress",
}

// SwedishMessages returns the Swedish message table used by the form
// preview.
func SwedishMessages() Messages {
	fixed := func(text string) MessageFunc {
		return func(Params) string { return text }
	}
	limit := func(format string) MessageFunc {
		return func(p Params) string {
			return strings.Replace(format, "{limit}", schemadoc.ValueString(p.Param), 1)
		}
	}
	dependencies := fixed("Beroenden är inte uppfyllda")
	conditional := fixed("Villkorlig validering misslyckades")

	return Messages{
		"required":             fixed("Detta fält är obligatoriskt"),
		"enum":                 fixed("Välj ett giltigt alternativ"),
		"type":                 typeMessage,
		"minLength":            limit("Minst {limit} tecken krävs"),
		"maxLength":            limit("Max {limit} tecken tillåtet"),
		"minimum":              limit("Värdet måste vara minst {limit}"),
		"maximum":              limit("Värdet får vara max {limit}"),
		"exclusiveMinimum":     limit("Värdet måste vara större än {limit}"),
		"exclusiveMaximum":     limit("Värdet måste vara mindre än {limit}"),
		"multipleOf":           limit("Värdet måste vara en multipel av {limit}"),
		"pattern":              fixed("Värdet matchar inte det förväntade formatet"),
		"format":               formatMessage,
		"minItems":             limit("Minst {limit} objekt krävs"),
		"maxItems":             limit("Max {limit} objekt tillåtet"),
		"uniqueItems":          fixed("Alla värden måste vara unika"),
		"const":                fixed("Värdet matchar inte det förväntade värdet"),
		"additionalProperties": fixed("Ytterligare egenskaper är inte tillåtna"),
		"dependencies":         dependencies,
		"dependentRequired":    dependencies,
		"oneOf":                fixed("Värdet måste matcha exakt ett av alternativen"),
		"anyOf":                fixed("Värdet måste matcha minst ett av alternativen"),
		"not":                  fixed("Värdet får inte matcha det angivna schemat"),
		"if":                   conditional,
		"then":                 conditional,
		"else":                 conditional,
	}
}

func typeMessage(p Params) string {
	var expected []string
	switch typed := p.Param.(type) {
	case string:
		expected = append(expected, typed)
	case []any:
		for _, item := range typed {
			expected = append(expected, schemadoc.ValueString(item))
		}
	}
	for idx, name := range expected {
		if label, ok := swedishTypes[name]; ok {
			expected[idx] = label
		}
	}
	return "Värdet måste vara av typen " + strings.Join(expected, " eller ")
}

func formatMessage(p Params) string {
	format := schemadoc.ValueString(p.Param)
	if label, ok := swedishFormats[format]; ok {
		format = label
	}
	return "Värdet måste vara en giltig " + format
}
