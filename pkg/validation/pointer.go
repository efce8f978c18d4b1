package validation

import "strings"

func splitPointer(pointer string) []string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, "/")
	for idx, part := range parts {
		parts[idx] = unescapePointer(part)
	}
	return parts
}

func unescapePointer(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

func escapePointer(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}

func lastSegment(pointer string) string {
	parts := splitPointer(pointer)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// fieldFromInstance turns an instance location into a dotted field path.
func fieldFromInstance(pointer string) string {
	return strings.Join(splitPointer(pointer), ".")
}

// fieldPathFromPointer turns a schema location into a dotted field path,
// dropping the keywords that only structure the schema.
func fieldPathFromPointer(pointer string) string {
	parts := splitPointer(pointer)
	out := make([]string, 0, len(parts))
	for idx := 0; idx < len(parts); idx++ {
		segment := parts[idx]
		switch segment {
		case "properties":
			if idx+1 < len(parts) {
				out = append(out, parts[idx+1])
				idx++
			}
		case "items":
			out = append(out, "items")
		case "oneOf", "anyOf", "allOf":
			if idx+1 < len(parts) && isNumeric(parts[idx+1]) {
				idx++
			}
		case "if", "then", "else":
		case "$defs":
			if idx+1 < len(parts) {
				idx++
			}
		default:
			if segment == "" {
				continue
			}
			out = append(out, segment)
		}
	}
	return strings.Join(out, ".")
}

func isNumeric(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TopLevel returns the form field an issue belongs to: the first segment of
// its instance path, or of its dotted field path when the path is empty.
// Issues about the form as a whole return "".
func (i Issue) TopLevel() string {
	if parts := splitPointer(i.Path); len(parts) > 0 {
		return parts[0]
	}
	name, _, _ := strings.Cut(i.Field, ".")
	return name
}
