package inspector

import "github.com/goliatone/go-formbuilder/pkg/schemadoc"

// optionRows flattens enum/enumNames or oneOf into editor rows.
func optionRows(field schemadoc.FieldSchema) (Encoding, []Option) {
	switch {
	case field.HasOneOf():
		rows := make([]Option, 0, len(field.OneOf))
		for _, choice := range field.OneOf {
			row := Option{Value: schemadoc.ValueString(choice.Const), Label: choice.Title}
			if row.Label == "" {
				row.Label = row.Value
			}
			rows = append(rows, row)
		}
		return EncodingOneOf, rows
	case field.HasEnum():
		rows := make([]Option, 0, len(field.Enum))
		for idx, value := range field.Enum {
			row := Option{Value: schemadoc.ValueString(value)}
			row.Label = row.Value
			if idx < len(field.EnumNames) && field.EnumNames[idx] != "" {
				row.Label = field.EnumNames[idx]
			}
			rows = append(rows, row)
		}
		return EncodingEnum, rows
	default:
		return "", nil
	}
}

// encodeOptions builds the schema update for rows. Values whose text did not
// change keep their original JSON type.
func encodeOptions(field schemadoc.FieldSchema, encoding Encoding, rows []Option) schemadoc.Update {
	previous := make(map[string]any)
	for _, value := range field.Enum {
		previous[schemadoc.ValueString(value)] = value
	}
	for _, choice := range field.OneOf {
		previous[schemadoc.ValueString(choice.Const)] = choice.Const
	}
	typed := func(value string) any {
		if original, ok := previous[value]; ok {
			return original
		}
		return value
	}

	if encoding == EncodingOneOf {
		update := schemadoc.Update{
			schemadoc.KeyEnum:      nil,
			schemadoc.KeyEnumNames: nil,
			schemadoc.KeyOneOf:     nil,
		}
		if len(rows) > 0 {
			choices := make([]any, 0, len(rows))
			for _, row := range rows {
				choices = append(choices, map[string]any{
					schemadoc.KeyConst: typed(row.Value),
					schemadoc.KeyTitle: row.Label,
				})
			}
			update[schemadoc.KeyOneOf] = choices
		}
		return update
	}

	update := schemadoc.Update{
		schemadoc.KeyEnum:      nil,
		schemadoc.KeyEnumNames: nil,
		schemadoc.KeyOneOf:     nil,
	}
	if len(rows) > 0 {
		values := make([]any, 0, len(rows))
		labels := make([]string, 0, len(rows))
		for _, row := range rows {
			values = append(values, typed(row.Value))
			labels = append(labels, row.Label)
		}
		update[schemadoc.KeyEnum] = values
		update[schemadoc.KeyEnumNames] = labels
	}
	return update
}
