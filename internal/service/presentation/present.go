package presentation

import "reflect"

// Field is one labelled value ready to be displayed.
type Field struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// Present applies the display rule for optional attributes: a value that
// is nil, a nil pointer or an empty string is omitted (ok is false).
// Zero numbers and false are real values and are kept. Pointers are
// dereferenced in the returned field.
func Present(label string, value any) (Field, bool) {
	if value == nil {
		return Field{}, false
	}

	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Field{}, false
		}
		v = v.Elem()
	}

	if v.Kind() == reflect.String && v.Len() == 0 {
		return Field{}, false
	}

	return Field{Label: label, Value: v.Interface()}, true
}

// fieldList collects present fields in insertion order.
type fieldList []Field

func (l *fieldList) add(label string, value any) {
	if f, ok := Present(label, value); ok {
		*l = append(*l, f)
	}
}
