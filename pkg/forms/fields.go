package forms

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Field is what a template needs to draw one input.
type Field struct {
	Name     string
	Label    string
	Input    string // text|number|textarea|select|checkbox|datetime-local|date
	Value    string
	Checked  bool
	Choices  []string
	Required bool
	Error    string
}

// Fields describes the form-tagged fields of src in declaration order. A value
// present in submitted wins over the struct so a failed post echoes the input.
func Fields(src any, submitted url.Values, errs map[string]string) []Field {
	rv := reflect.ValueOf(src)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	var out []Field
	collect(rv, submitted, errs, &out)
	return out
}

func collect(sv reflect.Value, submitted url.Values, errs map[string]string, out *[]Field) {
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			collect(sv.Field(i), submitted, errs, out)
			continue
		}
		name := tagName(sf.Tag.Get("form"))
		if name == "" {
			continue
		}
		rules := sf.Tag.Get("validate")
		f := Field{
			Name:     name,
			Label:    sf.Tag.Get("label"),
			Input:    sf.Tag.Get("input"),
			Required: hasRule(rules, "required"),
			Choices:  choices(rules),
			Error:    errs[name],
		}
		if f.Label == "" {
			f.Label = Humanize(name)
		}
		fv := sv.Field(i)
		if f.Input == "" {
			f.Input = inputFor(fv.Type(), f.Choices)
		}
		if vals, ok := submitted[name]; ok && len(vals) > 0 {
			f.Value = vals[len(vals)-1]
		} else {
			f.Value = Format(fv.Interface())
		}
		if f.Input == "checkbox" {
			f.Checked = f.Value == "true" || f.Value == "on" || f.Value == "1"
		}
		*out = append(*out, f)
	}
}

func hasRule(rules, rule string) bool {
	for _, r := range strings.Split(rules, ",") {
		if r == rule {
			return true
		}
	}
	return false
}

func choices(rules string) []string {
	for _, r := range strings.Split(rules, ",") {
		if v, ok := strings.CutPrefix(r, "oneof="); ok {
			return strings.Fields(v)
		}
	}
	return nil
}

func inputFor(t reflect.Type, choices []string) string {
	if len(choices) > 0 {
		return "select"
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return "datetime-local"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "checkbox"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return "text"
}

// Format renders a field value the way inputs and exports expect it.
func Format(v any) string {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return ""
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	switch tv := rv.Interface().(type) {
	case time.Time:
		if tv.IsZero() {
			return ""
		}
		return tv.Format("2006-01-02T15:04")
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(tv), 'f', -1, 32)
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case []byte:
		return string(tv)
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() == 0 {
			return ""
		}
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return ""
}

// Humanize turns "casing_top" into "Casing top".
func Humanize(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
