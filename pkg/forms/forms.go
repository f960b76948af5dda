// Package forms binds submitted url.Values onto tagged structs and validates them.
//
// Fields opt in with a `form:"name"` tag. A blank submission leaves the field
// at its zero value (nil for pointers) so `validate:"required"` means "was
// actually filled in", which echo's binder cannot express for numbers.
package forms

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := tagName(f.Tag.Get("form")); name != "" {
			return name
		}
		return tagName(f.Tag.Get("json"))
	})
	return v
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTime accepts the layouts browsers and spreadsheets send.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

var timeType = reflect.TypeOf(time.Time{})

// Bind copies every form-tagged field present in values into dst (a pointer
// to struct). Keys absent from values leave the field untouched. It returns
// parse errors keyed by form name.
func Bind(values url.Values, dst any) map[string]string {
	errs := map[string]string{}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		errs["__all__"] = "binding target must be a struct pointer"
		return errs
	}
	bindStruct(rv.Elem(), values, errs)
	return errs
}

func bindStruct(sv reflect.Value, values url.Values, errs map[string]string) {
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		fv := sv.Field(i)
		if sf.Anonymous && fv.Kind() == reflect.Struct {
			bindStruct(fv, values, errs)
			continue
		}
		name := tagName(sf.Tag.Get("form"))
		if name == "" || !fv.CanSet() {
			continue
		}
		raw, ok := values[name]
		if !ok {
			if fv.Kind() == reflect.Bool && values.Has("_submitted") {
				// unchecked checkboxes are simply missing from the post
				fv.SetBool(false)
			}
			continue
		}
		val := ""
		if len(raw) > 0 {
			val = strings.TrimSpace(raw[len(raw)-1])
		}
		if msg := setField(fv, val); msg != "" {
			errs[name] = msg
		}
	}
}

// setField returns a user-facing message when val does not parse.
func setField(fv reflect.Value, val string) string {
	if fv.Kind() == reflect.Pointer {
		if val == "" {
			fv.Set(reflect.Zero(fv.Type()))
			return ""
		}
		nv := reflect.New(fv.Type().Elem())
		if msg := setField(nv.Elem(), val); msg != "" {
			return msg
		}
		fv.Set(nv)
		return ""
	}
	if fv.Type() == timeType {
		if val == "" {
			fv.Set(reflect.Zero(timeType))
			return ""
		}
		t, err := ParseTime(val)
		if err != nil {
			return "Enter a valid date/time."
		}
		fv.Set(reflect.ValueOf(t))
		return ""
	}
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(val)
	case reflect.Bool:
		fv.SetBool(val == "on" || val == "true" || val == "1")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if val == "" {
			fv.SetInt(0)
			return ""
		}
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return "Enter a whole number."
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if val == "" {
			fv.SetUint(0)
			return ""
		}
		n, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return "Select a valid choice."
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if val == "" {
			fv.SetFloat(0)
			return ""
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return "Enter a number."
		}
		fv.SetFloat(f)
	default:
		return "unsupported field type " + fv.Type().String()
	}
	return ""
}

// Validate runs the struct's `validate` tags and returns messages keyed by
// form name (or json name for fields that are not on the form).
func Validate(dst any) map[string]string {
	errs := map[string]string{}
	err := validate.Struct(dst)
	if err == nil {
		return errs
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["__all__"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = message(fe)
		}
	}
	return errs
}

// Check binds then validates; bind errors win for the same field.
func Check(values url.Values, dst any) map[string]string {
	errs := Bind(values, dst)
	for k, v := range Validate(dst) {
		if _, ok := errs[k]; !ok {
			errs[k] = v
		}
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with", "required_without":
		return "This field is required."
	case "oneof":
		return "Select a valid choice."
	case "latitude":
		return "Enter a valid latitude."
	case "longitude":
		return "Enter a valid longitude."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "gtfield", "gtefield":
		return "Ensure this value comes after " + strings.ReplaceAll(fe.Param(), "_", " ") + "."
	}
	return "Enter a valid value."
}

// FromJSON flattens a JSON object body into url.Values so API clients share
// the form code path. Arrays become repeated keys.
func FromJSON(r io.Reader) (url.Values, error) {
	var body map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	out := url.Values{}
	for k, v := range body {
		switch tv := v.(type) {
		case nil:
			out.Set(k, "")
		case []any:
			for _, item := range tv {
				out.Add(k, fmt.Sprint(item))
			}
		default:
			out.Set(k, fmt.Sprint(tv))
		}
	}
	return out, nil
}
