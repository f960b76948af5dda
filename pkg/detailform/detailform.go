// Package detailform resolves the secondary form whose fields depend on a
// discriminator value (location type, sensor type) and turns the validated
// result into the entity's JSON payload.
//
// Each entity kind declares a Registry over its own sum type D, e.g.
// entities.LocationDetail, with one constructor per discriminator value. In
// memory the detail is always the typed variant; JSON only appears at the
// persistence boundary (Payload, Initial).
package detailform

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/datatypes"

	"watersync/pkg/forms"
)

type State int

const (
	// Unbound: initial render of an existing entity, prefilled from storage.
	Unbound State = iota
	// Pending: data submitted, no detail kind resolved for it.
	Pending
	// Resolved: a detail kind was resolved and bound from the submission.
	Resolved
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	}
	return "unbound"
}

var ErrNotValidated = errors.New("detail form: payload requested before a successful Validate")

// Subject is implemented by entities that store a discriminated payload.
type Subject interface {
	Discriminator() string
	DetailJSON() datatypes.JSON
	SetDetailJSON(datatypes.JSON)
}

// Handle is the untyped view the generic controller works with.
type Handle interface {
	State() State
	Kind() string
	Validate() bool
	Payload() (datatypes.JSON, error)
	Fields() []forms.Field
	Errors() map[string]string
}

// Binder is satisfied by every *Registry[D].
type Binder interface {
	Param() string
	Kinds() []string
	Has(value string) bool
	Initial(kind string, stored datatypes.JSON) (Handle, error)
	Bind(kind string, prev Stored, values url.Values) (Handle, error)
}

type Registry[D any] struct {
	param string
	kinds map[string]func() D
	order []string
}

// NewRegistry starts a registry whose discriminator is submitted under param.
func NewRegistry[D any](param string) *Registry[D] {
	return &Registry[D]{param: param, kinds: map[string]func() D{}}
}

// Register maps a discriminator value to a constructor returning a pointer
// variant of D. Registering the same value twice panics at startup.
func (r *Registry[D]) Register(value string, mk func() D) *Registry[D] {
	if _, dup := r.kinds[value]; dup {
		panic(fmt.Sprintf("detailform: %q registered twice", value))
	}
	r.kinds[value] = mk
	r.order = append(r.order, value)
	return r
}

func (r *Registry[D]) Param() string { return r.param }

func (r *Registry[D]) Kinds() []string { return append([]string(nil), r.order...) }

func (r *Registry[D]) Has(value string) bool {
	_, ok := r.kinds[value]
	return ok
}

// For returns a fresh variant for value.
func (r *Registry[D]) For(value string) (D, bool) {
	mk, ok := r.kinds[value]
	if !ok {
		var zero D
		return zero, false
	}
	return mk(), true
}

// InitialForm decodes stored under kind. A payload written for another kind
// is not an error: unknown keys are ignored.
func (r *Registry[D]) InitialForm(kind string, stored datatypes.JSON) (*Form[D], error) {
	f := &Form[D]{state: Unbound, kind: kind}
	d, ok := r.For(kind)
	if !ok {
		return f, nil
	}
	if len(stored) > 0 && string(stored) != "null" {
		if err := json.Unmarshal(stored, any(d)); err != nil {
			return nil, fmt.Errorf("decode %s detail: %w", kind, err)
		}
	}
	f.detail, f.has = d, true
	return f, nil
}

// Stored is the discriminator and payload an entity held before a submission.
type Stored struct {
	Kind    string
	Payload datatypes.JSON
}

// BindForm binds values onto the variant kind selects. kind is taken from the
// bound primary entity, so an update that leaves the discriminator out keeps
// the stored one. While kind equals prev.Kind the stored payload is the
// starting point and keys absent from values keep their value; a changed kind
// starts from an empty variant. A resolved kind is always fully validated.
func (r *Registry[D]) BindForm(kind string, prev Stored, values url.Values) (*Form[D], error) {
	kind = strings.TrimSpace(kind)
	f := &Form[D]{state: Pending, kind: kind, submitted: values}
	d, ok := r.For(kind)
	if !ok {
		return f, nil
	}
	if kind == prev.Kind && len(prev.Payload) > 0 && string(prev.Payload) != "null" {
		if err := json.Unmarshal(prev.Payload, any(d)); err != nil {
			return nil, fmt.Errorf("decode %s detail: %w", kind, err)
		}
	}
	f.state = Resolved
	f.detail, f.has = d, true
	f.errs = forms.Bind(values, any(d))
	return f, nil
}

func (r *Registry[D]) Initial(kind string, stored datatypes.JSON) (Handle, error) {
	f, err := r.InitialForm(kind, stored)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *Registry[D]) Bind(kind string, prev Stored, values url.Values) (Handle, error) {
	f, err := r.BindForm(kind, prev, values)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Decode is a shortcut for reading a typed detail back out of storage.
func Decode[D any](r *Registry[D], kind string, stored datatypes.JSON) (D, bool, error) {
	f, err := r.InitialForm(kind, stored)
	if err != nil {
		var zero D
		return zero, false, err
	}
	return f.detail, f.has, nil
}

type Form[D any] struct {
	state     State
	kind      string
	detail    D
	has       bool
	submitted url.Values
	errs      map[string]string
	valid     bool
	checked   bool
}

func (f *Form[D]) State() State { return f.state }
func (f *Form[D]) Kind() string { return f.kind }

// Detail returns the typed variant; ok is false when no kind was resolved.
func (f *Form[D]) Detail() (D, bool) { return f.detail, f.has }

// Validate reports whether the secondary form may be saved. An unbound form
// is never valid; a pending one is vacuously valid.
func (f *Form[D]) Validate() bool {
	f.checked = true
	switch f.state {
	case Unbound:
		f.valid = false
	case Pending:
		f.valid = true
	case Resolved:
		if f.errs == nil {
			f.errs = map[string]string{}
		}
		for k, v := range forms.Validate(any(f.detail)) {
			if _, ok := f.errs[k]; !ok {
				f.errs[k] = v
			}
		}
		f.valid = len(f.errs) == 0
	}
	return f.valid
}

// Payload serializes the validated variant. Pending forms produce a nil
// payload, which replaces whatever was stored before.
func (f *Form[D]) Payload() (datatypes.JSON, error) {
	if !f.checked || !f.valid {
		return nil, ErrNotValidated
	}
	if f.state != Resolved {
		return nil, nil
	}
	b, err := json.Marshal(any(f.detail))
	if err != nil {
		return nil, fmt.Errorf("encode %s detail: %w", f.kind, err)
	}
	return datatypes.JSON(b), nil
}

func (f *Form[D]) Fields() []forms.Field {
	if !f.has {
		return nil
	}
	return forms.Fields(any(f.detail), f.submitted, f.errs)
}

func (f *Form[D]) Errors() map[string]string { return f.errs }
