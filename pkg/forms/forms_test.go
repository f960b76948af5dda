package forms

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string     `form:"name" validate:"required,max=10"`
	Depth    *float64   `form:"depth" validate:"omitempty,gte=0"`
	Count    int        `form:"count"`
	Active   bool       `form:"active"`
	Kind     string     `form:"kind" validate:"omitempty,oneof=well river"`
	Measured time.Time  `form:"measured"`
	Ended    *time.Time `form:"ended"`
	Internal string
}

func TestBindAndValidate(t *testing.T) {
	var s sample
	errs := Check(url.Values{
		"name":     {"  Well A "},
		"depth":    {"2.75"},
		"count":    {"3"},
		"active":   {"on"},
		"kind":     {"well"},
		"measured": {"2024-05-01T10:30"},
		"ended":    {""},
	}, &s)
	require.Empty(t, errs)
	assert.Equal(t, "Well A", s.Name)
	require.NotNil(t, s.Depth)
	assert.Equal(t, 2.75, *s.Depth)
	assert.Equal(t, 3, s.Count)
	assert.True(t, s.Active)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC), s.Measured)
	assert.Nil(t, s.Ended)
}

func TestCheckMessages(t *testing.T) {
	var s sample
	errs := Check(url.Values{
		"name":  {strings.Repeat("x", 11)},
		"depth": {"-1"},
		"count": {"three"},
		"kind":  {"lake"},
	}, &s)
	assert.Equal(t, "Ensure this value has at most 10 characters.", errs["name"])
	assert.Equal(t, "Ensure this value is greater than or equal to 0.", errs["depth"])
	assert.Equal(t, "Enter a whole number.", errs["count"])
	assert.Equal(t, "Select a valid choice.", errs["kind"])

	errs = Check(url.Values{}, &sample{})
	assert.Equal(t, "This field is required.", errs["name"])
}

func TestUncheckedCheckbox(t *testing.T) {
	s := sample{Name: "x", Active: true}
	errs := Bind(url.Values{"_submitted": {"1"}}, &s)
	assert.Empty(t, errs)
	assert.False(t, s.Active)

	s.Active = true
	Bind(url.Values{}, &s)
	assert.True(t, s.Active, "partial updates leave absent fields alone")
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2024-05-01", "2024-05-01T10:30", "2024-05-01 10:30:00", "01/05/2024"} {
		_, err := ParseTime(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseTime("yesterday")
	assert.Error(t, err)
}

func TestFields(t *testing.T) {
	depth := 1.5
	fields := Fields(&sample{Name: "W", Depth: &depth}, url.Values{"name": {"typed"}}, map[string]string{"depth": "bad"})
	require.Len(t, fields, 7)

	byName := map[string]Field{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	assert.Equal(t, "typed", byName["name"].Value)
	assert.True(t, byName["name"].Required)
	assert.Equal(t, "1.5", byName["depth"].Value)
	assert.Equal(t, "bad", byName["depth"].Error)
	assert.Equal(t, "number", byName["count"].Input)
	assert.Equal(t, "checkbox", byName["active"].Input)
	assert.Equal(t, "select", byName["kind"].Input)
	assert.Equal(t, []string{"well", "river"}, byName["kind"].Choices)
	assert.Equal(t, "datetime-local", byName["measured"].Input)
	assert.Equal(t, "Measured", byName["measured"].Label)
}

func TestFromJSON(t *testing.T) {
	v, err := FromJSON(strings.NewReader(`{"name":"W","depth":2.5,"parameter":[1,2],"note":null}`))
	require.NoError(t, err)
	assert.Equal(t, "W", v.Get("name"))
	assert.Equal(t, "2.5", v.Get("depth"))
	assert.Equal(t, []string{"1", "2"}, v["parameter"])
	assert.True(t, v.Has("note"))
}
