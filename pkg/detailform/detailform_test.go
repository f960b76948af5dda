package detailform

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type detail interface{ kind() string }

type wellDetail struct {
	Depth     *float64 `json:"depth,omitempty" form:"depth" validate:"required,gt=0"`
	CasingTop *float64 `json:"casing_top,omitempty" form:"casing_top" validate:"required"`
}

type riverDetail struct {
	Width *float64 `json:"width,omitempty" form:"width" validate:"omitempty,gte=0"`
}

func (*wellDetail) kind() string  { return "well" }
func (*riverDetail) kind() string { return "river" }

func newRegistry() *Registry[detail] {
	return NewRegistry[detail]("type").
		Register("well", func() detail { return &wellDetail{} }).
		Register("river", func() detail { return &riverDetail{} })
}

func TestBindResolvedKind(t *testing.T) {
	r := newRegistry()
	f, err := r.BindForm("well", Stored{}, url.Values{"type": {"well"}, "depth": {"12.5"}, "casing_top": {"3.1"}})
	require.NoError(t, err)
	assert.Equal(t, Resolved, f.State())
	require.True(t, f.Validate())

	payload, err := f.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"depth":12.5,"casing_top":3.1}`, string(payload))

	d, ok := f.Detail()
	require.True(t, ok)
	w, ok := d.(*wellDetail)
	require.True(t, ok)
	assert.Equal(t, 12.5, *w.Depth)
}

func TestResolvedKindIsValidatedWhenNothingPosted(t *testing.T) {
	f, err := newRegistry().BindForm("well", Stored{}, url.Values{"type": {"well"}})
	require.NoError(t, err)
	assert.False(t, f.Validate())
	assert.Equal(t, "This field is required.", f.Errors()["depth"])

	_, err = f.Payload()
	assert.ErrorIs(t, err, ErrNotValidated)
}

func TestPendingKind(t *testing.T) {
	f, err := newRegistry().BindForm("spring", Stored{}, url.Values{"type": {"spring"}})
	require.NoError(t, err)
	assert.Equal(t, Pending, f.State())
	assert.True(t, f.Validate())
	payload, err := f.Payload()
	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Empty(t, f.Fields())
}

func TestSameKindStartsFromStoredPayload(t *testing.T) {
	prev := Stored{Kind: "well", Payload: datatypes.JSON(`{"depth":12.5,"casing_top":3.1}`)}
	f, err := newRegistry().BindForm("well", prev, url.Values{"name": {"Well B"}})
	require.NoError(t, err)
	assert.Equal(t, Resolved, f.State())
	require.True(t, f.Validate())

	payload, err := f.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"depth":12.5,"casing_top":3.1}`, string(payload))

	f, err = newRegistry().BindForm("well", prev, url.Values{"depth": {"20"}})
	require.NoError(t, err)
	require.True(t, f.Validate())
	payload, err = f.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"depth":20,"casing_top":3.1}`, string(payload))
}

func TestChangedKindStartsEmpty(t *testing.T) {
	prev := Stored{Kind: "well", Payload: datatypes.JSON(`{"depth":12.5,"casing_top":3.1}`)}
	f, err := newRegistry().BindForm("river", prev, url.Values{"width": {"4"}})
	require.NoError(t, err)
	require.True(t, f.Validate())
	payload, err := f.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":4}`, string(payload))

	_, err = newRegistry().BindForm("well", Stored{Kind: "well", Payload: datatypes.JSON(`{"depth":"deep"}`)}, nil)
	assert.Error(t, err)
}

func TestUnboundIsNeverValid(t *testing.T) {
	r := newRegistry()
	h, err := r.Initial("river", datatypes.JSON(`{"width":4}`))
	require.NoError(t, err)
	assert.Equal(t, Unbound, h.State())
	assert.False(t, h.Validate())

	fields := h.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "4", fields[0].Value)
}

func TestInitialIgnoresForeignPayload(t *testing.T) {
	// a well payload read back after the type changed to river
	d, ok, err := Decode(newRegistry(), "river", datatypes.JSON(`{"depth":12.5}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, d.(*riverDetail).Width)

	_, err = newRegistry().Initial("river", datatypes.JSON(`{"width":"wide"}`))
	assert.Error(t, err)
}

func TestRegisterTwicePanics(t *testing.T) {
	assert.Panics(t, func() {
		newRegistry().Register("well", func() detail { return &wellDetail{} })
	})
}
