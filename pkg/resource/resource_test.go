package resource

import (
	"html/template"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watersync/pkg/apperr"
	"watersync/pkg/detailform"
)

type gauge struct {
	ID   uint
	Name string
	At   time.Time
	On   bool
}

func gauges() *Descriptor[gauge] {
	return &Descriptor[gauge]{
		Kind:   "gauge",
		Plural: "gauges",
		Doc: `Gauges measure rain.

They are read <b>daily</b>
by the field team.`,
		ID:    func(g *gauge) uint { return g.ID },
		Label: func(g *gauge) string { return g.Name },
		List: []Column[gauge]{
			Field("Name", func(g *gauge) any { return g.Name }),
			Field("Read at", func(g *gauge) any { return g.At }),
			Field("Active", func(g *gauge) any { return g.On }),
		},
		Detail: []Column[gauge]{Field("Name", func(g *gauge) any { return g.Name })},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, gauges().Validate())

	d := gauges()
	d.List = nil
	assert.True(t, apperr.Is(d.Validate(), apperr.KindConfiguration))

	d = gauges()
	d.ID = nil
	assert.Error(t, d.Validate())
}

func TestRowsAndDescribe(t *testing.T) {
	d := gauges()
	rows, err := d.Rows([]gauge{{ID: 3, Name: "North", At: time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), On: true}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(3), rows[0].ID)
	assert.Equal(t, []string{"North", "2024-01-02 09:30", "Yes"}, rows[0].Cells)

	assert.Equal(t, "North", d.Describe(&gauge{ID: 3, Name: "North"}))
	assert.Equal(t, "gauge 4", d.Describe(&gauge{ID: 4}))
	assert.Equal(t, []string{"Name", "Read at", "Active"}, d.Headers())
}

func TestExplanation(t *testing.T) {
	short, detail := gauges().Explanation()
	assert.Equal(t, "Gauges measure rain.", short)
	assert.Equal(t, template.HTML("<p>They are read <b>daily</b> by the field team.</p>"), detail)

	d := gauges()
	d.Doc = "Gauges measure <em>rain</em>.\n\nFirst.\n\nSecond."
	short, detail = d.Explanation()
	assert.Equal(t, "Gauges measure rain.", short)
	assert.Equal(t, template.HTML("<p>First.</p><p>Second.</p>"), detail)
}

func TestMarkupDropsActiveContent(t *testing.T) {
	got := Markup(`<p onclick="steal()">Read <b>daily</b></p><script>alert(1)</script>`)
	assert.Equal(t, template.HTML("<p>Read <b>daily</b></p>"), got)
}

type gaugeDetail interface{ gaugeType() string }

type tippingBucket struct {
	Volume *float64 `json:"volume,omitempty" form:"volume" validate:"required,gt=0"`
}

func (*tippingBucket) gaugeType() string { return "tipping" }

func TestDetailFormFor(t *testing.T) {
	h, err := gauges().DetailFormFor("tipping", detailform.Stored{}, url.Values{})
	require.NoError(t, err)
	assert.Nil(t, h, "kinds without a payload have no detail form")

	d := gauges()
	d.Details = detailform.NewRegistry[gaugeDetail]("type").
		Register("tipping", func() gaugeDetail { return &tippingBucket{} })

	h, err = d.DetailFormFor("tipping", detailform.Stored{}, url.Values{"volume": {"0.2"}})
	require.NoError(t, err)
	assert.Equal(t, detailform.Resolved, h.State())
	assert.True(t, h.Validate())

	h, err = d.DetailFormFor("manual", detailform.Stored{}, url.Values{"volume": {"0.2"}})
	require.NoError(t, err)
	assert.Equal(t, detailform.Pending, h.State())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(gauges()))
	assert.Error(t, r.Register(gauges()), "duplicate kind")

	path, err := r.Path(Segment{Kind: "gauge", ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "/gauges/7", path)

	_, err = r.Path(Segment{Kind: "well", ID: 1})
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))

	kind, ok := r.KindOfPlural("gauges")
	assert.True(t, ok)
	assert.Equal(t, "gauge", kind)
	assert.Equal(t, []string{"gauge"}, r.Kinds())
}

func TestDisplay(t *testing.T) {
	var nilTime *time.Time
	depth := 2.5
	assert.Equal(t, "", Display(nil))
	assert.Equal(t, "", Display(nilTime))
	assert.Equal(t, "No", Display(false))
	assert.Equal(t, "2.5", Display(&depth))
	assert.Equal(t, "12", Display(int64(12)))
}
