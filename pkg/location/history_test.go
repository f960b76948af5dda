package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"watersync/entities"
)

func ptr(f float64) *float64 { return &f }

func TestChanges(t *testing.T) {
	prev := &entities.Location{
		ID: 9, Name: "Well 1", Type: entities.LocationWell,
		Latitude: ptr(52.1), Longitude: ptr(5.2),
		Detail: datatypes.JSON(`{"casing_top":3.2,"depth":10,"material":"pvc"}`),
	}
	next := *prev
	next.Name = "Well 1b"
	next.Longitude = ptr(5.25)
	next.Detail = datatypes.JSON(`{"casing_top":3.4,"depth":10,"drill_type":"rotary_drilling"}`)

	rows, err := Changes(prev, &next)
	require.NoError(t, err)

	got := map[string][2]string{}
	for _, r := range rows {
		assert.Equal(t, uint(9), r.LocationID)
		got[r.Field] = [2]string{r.OldValue, r.NewValue}
	}
	assert.Equal(t, map[string][2]string{
		"name":              {"Well 1", "Well 1b"},
		"longitude":         {"5.2", "5.25"},
		"detail.casing_top": {"3.2", "3.4"},
		"detail.drill_type": {"", "rotary_drilling"},
		"detail.material":   {"pvc", ""},
	}, got)

	// payload keys come out sorted after the columns
	require.Len(t, rows, 5)
	assert.Equal(t, "detail.casing_top", rows[2].Field)
	assert.Equal(t, "detail.material", rows[4].Field)
}

func TestChangesNone(t *testing.T) {
	l := &entities.Location{Name: "Lake", Type: entities.LocationLake}
	rows, err := Changes(l, l)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestChangesBadPayload(t *testing.T) {
	prev := &entities.Location{Detail: datatypes.JSON(`not json`)}
	_, err := Changes(prev, &entities.Location{})
	assert.Error(t, err)
}
