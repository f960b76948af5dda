package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestWKT(t *testing.T) {
	s, err := WKT(f(52.1), f(5.2))
	require.NoError(t, err)
	assert.Equal(t, "POINT (5.2 52.1)", s)

	s, err = WKT(nil, f(5.2))
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestFeatureCollection(t *testing.T) {
	b, err := FeatureCollection([]Feature{
		{ID: 1, Lat: f(52.0), Lon: f(5.0), Properties: map[string]any{"name": "Well A"}},
		{ID: 2, Lat: f(53.0), Lon: f(6.0), Properties: map[string]any{"name": "Well B"}},
		{ID: 3, Properties: map[string]any{"name": "Unplaced"}},
	})
	require.NoError(t, err)

	var fc struct {
		Type     string    `json:"type"`
		BBox     []float64 `json:"bbox"`
		Features []struct {
			ID         string         `json:"id"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(b, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2, "features without a position are skipped")
	assert.Equal(t, "2", fc.Features[1].ID)
	assert.Equal(t, []float64{5, 52, 6, 53}, fc.BBox)
}

func TestFeatureCollectionEmpty(t *testing.T) {
	b, err := FeatureCollection(nil)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"features":[]`)
}
