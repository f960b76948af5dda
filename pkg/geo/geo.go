// Package geo turns stored latitude/longitude pairs into geometries for the
// map layer and exports.
package geo

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

const SRID = 4326

// Point returns nil unless both coordinates are set.
func Point(lat, lon *float64) *geom.Point {
	if lat == nil || lon == nil {
		return nil
	}
	p := geom.NewPointFlat(geom.XY, []float64{*lon, *lat})
	p.SetSRID(SRID)
	return p
}

// WKT renders a point as "POINT (lon lat)", or "" when it has no position.
func WKT(lat, lon *float64) (string, error) {
	p := Point(lat, lon)
	if p == nil {
		return "", nil
	}
	s, err := wkt.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal wkt: %w", err)
	}
	return s, nil
}

// Feature is one located item on the map.
type Feature struct {
	ID         uint
	Lat, Lon   *float64
	Properties map[string]any
}

// FeatureCollection encodes the features that have a position; the rest are
// skipped. The collection carries a bounding box so the map can fit to it.
func FeatureCollection(features []Feature) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}
	var bounds *geom.Bounds
	for _, f := range features {
		p := Point(f.Lat, f.Lon)
		if p == nil {
			continue
		}
		if bounds == nil {
			bounds = geom.NewBounds(geom.XY)
		}
		bounds.Extend(p)
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         strconv.FormatUint(uint64(f.ID), 10),
			Geometry:   p,
			Properties: f.Properties,
		})
	}
	fc.BBox = bounds
	return json.Marshal(fc)
}
