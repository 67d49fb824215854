// Package geo holds the proximity approximation used by spot search.
package geo

import "math"

// KmPerDegree is the fixed degree-to-kilometre conversion used for both axes.
const KmPerDegree = 111.0

// DefaultRadiusKm is the search radius used when the caller gives none.
const DefaultRadiusKm = 5.0

// BoundingBox is a latitude/longitude rectangle, inclusive on all edges.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Around returns the rectangle that stands in for a circle of radiusKm
// centred on (lat, lng). It is not a great-circle computation: the latitude
// span is radius/111 degrees and the longitude span is widened by
// 1/cos(lat). Near the poles the longitude span covers every meridian.
func Around(lat, lng, radiusKm float64) BoundingBox {
	latDelta := radiusKm / KmPerDegree

	lngDelta := 360.0
	if cos := math.Abs(math.Cos(lat * math.Pi / 180)); cos > 1e-9 {
		lngDelta = math.Min(radiusKm/(KmPerDegree*cos), 360.0)
	}

	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}
