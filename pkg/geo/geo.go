// Package geo provides small planar helpers shared by the segmentation
// strategies: degree/meter conversion, point-to-rectangle distance and
// WKT construction for axis-aligned boxes.
package geo

import (
	"fmt"
	"math"
	"strings"

	"github.com/paulmach/orb"
)

// MetersPerDegree is the length of one degree of latitude in meters.
const MetersPerDegree = 111320.0

// DegreesForMeters converts a length in meters to degrees of longitude
// at the given latitude. At high latitudes a degree of longitude spans
// fewer meters, so the returned value grows with |lat|.
func DegreesForMeters(meters, lat float64) float64 {
	scale := MetersPerDegree * math.Cos(lat*math.Pi/180)
	if scale <= 0 {
		scale = MetersPerDegree
	}
	return meters / scale
}

// Distance returns the Euclidean distance between two points in degrees.
// Used only for deterministic tie-breaking, not for measurement.
func Distance(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}

// DistanceToBound returns the Euclidean distance from a point to the
// closest edge of an axis-aligned bound, zero if the point is inside.
func DistanceToBound(p orb.Point, b orb.Bound) float64 {
	dx := math.Max(math.Max(b.Min[0]-p[0], 0), p[0]-b.Max[0])
	dy := math.Max(math.Max(b.Min[1]-p[1], 0), p[1]-b.Max[1])
	return math.Sqrt(dx*dx + dy*dy)
}

// BoundWKT renders an axis-aligned bound as a closed POLYGON in WKT,
// counter-clockwise starting at the south-west corner.
func BoundWKT(b orb.Bound) string {
	return fmt.Sprintf("POLYGON((%s,%s,%s,%s,%s))",
		coord(b.Min[0], b.Min[1]),
		coord(b.Max[0], b.Min[1]),
		coord(b.Max[0], b.Max[1]),
		coord(b.Min[0], b.Max[1]),
		coord(b.Min[0], b.Min[1]),
	)
}

// MultiPointWKT renders a set of points as a MULTIPOINT in WKT.
func MultiPointWKT(points []orb.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = "(" + coord(p[0], p[1]) + ")"
	}
	return "MULTIPOINT(" + strings.Join(parts, ",") + ")"
}

// PointWKT renders a point in WKT.
func PointWKT(p orb.Point) string {
	return "POINT(" + coord(p[0], p[1]) + ")"
}

func coord(x, y float64) string {
	return fmt.Sprintf("%.9f %.9f", x, y)
}

// Palette is the fixed segment color palette; segment i takes color
// i mod len(Palette).
var Palette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
}

// Color returns the palette color for segment index i.
func Color(i int) string {
	return Palette[i%len(Palette)]
}
