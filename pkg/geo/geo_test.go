package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestDegreesForMeters(t *testing.T) {
	t.Run("Equator", func(t *testing.T) {
		deg := DegreesForMeters(111320, 0)
		assert.InDelta(t, 1.0, deg, 1e-9)
	})

	t.Run("MidLatitude", func(t *testing.T) {
		// At 60°N a degree of longitude spans half the equatorial length.
		deg := DegreesForMeters(111320, 60)
		assert.InDelta(t, 2.0, deg, 1e-9)
	})

	t.Run("PoleFallsBackToEquatorialScale", func(t *testing.T) {
		deg := DegreesForMeters(111320, 90)
		assert.False(t, math.IsInf(deg, 1))
		assert.InDelta(t, 1.0, deg, 1e-6)
	})
}

func TestDistanceToBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}

	tests := []struct {
		name string
		p    orb.Point
		want float64
	}{
		{"Inside", orb.Point{0.5, 0.5}, 0},
		{"OnEdge", orb.Point{1, 0.5}, 0},
		{"EastOf", orb.Point{3, 0.5}, 2},
		{"NorthOf", orb.Point{0.5, 2.5}, 1.5},
		{"Corner", orb.Point{4, 5}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceToBound(tt.p, b), 1e-12)
		})
	}
}

func TestBoundWKT(t *testing.T) {
	b := orb.Bound{Min: orb.Point{78.4, 17.3}, Max: orb.Point{78.5, 17.4}}
	wkt := BoundWKT(b)

	assert.Contains(t, wkt, "POLYGON((")
	assert.Contains(t, wkt, "78.400000000 17.300000000")
	// Ring must close on the starting corner.
	assert.Equal(t, 2, countOccurrences(wkt, "78.400000000 17.300000000"))
}

func TestMultiPointWKT(t *testing.T) {
	wkt := MultiPointWKT([]orb.Point{{78.4, 17.3}, {78.5, 17.4}})
	assert.Equal(t, "MULTIPOINT((78.400000000 17.300000000),(78.500000000 17.400000000))", wkt)
}

func TestColor(t *testing.T) {
	assert.Equal(t, Palette[0], Color(0))
	assert.Equal(t, Palette[0], Color(10))
	assert.Equal(t, Palette[3], Color(13))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
