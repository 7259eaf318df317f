package model

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
)

func TestToDecimicro_Rounds(t *testing.T) {
	assert.Equal(t, int32(487758000), ToDecimicro(48.7758))
	assert.Equal(t, int32(91829000), ToDecimicro(9.1829))
	assert.Equal(t, int32(-1), ToDecimicro(-0.00000009))
	assert.Equal(t, int32(0), ToDecimicro(0))
}

func TestFromDecimicro(t *testing.T) {
	assert.InDelta(t, 48.7758, FromDecimicro(487758000), 1e-9)
	assert.InDelta(t, -180.0, FromDecimicro(-1800000000), 1e-9)
}

func TestArea_SegmentIDs(t *testing.T) {
	a := &Area{Outer: []osm.WayID{1, 2}, Inner: []osm.WayID{3}}
	assert.Equal(t, []osm.WayID{1, 2, 3}, a.SegmentIDs())

	empty := &Area{}
	assert.Empty(t, empty.SegmentIDs())
}

func TestTables_Stats(t *testing.T) {
	tables := NewTables()
	tables.Areas[1] = &Area{ID: 1}
	tables.Segments[10] = &Segment{ID: 10}
	tables.Segments[11] = &Segment{ID: 11}
	tables.Points[100] = &Point{ID: 100}

	assert.Equal(t, TableStats{Areas: 1, Segments: 2, Points: 1}, tables.Stats())
}
