// Package model holds the boundary graph types shared by the importer,
// the completeness filter and the exporters.
package model

import (
	"math"

	"github.com/paulmach/osm"
)

// Point is a node with decimicro-degree (deg × 10^7) coordinates.
type Point struct {
	ID  osm.NodeID
	Lat int32
	Lon int32
}

// Segment is a boundary polyline. Point order defines the path.
type Segment struct {
	ID     osm.WayID
	Points []osm.NodeID
}

// Area is an administrative boundary built from a relation.
type Area struct {
	ID    osm.RelationID
	Level uint8
	Name  string
	Outer []osm.WayID
	Inner []osm.WayID
}

// SegmentIDs returns the outer segment ids followed by the inner ones.
func (a *Area) SegmentIDs() []osm.WayID {
	ids := make([]osm.WayID, 0, len(a.Outer)+len(a.Inner))
	ids = append(ids, a.Outer...)
	return append(ids, a.Inner...)
}

// ToDecimicro converts degrees to the fixed-point representation.
func ToDecimicro(deg float64) int32 {
	return int32(math.Round(deg * 1e7))
}

// FromDecimicro converts a fixed-point coordinate back to degrees.
func FromDecimicro(v int32) float64 {
	return float64(v) / 1e7
}
