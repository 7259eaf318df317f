package model

import "github.com/paulmach/osm"

// Tables are the identifier-keyed results of one import run. They are
// populated by the importer and read-only afterwards.
type Tables struct {
	Areas    map[osm.RelationID]*Area
	Segments map[osm.WayID]*Segment
	Points   map[osm.NodeID]*Point
}

// NewTables returns empty tables.
func NewTables() *Tables {
	return &Tables{
		Areas:    make(map[osm.RelationID]*Area),
		Segments: make(map[osm.WayID]*Segment),
		Points:   make(map[osm.NodeID]*Point),
	}
}

// TableStats counts the rows of each table.
type TableStats struct {
	Areas    int `yaml:"areas"`
	Segments int `yaml:"segments"`
	Points   int `yaml:"points"`
}

// Stats returns the current row counts.
func (t *Tables) Stats() TableStats {
	return TableStats{
		Areas:    len(t.Areas),
		Segments: len(t.Segments),
		Points:   len(t.Points),
	}
}
