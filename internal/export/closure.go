// Package export computes the minimal dependency closure of the surviving
// areas and writes it out as a snapshot.
package export

import (
	"slices"

	"github.com/paulmach/osm"
	"github.com/rotisserie/eris"

	"github.com/sells-group/admin-areas/internal/idset"
	"github.com/sells-group/admin-areas/internal/model"
)

// Closure lists the ids a snapshot needs, each in ascending order.
type Closure struct {
	Areas    []osm.RelationID
	Segments []osm.WayID
	Points   []osm.NodeID
}

// Resolve computes the segments referenced by areaIDs and the points
// referenced by those segments. Every id must be present in t; callers pass
// areas that survived the completeness filter.
func Resolve(areaIDs []osm.RelationID, t *model.Tables) (*Closure, error) {
	areas := slices.Clone(areaIDs)
	slices.Sort(areas)
	areas = slices.Compact(areas)

	segs := make(idset.Set[osm.WayID])
	for _, id := range areas {
		a, ok := t.Areas[id]
		if !ok {
			return nil, eris.Errorf("export: unknown area %d", id)
		}
		for _, sid := range a.SegmentIDs() {
			segs.Add(sid)
		}
	}

	pts := make(idset.Set[osm.NodeID])
	for sid := range segs {
		s, ok := t.Segments[sid]
		if !ok {
			return nil, eris.Errorf("export: segment %d not imported", sid)
		}
		for _, pid := range s.Points {
			if _, ok := t.Points[pid]; !ok {
				return nil, eris.Errorf("export: point %d of segment %d not imported", pid, sid)
			}
			pts.Add(pid)
		}
	}

	return &Closure{
		Areas:    areas,
		Segments: segs.Sorted(),
		Points:   pts.Sorted(),
	}, nil
}

// Snapshot is everything a sink needs to write one export.
type Snapshot struct {
	*Closure
	Tables     *model.Tables
	Projection Projection
}

// NewSnapshot resolves the closure of areaIDs. A nil projection selects
// Identity.
func NewSnapshot(areaIDs []osm.RelationID, t *model.Tables, proj Projection) (*Snapshot, error) {
	c, err := Resolve(areaIDs, t)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		proj = Identity
	}
	return &Snapshot{Closure: c, Tables: t, Projection: proj}, nil
}
