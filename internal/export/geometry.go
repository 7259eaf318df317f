package export

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/admin-areas/internal/model"
)

const srid = 4326

// AreaGeometry builds a WGS84 MultiLineString holding one line per ring
// segment, outer segments first. Returns nil for areas without rings.
func (s *Snapshot) AreaGeometry(a *model.Area) (*geom.MultiLineString, error) {
	ids := a.SegmentIDs()
	if len(ids) == 0 {
		return nil, nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(srid)
	for _, sid := range ids {
		seg, ok := s.Tables.Segments[sid]
		if !ok {
			return nil, eris.Errorf("export: area %d: segment %d not imported", a.ID, sid)
		}

		flat := make([]float64, 0, len(seg.Points)*2)
		for _, pid := range seg.Points {
			p, ok := s.Tables.Points[pid]
			if !ok {
				return nil, eris.Errorf("export: area %d: point %d not imported", a.ID, pid)
			}
			flat = append(flat, model.FromDecimicro(p.Lon), model.FromDecimicro(p.Lat))
		}

		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("export: skipping malformed segment",
				zap.Int64("area", int64(a.ID)),
				zap.Int64("segment", int64(sid)),
				zap.Error(err),
			)
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil, nil
	}
	return mls, nil
}
