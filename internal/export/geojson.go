package export

import (
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// GeoJSONFile writes one MultiLineString feature per area with rings. Coordinates are
// WGS84 degrees; the snapshot projection does not apply.
type GeoJSONFile struct {
	Path string
}

// Write implements Sink.
func (g GeoJSONFile) Write(_ context.Context, s *Snapshot) error {
	return writeFile(g.Path, func(w io.Writer) error { return WriteGeoJSON(w, s) })
}

// WriteGeoJSON encodes the snapshot areas as a FeatureCollection.
func WriteGeoJSON(w io.Writer, s *Snapshot) error {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(s.Areas))}

	for _, id := range s.Areas {
		a := s.Tables.Areas[id]
		g, err := s.AreaGeometry(a)
		if err != nil {
			return err
		}
		if g == nil {
			zap.L().Debug("export: area without rings omitted from geojson", zap.Int64("area", int64(id)))
			continue
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       strconv.FormatInt(int64(id), 10),
			Geometry: g,
			Properties: map[string]any{
				"osm_id":      int64(id),
				"admin_level": a.Level,
				"name":        a.Name,
				"outer":       len(a.Outer),
				"inner":       len(a.Inner),
			},
		})
	}

	if err := json.NewEncoder(w).Encode(fc); err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	return nil
}
