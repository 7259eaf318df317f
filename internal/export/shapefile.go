package export

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/admin-areas/internal/model"
)

const shpNameLen = 254

// wgs84PRJ is the ESRI WKT for EPSG:4326.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Shapefile writes one PolyLine record per area with rings, one part per
// segment, in WGS84 degrees.
type Shapefile struct {
	Path string
}

// Write implements Sink.
func (s Shapefile) Write(_ context.Context, snap *Snapshot) error {
	w, err := shp.Create(s.Path, shp.POLYLINE)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", s.Path)
	}
	closed := false
	defer func() {
		if !closed {
			w.Close()
		}
	}()

	if err := w.SetFields([]shp.Field{
		shp.NumberField("OSM_ID", 19),
		shp.NumberField("LEVEL", 3),
		shp.StringField("NAME", shpNameLen),
		shp.NumberField("OUTER", 9),
		shp.NumberField("INNER", 9),
	}); err != nil {
		return eris.Wrap(err, "export: shapefile fields")
	}

	var skipped int
	for _, id := range snap.Areas {
		a := snap.Tables.Areas[id]
		line := snap.polyLine(a)
		if line == nil {
			skipped++
			continue
		}

		row := int(w.Write(line))
		// Same order as SetFields above.
		attrs := []any{int(id), int(a.Level), truncateUTF8(a.Name, shpNameLen), len(a.Outer), len(a.Inner)}
		for field, v := range attrs {
			if err := w.WriteAttribute(row, field, v); err != nil {
				return eris.Wrapf(err, "export: shapefile attribute %d of area %d", field, id)
			}
		}
	}

	if skipped > 0 {
		zap.L().Debug("export: areas without rings omitted from shapefile", zap.Int("skipped", skipped))
	}

	w.Close()
	closed = true
	return s.finishSidecars()
}

func (s Shapefile) base() string {
	if strings.HasSuffix(strings.ToLower(s.Path), ".shp") {
		return s.Path[:len(s.Path)-4]
	}
	return s.Path
}

// finishSidecars moves the attribute table to <base>.dbf (go-shp writes
// it as <base>dbf) and adds the projection and code page files.
func (s Shapefile) finishSidecars() error {
	base := s.base()
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrap(err, "export: shapefile attribute table")
	}
	if err := os.WriteFile(base+".prj", []byte(wgs84PRJ), 0o644); err != nil {
		return eris.Wrap(err, "export: shapefile projection")
	}
	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o644); err != nil {
		return eris.Wrap(err, "export: shapefile code page")
	}
	return nil
}

func (s *Snapshot) polyLine(a *model.Area) *shp.PolyLine {
	ids := a.SegmentIDs()
	if len(ids) == 0 {
		return nil
	}
	parts := make([][]shp.Point, 0, len(ids))
	for _, sid := range ids {
		seg := s.Tables.Segments[sid]
		part := make([]shp.Point, len(seg.Points))
		for i, pid := range seg.Points {
			p := s.Tables.Points[pid]
			part[i] = shp.Point{X: model.FromDecimicro(p.Lon), Y: model.FromDecimicro(p.Lat)}
		}
		parts = append(parts, part)
	}
	return shp.NewPolyLine(parts)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
