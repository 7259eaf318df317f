package export

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/admin-areas/internal/db"
)

// PostGISTable is the table the PostGIS sink replaces.
const PostGISTable = "admin_areas"

var postgisColumns = []string{"osm_id", "admin_level", "name", "outer_count", "inner_count", "the_geom"}

// PostGIS replaces <Schema>.admin_areas with one row per area. Geometries
// are WGS84 MultiLineStrings; the projection is not applied.
type PostGIS struct {
	Pool      db.Pool
	Schema    string
	BatchSize int
}

// Write implements Sink.
func (p PostGIS) Write(ctx context.Context, snap *Snapshot) error {
	log := zap.L().With(zap.String("component", "export.postgis"), zap.String("schema", p.Schema))

	if err := p.ensureTable(ctx); err != nil {
		return err
	}

	rows := make([][]any, 0, len(snap.Areas))
	for _, id := range snap.Areas {
		a := snap.Tables.Areas[id]
		g, err := snap.AreaGeometry(a)
		if err != nil {
			return err
		}

		var wkb []byte
		if g != nil {
			if wkb, err = ewkb.Marshal(g, ewkb.NDR); err != nil {
				return eris.Wrapf(err, "export: encode geometry of area %d", id)
			}
		}
		rows = append(rows, []any{int64(id), int16(a.Level), a.Name, len(a.Outer), len(a.Inner), wkb})
	}

	n, err := db.ReplaceAll(ctx, p.Pool, db.ReplaceConfig{
		Schema:    p.Schema,
		Table:     PostGISTable,
		Columns:   postgisColumns,
		BatchSize: p.BatchSize,
	}, rows)
	if err != nil {
		return err
	}

	log.Info("admin areas loaded", zap.Int64("rows", n))
	return nil
}

func (p PostGIS) ensureTable(ctx context.Context) error {
	table := db.ReplaceConfig{Schema: p.Schema, Table: PostGISTable}.Identifier().Sanitize()

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	osm_id      BIGINT PRIMARY KEY,
	admin_level SMALLINT NOT NULL,
	name        TEXT NOT NULL,
	outer_count INTEGER NOT NULL,
	inner_count INTEGER NOT NULL,
	the_geom    geometry(MultiLineString, 4326)
)`, table),
	}
	if p.Schema != "" {
		stmts = append([]string{"CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{p.Schema}.Sanitize()}, stmts...)
	}

	for _, stmt := range stmts {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "export: ensure %s", table)
		}
	}
	return nil
}
