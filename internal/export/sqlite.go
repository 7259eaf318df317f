package export

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"

	"github.com/paulmach/osm"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE points (
	id  INTEGER PRIMARY KEY,
	lat INTEGER NOT NULL,
	lon INTEGER NOT NULL,
	y   INTEGER NOT NULL,
	x   INTEGER NOT NULL
);

CREATE TABLE segments (
	id   INTEGER PRIMARY KEY,
	type INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE segment_points (
	segment_id INTEGER NOT NULL REFERENCES segments(id),
	seq        INTEGER NOT NULL,
	point_id   INTEGER NOT NULL REFERENCES points(id),
	PRIMARY KEY (segment_id, seq)
);

CREATE TABLE areas (
	id          INTEGER PRIMARY KEY,
	admin_level INTEGER NOT NULL,
	name        TEXT NOT NULL
);

CREATE TABLE area_segments (
	area_id    INTEGER NOT NULL REFERENCES areas(id),
	role       TEXT NOT NULL CHECK (role IN ('outer', 'inner')),
	seq        INTEGER NOT NULL,
	segment_id INTEGER NOT NULL REFERENCES segments(id),
	PRIMARY KEY (area_id, role, seq)
);

CREATE INDEX idx_area_segments_segment ON area_segments(segment_id);
CREATE INDEX idx_segment_points_point ON segment_points(point_id);
`

// SQLiteFile writes the snapshot into a fresh SQLite database. Point rows
// carry both the raw and the projected coordinates.
type SQLiteFile struct {
	Path string
}

// Write implements Sink. An existing file at Path is replaced.
func (s SQLiteFile) Write(ctx context.Context, snap *Snapshot) (err error) {
	if rmErr := os.Remove(s.Path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
		return eris.Wrapf(rmErr, "sqlite: remove %s", s.Path)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	defer func() {
		if cerr := db.Close(); cerr != nil && err == nil {
			err = eris.Wrap(cerr, "sqlite: close")
		}
	}()

	for _, pragma := range []string{
		"PRAGMA journal_mode=OFF",
		"PRAGMA synchronous=OFF",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "sqlite: create schema")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertSnapshot(ctx, tx, snap); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit")
	}
	return nil
}

func insertSnapshot(ctx context.Context, tx *sql.Tx, snap *Snapshot) error {
	stmts := map[string]string{
		"point":        "INSERT INTO points (id, lat, lon, y, x) VALUES (?, ?, ?, ?, ?)",
		"segment":      "INSERT INTO segments (id, type) VALUES (?, ?)",
		"segmentPoint": "INSERT INTO segment_points (segment_id, seq, point_id) VALUES (?, ?, ?)",
		"area":         "INSERT INTO areas (id, admin_level, name) VALUES (?, ?, ?)",
		"areaSegment":  "INSERT INTO area_segments (area_id, role, seq, segment_id) VALUES (?, ?, ?, ?)",
	}
	prepared := make(map[string]*sql.Stmt, len(stmts))
	for name, q := range stmts {
		st, err := tx.PrepareContext(ctx, q)
		if err != nil {
			return eris.Wrapf(err, "sqlite: prepare %s insert", name)
		}
		defer st.Close()
		prepared[name] = st
	}

	for _, id := range snap.Points {
		p := snap.Tables.Points[id]
		y, x := snap.Projection(p.Lat, p.Lon)
		if _, err := prepared["point"].ExecContext(ctx, int64(id), p.Lat, p.Lon, y, x); err != nil {
			return eris.Wrapf(err, "sqlite: insert point %d", id)
		}
	}

	for _, id := range snap.Segments {
		if _, err := prepared["segment"].ExecContext(ctx, int64(id), segmentType); err != nil {
			return eris.Wrapf(err, "sqlite: insert segment %d", id)
		}
		for seq, pid := range snap.Tables.Segments[id].Points {
			if _, err := prepared["segmentPoint"].ExecContext(ctx, int64(id), seq, int64(pid)); err != nil {
				return eris.Wrapf(err, "sqlite: insert point %d of segment %d", pid, id)
			}
		}
	}

	for _, id := range snap.Areas {
		a := snap.Tables.Areas[id]
		if _, err := prepared["area"].ExecContext(ctx, int64(id), int(a.Level), a.Name); err != nil {
			return eris.Wrapf(err, "sqlite: insert area %d", id)
		}
		for _, ring := range []struct {
			role string
			ids  []osm.WayID
		}{{"outer", a.Outer}, {"inner", a.Inner}} {
			for seq, sid := range ring.ids {
				if _, err := prepared["areaSegment"].ExecContext(ctx, int64(id), ring.role, seq, int64(sid)); err != nil {
					return eris.Wrapf(err, "sqlite: insert %s segment %d of area %d", ring.role, sid, id)
				}
			}
		}
	}

	return nil
}
