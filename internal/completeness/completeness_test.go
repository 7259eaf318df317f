package completeness

import (
	"context"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/admin-areas/internal/model"
)

func sampleTables() *model.Tables {
	t := model.NewTables()
	for _, id := range []osm.NodeID{1, 2, 3, 4} {
		t.Points[id] = &model.Point{ID: id}
	}
	t.Segments[10] = &model.Segment{ID: 10, Points: []osm.NodeID{1, 2, 3, 1}}
	t.Segments[11] = &model.Segment{ID: 11, Points: []osm.NodeID{4, 2}}
	// Dangling point 8.
	t.Segments[12] = &model.Segment{ID: 12, Points: []osm.NodeID{3, 8}}

	t.Areas[100] = &model.Area{ID: 100, Outer: []osm.WayID{10}, Inner: []osm.WayID{11}}
	// Missing segment 99.
	t.Areas[200] = &model.Area{ID: 200, Outer: []osm.WayID{10, 99}}
	// Segment with a dangling point, referenced as inner ring.
	t.Areas[300] = &model.Area{ID: 300, Outer: []osm.WayID{10}, Inner: []osm.WayID{12}}
	// Area without any ring is vacuously complete.
	t.Areas[400] = &model.Area{ID: 400}
	t.Areas[50] = &model.Area{ID: 50, Outer: []osm.WayID{11}}
	return t
}

func TestFilter_KeepsOnlyCompleteAreas(t *testing.T) {
	tables := sampleTables()

	got, err := Filter(context.Background(), tables, 3)
	require.NoError(t, err)
	assert.Equal(t, []osm.RelationID{50, 100, 400}, got)
}

func TestFilter_ClosureProperty(t *testing.T) {
	tables := sampleTables()
	kept, err := Filter(context.Background(), tables, 2)
	require.NoError(t, err)

	keptSet := make(map[osm.RelationID]bool)
	for _, id := range kept {
		keptSet[id] = true
		for _, sid := range tables.Areas[id].SegmentIDs() {
			seg, ok := tables.Segments[sid]
			require.True(t, ok, "area %d references missing segment %d", id, sid)
			for _, pid := range seg.Points {
				assert.Contains(t, tables.Points, pid)
			}
		}
	}

	for id, a := range tables.Areas {
		assert.Equal(t, keptSet[id], Check(tables, a), "area %d", id)
	}
}

func TestFilter_DeterministicAndReadOnly(t *testing.T) {
	tables := sampleTables()
	before := tables.Stats()

	first, err := Filter(context.Background(), tables, 1)
	require.NoError(t, err)
	second, err := Filter(context.Background(), tables, 8)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, tables.Stats())
	assert.Equal(t, []osm.NodeID{3, 8}, tables.Segments[12].Points)
}

func TestFilter_Empty(t *testing.T) {
	got, err := Filter(context.Background(), model.NewTables(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Filter(ctx, sampleTables(), 2)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCheck(t *testing.T) {
	tables := sampleTables()
	assert.True(t, Check(tables, tables.Areas[100]))
	assert.False(t, Check(tables, tables.Areas[200]))
	assert.False(t, Check(tables, tables.Areas[300]))
}
