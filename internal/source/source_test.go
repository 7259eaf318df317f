package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, src Source, want Kind) []osm.Object {
	t.Helper()
	sc, err := src.Scan(context.Background(), want)
	require.NoError(t, err)
	defer func() { _ = sc.Close() }()

	var objs []osm.Object
	for sc.Scan() {
		objs = append(objs, sc.Object())
	}
	require.NoError(t, sc.Err())
	return objs
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"region-latest.osm.pbf", FormatPBF},
		{"REGION.PBF", FormatPBF},
		{"small.osm", FormatXML},
		{"dump.xml", FormatXML},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.path)
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}

	_, err := DetectFormat("areas.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extract")
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.osm.pbf"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: open")
}

func TestFile_XMLScanByKind(t *testing.T) {
	src, err := Open("testdata/small.osm", Options{})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	assert.Equal(t, FormatXML, src.Format())

	rels := collect(t, src, Relations)
	require.Len(t, rels, 1)
	rel, ok := rels[0].(*osm.Relation)
	require.True(t, ok)
	assert.Equal(t, osm.RelationID(100), rel.ID)
	assert.Equal(t, "Stuttgart", rel.Tags.Find("name"))

	require.NoError(t, src.Rewind())
	ways := collect(t, src, Ways)
	require.Len(t, ways, 1)
	assert.Equal(t, osm.WayID(10), ways[0].(*osm.Way).ID)

	require.NoError(t, src.Rewind())
	nodes := collect(t, src, Nodes)
	require.Len(t, nodes, 2)
	assert.InDelta(t, 48.7758, nodes[0].(*osm.Node).Lat, 1e-9)
}

func TestFile_RewindIsRepeatable(t *testing.T) {
	src, err := Open("testdata/small.osm", Options{})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	for i := 0; i < 3; i++ {
		require.NoError(t, src.Rewind())
		assert.Len(t, collect(t, src, All), 4)
	}
}

func TestFile_PBFScanByKind(t *testing.T) {
	src, err := Open("testdata/small.osm.pbf", Options{Procs: 2})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	assert.Equal(t, FormatPBF, src.Format())

	rels := collect(t, src, Relations)
	require.Len(t, rels, 1)
	rel, ok := rels[0].(*osm.Relation)
	require.True(t, ok)
	assert.Equal(t, osm.RelationID(100), rel.ID)
	assert.Equal(t, "Stuttgart", rel.Tags.Find("name"))
	assert.Equal(t, "6", rel.Tags.Find("admin_level"))
	require.Len(t, rel.Members, 1)
	assert.Equal(t, osm.TypeWay, rel.Members[0].Type)
	assert.Equal(t, int64(10), rel.Members[0].Ref)
	assert.Equal(t, "outer", rel.Members[0].Role)

	require.NoError(t, src.Rewind())
	ways := collect(t, src, Ways)
	require.Len(t, ways, 1)
	way := ways[0].(*osm.Way)
	assert.Equal(t, osm.WayID(10), way.ID)
	assert.Equal(t, osm.NodeID(1), way.Nodes[0].ID)
	assert.Equal(t, osm.NodeID(2), way.Nodes[1].ID)

	require.NoError(t, src.Rewind())
	nodes := collect(t, src, Nodes)
	require.Len(t, nodes, 2)
	assert.Equal(t, osm.NodeID(1), nodes[0].(*osm.Node).ID)
	assert.InDelta(t, 48.7758, nodes[0].(*osm.Node).Lat, 1e-7)
	assert.InDelta(t, 9.19, nodes[1].(*osm.Node).Lon, 1e-7)

	require.NoError(t, src.Rewind())
	assert.Len(t, collect(t, src, Ways|Relations), 2)
}

func TestFile_PBFRewindIsRepeatable(t *testing.T) {
	src, err := Open("testdata/small.osm.pbf", Options{})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	for i := 0; i < 3; i++ {
		require.NoError(t, src.Rewind())
		assert.Len(t, collect(t, src, All), 4)
	}
}

func TestFile_PBFRewindMidStream(t *testing.T) {
	src, err := Open("testdata/small.osm.pbf", Options{Procs: 1})
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	sc, err := src.Scan(context.Background(), All)
	require.NoError(t, err)
	require.True(t, sc.Scan())
	assert.Equal(t, osm.NodeID(1), sc.Object().(*osm.Node).ID)
	require.NoError(t, sc.Close())

	require.NoError(t, src.Rewind())
	objs := collect(t, src, All)
	require.Len(t, objs, 4)
	assert.Equal(t, osm.NodeID(1), objs[0].(*osm.Node).ID)
	assert.Equal(t, osm.RelationID(100), objs[3].(*osm.Relation).ID)
}

func TestFile_RewindAfterClose(t *testing.T) {
	src, err := Open("testdata/small.osm", Options{})
	require.NoError(t, err)
	require.NoError(t, src.Close())

	err = src.Rewind()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source: rewind")
}

func TestOpen_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := Open(path, Options{})
	require.Error(t, err)
}

func TestMemory_ScanFiltersKinds(t *testing.T) {
	src := NewMemory(
		&osm.Node{ID: 1},
		&osm.Way{ID: 10},
		&osm.Relation{ID: 100},
		&osm.Node{ID: 2},
	)

	assert.Len(t, collect(t, src, Nodes), 2)
	assert.Len(t, collect(t, src, Ways|Relations), 2)
	assert.Len(t, collect(t, src, All), 4)

	require.NoError(t, src.Rewind())
	require.NoError(t, src.Rewind())
	assert.Equal(t, 2, src.Rewinds())
}

func TestMemory_ScanStopsOnCancel(t *testing.T) {
	src := NewMemory(&osm.Node{ID: 1}, &osm.Node{ID: 2})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc, err := src.Scan(ctx, All)
	require.NoError(t, err)
	assert.False(t, sc.Scan())
	assert.ErrorIs(t, sc.Err(), context.Canceled)
}
