package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapefile_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "areas.shp")
	require.NoError(t, Shapefile{Path: path}.Write(context.Background(), fixtureSnapshot(t)))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var names []string
	for _, f := range r.Fields() {
		names = append(names, strings.TrimRight(f.String(), "\x00"))
	}
	assert.Equal(t, []string{"OSM_ID", "LEVEL", "NAME", "OUTER", "INNER"}, names)

	var ids, areaNames []string
	var numParts []int32
	for r.Next() {
		_, shape := r.Shape()
		pl, ok := shape.(*shp.PolyLine)
		require.True(t, ok)
		numParts = append(numParts, pl.NumParts)
		ids = append(ids, strings.TrimSpace(r.Attribute(0)))
		areaNames = append(areaNames, strings.TrimSpace(r.Attribute(2)))
	}

	assert.Equal(t, []string{"100", "200"}, ids)
	assert.Equal(t, []int32{2, 2}, numParts)
	assert.Equal(t, "Stuttgart", areaNames[0])
}

func TestShapefile_WriteSidecars(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Shapefile{Path: filepath.Join(dir, "areas.shp")}.Write(context.Background(), fixtureSnapshot(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var files []string
	for _, e := range entries {
		files = append(files, e.Name())
	}
	assert.ElementsMatch(t, []string{"areas.shp", "areas.shx", "areas.dbf", "areas.prj", "areas.cpg"}, files)

	prj, err := os.ReadFile(filepath.Join(dir, "areas.prj"))
	require.NoError(t, err)
	assert.Contains(t, string(prj), "GCS_WGS_1984")
}

func TestShapefile_WriteWithoutExtension(t *testing.T) {
	base := filepath.Join(t.TempDir(), "areas")
	require.NoError(t, Shapefile{Path: base}.Write(context.Background(), fixtureSnapshot(t)))

	r, err := shp.Open(base + ".shp")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	assert.Len(t, r.Fields(), 5)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", truncateUTF8("abc", 5))
	assert.Equal(t, "ab", truncateUTF8("abc", 2))
	// "ü" is two bytes; cutting inside it drops the whole rune.
	assert.Equal(t, "T", truncateUTF8("Tü", 2))
	assert.Equal(t, "Tü", truncateUTF8("Tü", 3))
}
