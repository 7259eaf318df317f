package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/admin-areas/internal/export"
)

const inspectFixture = `Nodecount:2
1:487758000,91829000;
2:487800000,91900000;
Segmentcount:1
10,0:1,2;
Areacount:1
100,4,Baden-Württemberg:1,0,0
10
`

func TestInspectCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bw.graph")
	require.NoError(t, os.WriteFile(path, []byte(inspectFixture), 0o644))

	var out bytes.Buffer
	inspectCmd.SetOut(&out)
	defer inspectCmd.SetOut(nil)

	require.NoError(t, inspectCmd.RunE(inspectCmd, []string{path}))
	assert.Contains(t, out.String(), "Nodes:    2")
	assert.Contains(t, out.String(), "Segments: 1")
	assert.Contains(t, out.String(), "Areas:    1")
	assert.NotContains(t, out.String(), "LEVEL")
}

func TestInspectCmd_Missing(t *testing.T) {
	err := inspectCmd.RunE(inspectCmd, []string{filepath.Join(t.TempDir(), "nope.graph")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inspect: open")
}

func TestInspectCmd_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.graph")
	require.NoError(t, os.WriteFile(path, []byte("Nodecount:1\n"), 0o644))

	err := inspectCmd.RunE(inspectCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestInspectCmd_Args(t *testing.T) {
	assert.Error(t, inspectCmd.Args(inspectCmd, nil))
	assert.NoError(t, inspectCmd.Args(inspectCmd, []string{"a.graph"}))
}

func TestFormatGraphSummary_Areas(t *testing.T) {
	g := &export.Graph{
		Areas: []export.GraphArea{
			{ID: 100, Level: 4, Name: "Baden-Württemberg", Outer: []osm.WayID{10, 11}},
			{ID: 200, Level: 6, Name: "Stuttgart", Outer: []osm.WayID{12}, Inner: []osm.WayID{13}},
		},
	}

	var buf bytes.Buffer
	formatGraphSummary(&buf, g, true)

	out := buf.String()
	assert.Contains(t, out, "Areas:    2")
	assert.Contains(t, out, "LEVEL")
	assert.Contains(t, out, "Baden-Württemberg")
	assert.Contains(t, out, "Stuttgart")
}
