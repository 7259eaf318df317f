package monitoring

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/admin-areas/internal/importer"
)

func runPasses(o importer.Observer) {
	o.PassStarted(importer.PhaseAreas)
	o.ObjectsScanned(importer.PhaseAreas, 65536)
	o.ObjectsScanned(importer.PhaseAreas, 70000)
	o.PassFinished(importer.PhaseAreas, 3, 2*time.Second)

	o.PassStarted(importer.PhaseSegments)
	o.ObjectsScanned(importer.PhaseSegments, 70000)
	o.PassFinished(importer.PhaseSegments, 12, time.Second)

	o.PassStarted(importer.PhasePoints)
	o.ObjectsScanned(importer.PhasePoints, 70000)
	o.PassFinished(importer.PhasePoints, 40, 500*time.Millisecond)
}

func TestMetrics_Observer(t *testing.T) {
	m := NewMetrics()
	runPasses(m)
	m.SetSurviving(2)

	assert.Equal(t, float64(70000), testutil.ToFloat64(m.scanned.WithLabelValues("areas")))
	assert.Equal(t, float64(70000), testutil.ToFloat64(m.scanned.WithLabelValues("points")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.kept.WithLabelValues("segments")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.surviving))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))
}

func TestMetrics_RepeatedPassRestartsDelta(t *testing.T) {
	m := NewMetrics()
	m.PassStarted(importer.PhaseSegments)
	m.ObjectsScanned(importer.PhaseSegments, 100)
	m.PassStarted(importer.PhaseSegments)
	m.ObjectsScanned(importer.PhaseSegments, 40)

	assert.Equal(t, float64(140), testutil.ToFloat64(m.scanned.WithLabelValues("segments")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	runPasses(m)

	path := filepath.Join(t.TempDir(), "admin_areas.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `admin_areas_objects_scanned_total{phase="areas"} 70000`)
	assert.Contains(t, string(data), `admin_areas_objects_kept{phase="points"} 40`)
}

func TestMetrics_WriteTextfileError(t *testing.T) {
	m := NewMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "out.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: write metrics")
}

func TestMetrics_PrivateRegistry(t *testing.T) {
	// Two instances must not collide on registration.
	a, b := NewMetrics(), NewMetrics()
	assert.NotSame(t, a.Registry(), b.Registry())
}
