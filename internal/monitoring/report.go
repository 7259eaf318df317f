package monitoring

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/admin-areas/internal/importer"
	"github.com/sells-group/admin-areas/internal/model"
)

// PhaseReport summarises one import pass.
type PhaseReport struct {
	Phase    importer.Phase `yaml:"phase"`
	Scanned  int64          `yaml:"scanned"`
	Kept     int            `yaml:"kept"`
	Duration time.Duration  `yaml:"duration"`
}

// Report is the summary of one extract run.
type Report struct {
	RunID      string           `yaml:"run_id"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at,omitempty"`
	Input      string           `yaml:"input"`
	Output     string           `yaml:"output,omitempty"`
	Format     string           `yaml:"format"`
	MaxLevel   uint8            `yaml:"max_admin_level"`
	Phases     []PhaseReport    `yaml:"phases"`
	Tables     model.TableStats `yaml:"tables"`
	Complete   int              `yaml:"complete_areas"`
	Exported   model.TableStats `yaml:"exported"`

	mu sync.Mutex
}

var _ importer.Observer = (*Report)(nil)

// NewReport starts a report with a fresh run id.
func NewReport(input, output, format string, maxLevel uint8) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Input:     input,
		Output:    output,
		Format:    format,
		MaxLevel:  maxLevel,
	}
}

func (r *Report) PassStarted(p importer.Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Phases = append(r.Phases, PhaseReport{Phase: p})
}

func (r *Report) ObjectsScanned(p importer.Phase, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pr := r.current(p); pr != nil {
		pr.Scanned = total
	}
}

func (r *Report) PassFinished(p importer.Phase, kept int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pr := r.current(p); pr != nil {
		pr.Kept = kept
		pr.Duration = elapsed
	}
}

// current returns the latest entry for p. Callers hold mu.
func (r *Report) current(p importer.Phase) *PhaseReport {
	for i := len(r.Phases) - 1; i >= 0; i-- {
		if r.Phases[i].Phase == p {
			return &r.Phases[i]
		}
	}
	return nil
}

// Finish records the table sizes and the export result.
func (r *Report) Finish(tables, exported model.TableStats, complete int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tables = tables
	r.Exported = exported
	r.Complete = complete
	r.FinishedAt = time.Now().UTC()
}

// Table renders the per-phase summary printed after an extract.
func (r *Report) Table() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 1, ' ', tabwriter.AlignRight|tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "Imported\t Number\t Time\t")
	for _, pr := range r.Phases {
		_, _ = fmt.Fprintf(w, "%s\t %d\t %s\t\n", phaseLabel(pr.Phase), pr.Kept, pr.Duration.Round(time.Millisecond))
	}
	_ = w.Flush()

	fmt.Fprintf(&b, "%d of %d areas complete; exported %d areas, %d segments, %d points\n",
		r.Complete, r.Tables.Areas, r.Exported.Areas, r.Exported.Segments, r.Exported.Points)
	return b.String()
}

func phaseLabel(p importer.Phase) string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// WriteYAML writes the report to path.
func (r *Report) WriteYAML(path string) error {
	r.mu.Lock()
	data, err := yaml.Marshal(r)
	r.mu.Unlock()
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "monitoring: write report %s", path)
	}
	return nil
}
