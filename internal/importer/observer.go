package importer

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Phase names one pass of an import run.
type Phase string

// Import phases in execution order.
const (
	PhaseAreas    Phase = "areas"
	PhaseSegments Phase = "segments"
	PhasePoints   Phase = "points"
)

// Observer receives progress and timing events from the importer. Calls
// to ObjectsScanned come from the scanning goroutine only. A pass skipped
// for lack of referenced ids is still reported, with zero kept objects and
// zero elapsed time.
type Observer interface {
	PassStarted(p Phase)
	ObjectsScanned(p Phase, total int64)
	PassFinished(p Phase, kept int, elapsed time.Duration)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) PassStarted(Phase)                      {}
func (NopObserver) ObjectsScanned(Phase, int64)            {}
func (NopObserver) PassFinished(Phase, int, time.Duration) {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

func (m MultiObserver) PassStarted(p Phase) {
	for _, o := range m {
		o.PassStarted(p)
	}
}

func (m MultiObserver) ObjectsScanned(p Phase, total int64) {
	for _, o := range m {
		o.ObjectsScanned(p, total)
	}
}

func (m MultiObserver) PassFinished(p Phase, kept int, elapsed time.Duration) {
	for _, o := range m {
		o.PassFinished(p, kept, elapsed)
	}
}

// LogObserver writes pass events to a zap logger, emitting scan progress
// at most once per interval.
type LogObserver struct {
	log      *zap.Logger
	progress rate.Sometimes
}

// NewLogObserver returns a LogObserver. interval <= 0 defaults to 5s.
func NewLogObserver(log *zap.Logger, interval time.Duration) *LogObserver {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &LogObserver{
		log:      log,
		progress: rate.Sometimes{Interval: interval},
	}
}

func (o *LogObserver) PassStarted(p Phase) {
	o.log.Info("pass started", zap.String("phase", string(p)))
}

func (o *LogObserver) ObjectsScanned(p Phase, total int64) {
	o.progress.Do(func() {
		o.log.Info("scanning", zap.String("phase", string(p)), zap.Int64("objects", total))
	})
}

func (o *LogObserver) PassFinished(p Phase, kept int, elapsed time.Duration) {
	o.log.Info("pass finished",
		zap.String("phase", string(p)),
		zap.Int("kept", kept),
		zap.Duration("elapsed", elapsed),
	)
}
