// Package importer resolves administrative areas, their boundary segments
// and the segments' points from an extract in three sequential full passes.
//
// An area's segments are only known once the area has been decoded, and a
// segment's points only once the segment has been decoded, so each pass is
// filtered by the identifier set collected during the previous one.
package importer

import (
	"context"
	"runtime"
	"time"

	"github.com/paulmach/osm"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/admin-areas/internal/classify"
	"github.com/sells-group/admin-areas/internal/idset"
	"github.com/sells-group/admin-areas/internal/model"
	"github.com/sells-group/admin-areas/internal/source"
)

const progressEvery = 1 << 16

// Importer runs the area, segment and point passes.
type Importer struct {
	classifier classify.Classifier
	workers    int
	staged     bool
	observer   Observer
	log        *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithWorkers sets the number of transform goroutines per pass.
// n <= 0 selects GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithObserver installs a progress observer.
func WithObserver(o Observer) Option {
	return func(im *Importer) {
		if o != nil {
			im.observer = o
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// WithStagedSegments resolves inner and outer segments in two separate
// passes instead of one pass over the union of both id sets.
func WithStagedSegments(staged bool) Option {
	return func(im *Importer) { im.staged = staged }
}

// New returns an Importer that selects areas with c.
func New(c classify.Classifier, opts ...Option) *Importer {
	im := &Importer{
		classifier: c,
		workers:    runtime.GOMAXPROCS(0),
		observer:   NopObserver{},
		log:        zap.L().With(zap.String("component", "importer")),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import runs all three passes over src and returns the unfiltered tables.
// Any open, rewind or decode failure aborts the run.
func (im *Importer) Import(ctx context.Context, src source.Source) (*model.Tables, error) {
	inner := idset.NewAggregator[osm.WayID](0)
	outer := idset.NewAggregator[osm.WayID](0)
	points := idset.NewAggregator[osm.NodeID](0)
	// Close is idempotent; this releases the collectors on error paths.
	defer inner.Close()
	defer outer.Close()
	defer points.Close()

	tables := model.NewTables()

	areas, err := im.importAreas(ctx, src, inner, outer)
	if err != nil {
		return nil, err
	}
	tables.Areas = areas

	inner.Close()
	outer.Close()
	innerIDs := inner.Wait()
	outerIDs := outer.Wait()

	if im.staged {
		for _, ids := range []idset.Set[osm.WayID]{innerIDs, outerIDs} {
			segs, err := im.importSegments(ctx, src, ids, points)
			if err != nil {
				return nil, err
			}
			for id, s := range segs {
				tables.Segments[id] = s
			}
		}
	} else {
		segs, err := im.importSegments(ctx, src, innerIDs.Union(outerIDs), points)
		if err != nil {
			return nil, err
		}
		tables.Segments = segs
	}

	points.Close()
	pointIDs := points.Wait()

	pts, err := im.importPoints(ctx, src, pointIDs)
	if err != nil {
		return nil, err
	}
	tables.Points = pts

	im.log.Info("import complete",
		zap.Int("areas", len(tables.Areas)),
		zap.Int("segments", len(tables.Segments)),
		zap.Int("points", len(tables.Points)),
	)
	return tables, nil
}

func (im *Importer) importAreas(ctx context.Context, src source.Source, inner, outer idset.Sink[osm.WayID]) (map[osm.RelationID]*model.Area, error) {
	shards := newShards[osm.RelationID, *model.Area](im.workers)

	err := im.pass(ctx, src, PhaseAreas, source.Relations, func(w int, obj osm.Object) {
		rel, ok := obj.(*osm.Relation)
		if !ok || !im.classifier.IsValid(rel.Tags) {
			return
		}
		if area, ok := im.classifier.ToArea(rel, inner, outer); ok {
			shards[w][area.ID] = area
		}
	}, func() int { return shardLen(shards) })
	if err != nil {
		return nil, err
	}
	return merge(shards), nil
}

func (im *Importer) importSegments(ctx context.Context, src source.Source, ids idset.Set[osm.WayID], points idset.Sink[osm.NodeID]) (map[osm.WayID]*model.Segment, error) {
	shards := newShards[osm.WayID, *model.Segment](im.workers)
	if ids.Len() == 0 {
		im.log.Debug("no segment ids referenced, skipping pass")
		im.skipPass(PhaseSegments)
		return merge(shards), nil
	}

	err := im.pass(ctx, src, PhaseSegments, source.Ways, func(w int, obj osm.Object) {
		way, ok := obj.(*osm.Way)
		if !ok || !ids.Contains(way.ID) {
			return
		}
		seg := &model.Segment{ID: way.ID, Points: make([]osm.NodeID, len(way.Nodes))}
		for i, wn := range way.Nodes {
			seg.Points[i] = wn.ID
			points.Push(wn.ID)
		}
		shards[w][seg.ID] = seg
	}, func() int { return shardLen(shards) })
	if err != nil {
		return nil, err
	}
	return merge(shards), nil
}

func (im *Importer) importPoints(ctx context.Context, src source.Source, ids idset.Set[osm.NodeID]) (map[osm.NodeID]*model.Point, error) {
	shards := newShards[osm.NodeID, *model.Point](im.workers)
	if ids.Len() == 0 {
		im.log.Debug("no point ids referenced, skipping pass")
		im.skipPass(PhasePoints)
		return merge(shards), nil
	}

	err := im.pass(ctx, src, PhasePoints, source.Nodes, func(w int, obj osm.Object) {
		node, ok := obj.(*osm.Node)
		if !ok || !ids.Contains(node.ID) {
			return
		}
		shards[w][node.ID] = &model.Point{
			ID:  node.ID,
			Lat: model.ToDecimicro(node.Lat),
			Lon: model.ToDecimicro(node.Lon),
		}
	}, func() int { return shardLen(shards) })
	if err != nil {
		return nil, err
	}
	return merge(shards), nil
}

// pass rewinds src and streams the objects of the wanted kind to the
// worker pool. fn is called concurrently; w identifies the calling worker
// so it can write to its own shard without locking.
func (im *Importer) pass(ctx context.Context, src source.Source, phase Phase, want source.Kind, fn func(w int, obj osm.Object), kept func() int) error {
	start := time.Now()
	im.observer.PassStarted(phase)

	if err := src.Rewind(); err != nil {
		return eris.Wrapf(err, "importer: %s pass", phase)
	}

	g, gCtx := errgroup.WithContext(ctx)

	sc, err := src.Scan(gCtx, want)
	if err != nil {
		return eris.Wrapf(err, "importer: %s pass", phase)
	}

	objs := make(chan osm.Object, im.workers*64)

	g.Go(func() error {
		defer close(objs)
		var n int64
		for sc.Scan() {
			select {
			case objs <- sc.Object():
			case <-gCtx.Done():
				return gCtx.Err()
			}
			n++
			if n%progressEvery == 0 {
				im.observer.ObjectsScanned(phase, n)
			}
		}
		im.observer.ObjectsScanned(phase, n)
		if err := sc.Err(); err != nil {
			return eris.Wrapf(err, "importer: decode %s pass", phase)
		}
		return nil
	})

	for w := 0; w < im.workers; w++ {
		g.Go(func() error {
			for obj := range objs {
				fn(w, obj)
			}
			return nil
		})
	}

	err = g.Wait()
	if closeErr := sc.Close(); closeErr != nil && err == nil {
		err = eris.Wrapf(closeErr, "importer: close %s scanner", phase)
	}
	if err != nil {
		return err
	}

	im.observer.PassFinished(phase, kept(), time.Since(start))
	return nil
}

// skipPass reports a pass that had nothing to resolve as an empty one.
func (im *Importer) skipPass(phase Phase) {
	im.observer.PassStarted(phase)
	im.observer.PassFinished(phase, 0, 0)
}

func newShards[K comparable, V any](n int) []map[K]V {
	shards := make([]map[K]V, n)
	for i := range shards {
		shards[i] = make(map[K]V)
	}
	return shards
}

func shardLen[K comparable, V any](shards []map[K]V) int {
	var n int
	for _, s := range shards {
		n += len(s)
	}
	return n
}

// merge folds the worker shards into one table. Insertion order does not
// matter: a given id is only ever produced from the same source object.
func merge[K comparable, V any](shards []map[K]V) map[K]V {
	out := make(map[K]V, shardLen(shards))
	for _, s := range shards {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
