// Package completeness keeps the areas whose full dependency closure
// (segments, and every point of those segments) was imported.
//
// Missing references are an expected consequence of clipped extracts, so
// dropped areas are not reported as errors.
package completeness

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/paulmach/osm"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/admin-areas/internal/idset"
	"github.com/sells-group/admin-areas/internal/model"
)

// Filter returns the ids of the complete areas in ascending order. The
// tables are only read. workers <= 0 selects GOMAXPROCS.
func Filter(ctx context.Context, t *model.Tables, workers int) ([]osm.RelationID, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	segIDs := make([]osm.WayID, 0, len(t.Segments))
	for id := range t.Segments {
		segIDs = append(segIDs, id)
	}
	complete, err := scan(ctx, segIDs, workers, func(id osm.WayID) bool {
		return pointsPresent(t, t.Segments[id])
	})
	if err != nil {
		return nil, err
	}
	completeSegs := idset.Of(complete...)

	areaIDs := make([]osm.RelationID, 0, len(t.Areas))
	for id := range t.Areas {
		areaIDs = append(areaIDs, id)
	}
	kept, err := scan(ctx, areaIDs, workers, func(id osm.RelationID) bool {
		for _, sid := range t.Areas[id].SegmentIDs() {
			if !completeSegs.Contains(sid) {
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(kept)
	return kept, nil
}

// Check reports whether a single area is complete in t.
func Check(t *model.Tables, a *model.Area) bool {
	for _, sid := range a.SegmentIDs() {
		seg, ok := t.Segments[sid]
		if !ok || !pointsPresent(t, seg) {
			return false
		}
	}
	return true
}

func pointsPresent(t *model.Tables, seg *model.Segment) bool {
	for _, pid := range seg.Points {
		if _, ok := t.Points[pid]; !ok {
			return false
		}
	}
	return true
}

// scan evaluates keep over ids in contiguous chunks, one per worker, and
// returns the ids for which it held.
func scan[T any](ctx context.Context, ids []T, workers int, keep func(T) bool) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	chunk := (len(ids) + workers - 1) / workers

	var (
		mu  sync.Mutex
		out = make([]T, 0, len(ids))
	)

	g, gCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(ids); start += chunk {
		part := ids[start:min(start+chunk, len(ids))]
		g.Go(func() error {
			var local []T
			for i, id := range part {
				if i%1024 == 0 {
					if err := gCtx.Err(); err != nil {
						return err
					}
				}
				if keep(id) {
					local = append(local, id)
				}
			}
			mu.Lock()
			out = append(out, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
