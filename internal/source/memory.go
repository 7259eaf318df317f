package source

import (
	"context"

	"github.com/paulmach/osm"
)

// Memory is a Source over objects held in memory.
type Memory struct {
	objs    []osm.Object
	rewinds int
}

var _ Source = (*Memory)(nil)

// NewMemory returns a source yielding objs in order.
func NewMemory(objs ...osm.Object) *Memory {
	return &Memory{objs: objs}
}

// Rewind implements Source.
func (m *Memory) Rewind() error {
	m.rewinds++
	return nil
}

// Rewinds returns how many times Rewind was called.
func (m *Memory) Rewinds() int { return m.rewinds }

// Scan implements Source.
func (m *Memory) Scan(ctx context.Context, want Kind) (osm.Scanner, error) {
	return filter(&sliceScanner{ctx: ctx, objs: m.objs, pos: -1}, want), nil
}

type sliceScanner struct {
	ctx  context.Context
	objs []osm.Object
	pos  int
	err  error
}

func (s *sliceScanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.pos++
	return s.pos < len(s.objs)
}

func (s *sliceScanner) Object() osm.Object { return s.objs[s.pos] }

func (s *sliceScanner) Err() error { return s.err }

func (s *sliceScanner) Close() error { return nil }
