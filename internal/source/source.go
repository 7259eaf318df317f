// Package source adapts OpenStreetMap extracts to the sequential,
// rewindable object stream consumed by the importer.
package source

import (
	"context"

	"github.com/paulmach/osm"
)

// Kind selects which object types a scan yields.
type Kind uint8

// Object kinds.
const (
	Nodes Kind = 1 << iota
	Ways
	Relations

	All = Nodes | Ways | Relations
)

// Has reports whether k includes o.
func (k Kind) Has(o Kind) bool { return k&o != 0 }

// Source is a read-only extract that can be scanned repeatedly.
//
// Rewind resets the source to its first object. It must not be called
// while a scanner returned by Scan is still open.
type Source interface {
	Rewind() error
	Scan(ctx context.Context, want Kind) (osm.Scanner, error)
}

// kindOf maps an object to its Kind; 0 for anything else.
func kindOf(o osm.Object) Kind {
	switch o.(type) {
	case *osm.Node:
		return Nodes
	case *osm.Way:
		return Ways
	case *osm.Relation:
		return Relations
	default:
		return 0
	}
}

// filtered drops objects whose kind was not requested.
type filtered struct {
	osm.Scanner
	want Kind
}

func (f *filtered) Scan() bool {
	for f.Scanner.Scan() {
		if f.want.Has(kindOf(f.Scanner.Object())) {
			return true
		}
	}
	return false
}

func filter(s osm.Scanner, want Kind) osm.Scanner {
	if want == All {
		return s
	}
	return &filtered{Scanner: s, want: want}
}
