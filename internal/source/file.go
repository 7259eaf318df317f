package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/rotisserie/eris"
)

// Format is the encoding of an extract file.
type Format string

// Supported formats.
const (
	FormatPBF Format = "pbf"
	FormatXML Format = "xml"
)

// DetectFormat derives the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pbf":
		return FormatPBF, nil
	case ".osm", ".xml":
		return FormatXML, nil
	default:
		return "", eris.Errorf("source: unsupported extract %q (want .pbf, .osm or .xml)", path)
	}
}

// Options tune a File source.
type Options struct {
	Procs int // PBF decoder goroutines; 0 = GOMAXPROCS
}

// File is a Source backed by an extract on disk.
type File struct {
	path   string
	format Format
	procs  int
	f      *os.File
}

var _ Source = (*File)(nil)

// Open opens the extract at path. The caller must Close it.
func Open(path string, opts Options) (*File, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", path)
	}

	procs := opts.Procs
	if procs <= 0 {
		procs = runtime.GOMAXPROCS(0)
	}

	return &File{path: path, format: format, procs: procs, f: f}, nil
}

// Path returns the extract path.
func (s *File) Path() string { return s.path }

// Format returns the detected encoding.
func (s *File) Format() Format { return s.format }

// Rewind implements Source.
func (s *File) Rewind() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return eris.Wrapf(err, "source: rewind %s", s.path)
	}
	return nil
}

// Scan implements Source. The returned scanner reads from the current
// file position.
func (s *File) Scan(ctx context.Context, want Kind) (osm.Scanner, error) {
	switch s.format {
	case FormatPBF:
		sc := osmpbf.New(ctx, s.f, s.procs)
		sc.SkipNodes = !want.Has(Nodes)
		sc.SkipWays = !want.Has(Ways)
		sc.SkipRelations = !want.Has(Relations)
		return sc, nil
	case FormatXML:
		return filter(osmxml.New(ctx, s.f), want), nil
	default:
		return nil, eris.Errorf("source: unsupported format %q", s.format)
	}
}

// Close releases the underlying file.
func (s *File) Close() error {
	if err := s.f.Close(); err != nil {
		return eris.Wrapf(err, "source: close %s", s.path)
	}
	return nil
}
