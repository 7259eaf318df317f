package export

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Format names an output encoding.
type Format string

// Supported output formats.
const (
	FormatGraph     Format = "graph"
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shapefile"
	FormatSQLite    Format = "sqlite"
	FormatPostGIS   Format = "postgis"
)

// Formats lists every supported format.
var Formats = []Format{FormatGraph, FormatGeoJSON, FormatShapefile, FormatSQLite, FormatPostGIS}

// ParseFormat validates a format name; empty selects graph.
func ParseFormat(name string) (Format, error) {
	if name == "" {
		return FormatGraph, nil
	}
	for _, f := range Formats {
		if string(f) == name {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q", name)
}

// Sink writes a snapshot somewhere. A failed Write leaves the destination
// in an unusable state; nothing is cleaned up.
type Sink interface {
	Write(ctx context.Context, s *Snapshot) error
}

// FileSink returns the file-backed sink for format, writing to path.
func FileSink(format Format, path string) (Sink, error) {
	if path == "" {
		return nil, eris.Errorf("export: %s output path is required", format)
	}
	switch format {
	case FormatGraph:
		return GraphFile{Path: path}, nil
	case FormatGeoJSON:
		return GeoJSONFile{Path: path}, nil
	case FormatShapefile:
		return Shapefile{Path: path}, nil
	case FormatSQLite:
		return SQLiteFile{Path: path}, nil
	default:
		return nil, eris.Errorf("export: format %q is not file based", format)
	}
}

// GraphFile writes the text graph format.
type GraphFile struct {
	Path string
}

// Write implements Sink.
func (g GraphFile) Write(_ context.Context, s *Snapshot) error {
	return writeFile(g.Path, func(w io.Writer) error { return WriteGraph(w, s) })
}

// writeFile creates path, hands a buffered writer to fn and always closes
// the file. The first error wins.
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = eris.Wrapf(cerr, "export: close %s", path)
		}
	}()

	bw := bufio.NewWriterSize(f, 1<<20)
	if err := fn(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return eris.Wrapf(err, "export: flush %s", path)
	}
	return nil
}
