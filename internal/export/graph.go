package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/rotisserie/eris"
)

// Reserved markers written into the segment type and area header fields.
const (
	segmentType  = 0
	areaReserved = 0
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// graphWriter stops writing after the first error.
type graphWriter struct {
	w   io.Writer
	err error
}

func (g *graphWriter) printf(format string, args ...any) {
	if g.err != nil {
		return
	}
	if _, err := fmt.Fprintf(g.w, format, args...); err != nil {
		g.err = eris.Wrap(err, "export: write graph")
	}
}

// WriteGraph writes s in the text graph format: points, segments, then
// areas, each section preceded by its count.
func WriteGraph(w io.Writer, s *Snapshot) error {
	g := &graphWriter{w: w}

	g.printf("Nodecount:%d\n", len(s.Points))
	for _, id := range s.Points {
		p := s.Tables.Points[id]
		y, x := s.Projection(p.Lat, p.Lon)
		g.printf("%d:%d,%d;\n", id, y, x)
	}

	g.printf("Segmentcount:%d\n", len(s.Segments))
	for _, id := range s.Segments {
		seg := s.Tables.Segments[id]
		g.printf("%d,%d:%s;\n", id, segmentType, joinIDs(seg.Points))
	}

	g.printf("Areacount:%d\n", len(s.Areas))
	for _, id := range s.Areas {
		a := s.Tables.Areas[id]
		g.printf("%d,%d,%s:%d,%d,%d\n", id, a.Level, lineBreaks.Replace(a.Name), len(a.Outer), len(a.Inner), areaReserved)
		if len(a.Outer) > 0 {
			g.printf("%s\n", joinIDs(a.Outer))
		}
		if len(a.Inner) > 0 {
			g.printf("%s\n", joinIDs(a.Inner))
		}
	}

	return g.err
}

func joinIDs[T ~int64](ids []T) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(id), 10))
	}
	return b.String()
}

// Graph is a parsed text graph snapshot.
type Graph struct {
	Points   []GraphPoint
	Segments []GraphSegment
	Areas    []GraphArea
}

// GraphPoint is a projected point line.
type GraphPoint struct {
	ID   osm.NodeID
	Y, X int32
}

// GraphSegment is a segment line.
type GraphSegment struct {
	ID     osm.WayID
	Type   int
	Points []osm.NodeID
}

// GraphArea is an area header plus its ring lines.
type GraphArea struct {
	ID    osm.RelationID
	Level uint8
	Name  string
	Outer []osm.WayID
	Inner []osm.WayID
}

// ReadGraph parses a snapshot written by WriteGraph.
func ReadGraph(r io.Reader) (*Graph, error) {
	p := &graphParser{sc: bufio.NewScanner(r)}
	p.sc.Buffer(make([]byte, 64*1024), 64*1024*1024)

	g := &Graph{}

	n, err := p.count("Nodecount")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		line, err := p.line()
		if err != nil {
			return nil, err
		}
		pt, err := parsePoint(line)
		if err != nil {
			return nil, p.wrap(err)
		}
		g.Points = append(g.Points, pt)
	}

	n, err = p.count("Segmentcount")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		line, err := p.line()
		if err != nil {
			return nil, err
		}
		seg, err := parseSegment(line)
		if err != nil {
			return nil, p.wrap(err)
		}
		g.Segments = append(g.Segments, seg)
	}

	n, err = p.count("Areacount")
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		line, err := p.line()
		if err != nil {
			return nil, err
		}
		a, outer, inner, err := parseAreaHeader(line)
		if err != nil {
			return nil, p.wrap(err)
		}
		if outer > 0 {
			if a.Outer, err = p.wayList(outer); err != nil {
				return nil, err
			}
		}
		if inner > 0 {
			if a.Inner, err = p.wayList(inner); err != nil {
				return nil, err
			}
		}
		g.Areas = append(g.Areas, a)
	}

	return g, nil
}

type graphParser struct {
	sc     *bufio.Scanner
	lineNo int
}

func (p *graphParser) line() (string, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", eris.Wrap(err, "export: read graph")
		}
		return "", eris.Errorf("export: graph truncated after line %d", p.lineNo)
	}
	p.lineNo++
	return p.sc.Text(), nil
}

func (p *graphParser) wrap(err error) error {
	return eris.Wrapf(err, "export: graph line %d", p.lineNo)
}

func (p *graphParser) count(label string) (int, error) {
	line, err := p.line()
	if err != nil {
		return 0, err
	}
	v, ok := strings.CutPrefix(line, label+":")
	if !ok {
		return 0, p.wrap(eris.Errorf("expected %s header, got %q", label, line))
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, p.wrap(eris.Errorf("bad %s %q", label, v))
	}
	return n, nil
}

func (p *graphParser) wayList(want int) ([]osm.WayID, error) {
	line, err := p.line()
	if err != nil {
		return nil, err
	}
	ids, err := parseIDs[osm.WayID](line)
	if err != nil {
		return nil, p.wrap(err)
	}
	if len(ids) != want {
		return nil, p.wrap(eris.Errorf("expected %d segment ids, got %d", want, len(ids)))
	}
	return ids, nil
}

func parsePoint(line string) (GraphPoint, error) {
	body, ok := strings.CutSuffix(line, ";")
	if !ok {
		return GraphPoint{}, eris.Errorf("point line %q missing terminator", line)
	}
	idStr, coords, ok := strings.Cut(body, ":")
	if !ok {
		return GraphPoint{}, eris.Errorf("malformed point line %q", line)
	}
	yStr, xStr, ok := strings.Cut(coords, ",")
	if !ok {
		return GraphPoint{}, eris.Errorf("malformed point coordinates %q", coords)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return GraphPoint{}, eris.Wrap(err, "point id")
	}
	y, err := strconv.ParseInt(yStr, 10, 32)
	if err != nil {
		return GraphPoint{}, eris.Wrap(err, "point y")
	}
	x, err := strconv.ParseInt(xStr, 10, 32)
	if err != nil {
		return GraphPoint{}, eris.Wrap(err, "point x")
	}
	return GraphPoint{ID: osm.NodeID(id), Y: int32(y), X: int32(x)}, nil
}

func parseSegment(line string) (GraphSegment, error) {
	body, ok := strings.CutSuffix(line, ";")
	if !ok {
		return GraphSegment{}, eris.Errorf("segment line %q missing terminator", line)
	}
	head, list, ok := strings.Cut(body, ":")
	if !ok {
		return GraphSegment{}, eris.Errorf("malformed segment line %q", line)
	}
	idStr, typStr, ok := strings.Cut(head, ",")
	if !ok {
		return GraphSegment{}, eris.Errorf("malformed segment header %q", head)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return GraphSegment{}, eris.Wrap(err, "segment id")
	}
	typ, err := strconv.Atoi(typStr)
	if err != nil {
		return GraphSegment{}, eris.Wrap(err, "segment type")
	}
	pts, err := parseIDs[osm.NodeID](list)
	if err != nil {
		return GraphSegment{}, err
	}
	return GraphSegment{ID: osm.WayID(id), Type: typ, Points: pts}, nil
}

// parseAreaHeader splits "<id>,<level>,<name>:<outer>,<inner>,<reserved>".
// The name may itself contain commas and colons, so the counts are taken
// after the last colon.
func parseAreaHeader(line string) (GraphArea, int, int, error) {
	colon := strings.LastIndexByte(line, ':')
	if colon < 0 {
		return GraphArea{}, 0, 0, eris.Errorf("malformed area header %q", line)
	}
	head, counts := line[:colon], line[colon+1:]

	parts := strings.SplitN(head, ",", 3)
	if len(parts) != 3 {
		return GraphArea{}, 0, 0, eris.Errorf("malformed area header %q", line)
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return GraphArea{}, 0, 0, eris.Wrap(err, "area id")
	}
	level, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return GraphArea{}, 0, 0, eris.Wrap(err, "area level")
	}

	c := strings.Split(counts, ",")
	if len(c) != 3 {
		return GraphArea{}, 0, 0, eris.Errorf("malformed area counts %q", counts)
	}
	outer, err := strconv.Atoi(c[0])
	if err != nil || outer < 0 {
		return GraphArea{}, 0, 0, eris.Errorf("bad outer count %q", c[0])
	}
	inner, err := strconv.Atoi(c[1])
	if err != nil || inner < 0 {
		return GraphArea{}, 0, 0, eris.Errorf("bad inner count %q", c[1])
	}

	return GraphArea{ID: osm.RelationID(id), Level: uint8(level), Name: parts[2]}, outer, inner, nil
}

func parseIDs[T ~int64](list string) ([]T, error) {
	if list == "" {
		return nil, nil
	}
	fields := strings.Split(list, ",")
	ids := make([]T, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "id %q", f)
		}
		ids[i] = T(v)
	}
	return ids, nil
}
