package export

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/rotisserie/eris"

	"github.com/sells-group/admin-areas/internal/model"
)

// Projection maps fixed-point (lat, lon) to a projected fixed-point (y, x).
type Projection func(lat, lon int32) (y, x int32)

const (
	earthRadius = 6378137.0
	// Latitude bound of the square web mercator world.
	mercatorMaxLat = 85.051128779806
)

// Identity leaves coordinates unchanged.
func Identity(lat, lon int32) (int32, int32) { return lat, lon }

// Mercator applies the spherical web mercator projection and expresses the
// result in decimicro degree-equivalents, so x equals the longitude and y
// spans [-180°, 180°] over the valid latitude range.
func Mercator(lat, lon int32) (int32, int32) {
	latDeg := math.Max(-mercatorMaxLat, math.Min(mercatorMaxLat, model.FromDecimicro(lat)))
	p := project.WGS84.ToMercator(orb.Point{model.FromDecimicro(lon), latDeg})
	toDeg := 180 / (math.Pi * earthRadius)
	return model.ToDecimicro(p.Y() * toDeg), model.ToDecimicro(p.X() * toDeg)
}

// ProjectionByName resolves a configured projection name.
func ProjectionByName(name string) (Projection, error) {
	switch name {
	case "", "identity", "none":
		return Identity, nil
	case "mercator", "webmercator":
		return Mercator, nil
	default:
		return nil, eris.Errorf("export: unknown projection %q", name)
	}
}
