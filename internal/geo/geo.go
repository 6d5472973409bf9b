// Package geo turns route waypoints into planar geometry for the map layer.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/matatu-hustle/simcore/pkg/core"
)

// Waypoints are stored as EPSG:4326 lon/lat. Geometry is built in EPSG:3857
// so segment lengths and interpolation are planar; lengths are corrected by
// cos(latitude) to approximate ground distance.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// WaypointFromString parses "lon,lat".
func WaypointFromString(coords string) (core.Waypoint, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 2 {
		return core.Waypoint{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return core.Waypoint{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return core.Waypoint{}, ErrInvalidCoordinates
	}
	w := core.Waypoint{Lon: lon, Lat: lat}
	if !valid(w) {
		return core.Waypoint{}, ErrInvalidCoordinates
	}
	return w, nil
}

func valid(w core.Waypoint) bool {
	return w.Lon >= -180 && w.Lon <= 180 && w.Lat > -85 && w.Lat < 85
}

// To3857 projects a lon/lat waypoint to web mercator metres.
func To3857(w core.Waypoint) geom.XY {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(w.Lon, w.Lat, 0)
	return geom.XY{X: x, Y: y}
}

// From3857 is the inverse of To3857.
func From3857(xy geom.XY) core.Waypoint {
	f := wgs84.EPSG().Transform(3857, 4326)
	lon, lat, _ := f(xy.X, xy.Y, 0)
	return core.Waypoint{Lon: lon, Lat: lat}
}

// Line is a projected route polyline with cumulative ground distances.
type Line struct {
	ls     geom.LineString
	points []geom.XY
	cumKm  []float64
}

// NewLine builds a Line from at least two waypoints.
func NewLine(waypoints []core.Waypoint) (*Line, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("route line needs at least 2 waypoints, got %d", len(waypoints))
	}

	flat := make([]float64, 0, len(waypoints)*2)
	points := make([]geom.XY, len(waypoints))
	cum := make([]float64, len(waypoints))
	for i, w := range waypoints {
		if !valid(w) {
			return nil, fmt.Errorf("waypoint %d: %w", i, ErrInvalidCoordinates)
		}
		points[i] = To3857(w)
		flat = append(flat, points[i].X, points[i].Y)
		if i == 0 {
			continue
		}
		seg := geom.NewLineString(geom.NewSequence(
			[]float64{points[i-1].X, points[i-1].Y, points[i].X, points[i].Y}, geom.DimXY))
		midLat := (waypoints[i-1].Lat + waypoints[i].Lat) / 2
		cum[i] = cum[i-1] + seg.Length()*math.Cos(midLat*math.Pi/180)/1000
	}

	return &Line{
		ls:     geom.NewLineString(geom.NewSequence(flat, geom.DimXY)),
		points: points,
		cumKm:  cum,
	}, nil
}

// LengthKm is the surveyed ground length of the line.
func (l *Line) LengthKm() float64 {
	return l.cumKm[len(l.cumKm)-1]
}

// ProjectedLength is the raw web mercator length in metres.
func (l *Line) ProjectedLength() float64 {
	return l.ls.Length()
}

// WKT renders the projected line as well-known text.
func (l *Line) WKT() string {
	return l.ls.AsText()
}

// PointAt returns the lon/lat at fraction (clamped to [0,1]) of the
// surveyed length.
func (l *Line) PointAt(fraction float64) core.Waypoint {
	fraction = math.Max(0, math.Min(1, fraction))
	target := fraction * l.LengthKm()
	last := len(l.points) - 1
	for i := 1; i <= last; i++ {
		if target > l.cumKm[i] && i < last {
			continue
		}
		segLen := l.cumKm[i] - l.cumKm[i-1]
		t := 0.0
		if segLen > 0 {
			t = (target - l.cumKm[i-1]) / segLen
		}
		t = math.Max(0, math.Min(1, t))
		a, b := l.points[i-1], l.points[i]
		return From3857(geom.XY{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t})
	}
	return From3857(l.points[last])
}
