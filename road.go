/*
Copyright © 2019 the InMAP authors.
This file is part of SRM.

SRM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

SRM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with SRM.  If not, see <http://www.gnu.org/licenses/>.
*/

package srm

import (
	"fmt"
	"math"
	"strings"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"
)

// RoadClass is the SRM1 road type, which determines the dilution curve.
// Values match the codes in the road shapefile "class" field.
type RoadClass int

// Road classes.
const (
	BroadCanyon       RoadClass = 1 // broad street canyon
	SmallCanyon       RoadClass = 2 // small street canyon
	OneSidedBuildings RoadClass = 3 // buildings on one side of the road
	GeneralUrban      RoadClass = 4 // general urban road
)

func (c RoadClass) String() string {
	switch c {
	case BroadCanyon:
		return "BroadCanyon"
	case SmallCanyon:
		return "SmallCanyon"
	case OneSidedBuildings:
		return "OneSidedBuildings"
	case GeneralUrban:
		return "GeneralUrban"
	}
	return fmt.Sprintf("RoadClass(%d)", int(c))
}

// SpeedRegime is the one-letter traffic flow code used in the emission
// factor table.
type SpeedRegime string

// Speed regimes, with their typical average speeds.
const (
	SpeedA SpeedRegime = "a" // highway, 100 km/h
	SpeedB SpeedRegime = "b" // outside urban areas, 44 km/h
	SpeedC SpeedRegime = "c" // urban free flow, 19 km/h
	SpeedD SpeedRegime = "d" // urban congested, 13 km/h
	SpeedE SpeedRegime = "e" // urban normal, 26 km/h

	// Stagnant traffic is always modelled with the congested regime.
	Stagnant = SpeedD
)

// ParseSpeedRegime converts a speed type code to a SpeedRegime.
func ParseSpeedRegime(s string) (SpeedRegime, error) {
	r := SpeedRegime(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case SpeedA, SpeedB, SpeedC, SpeedD, SpeedE:
		return r, nil
	}
	return "", fmt.Errorf("srm: invalid speed regime %q", s)
}

// Road holds the geometry and traffic attributes of a road segment.
// The shp tags give the corresponding road shapefile fields.
type Road struct {
	geom.Geom

	Class        RoadClass   `shp:"class"`
	Intensity    int         `shp:"intensity"` // vehicles per day
	FracStagnant float64     `shp:"f_cong"`    // fraction of stagnant traffic
	FracMedium   float64     `shp:"f_medium"`  // fraction of medium-weight vehicles
	FracHeavy    float64     `shp:"f_heavy"`   // fraction of heavy vehicles
	FracBus      float64     `shp:"f_bus"`     // fraction of buses
	Speed        SpeedRegime `shp:"speed_type"`
	TreeFactor   float64     `shp:"t_factor"`
}

// FracLight returns the fraction of light vehicles.
func (r *Road) FracLight() float64 {
	return 1 - r.FracMedium - r.FracHeavy - r.FracBus
}

// fracTolerance allows for rounding in stored vehicle fractions.
const fracTolerance = 1.e-9

// Validate checks that the road attributes are within bounds.
func (r *Road) Validate() error {
	if _, ok := dilutionCoefficients[r.Class]; !ok {
		return errors.Wrapf(ErrInvalidRoad, "road class %d", int(r.Class))
	}
	if r.Intensity < 0 {
		return errors.Wrapf(ErrInvalidRoad, "intensity %d is negative", r.Intensity)
	}
	fracs := []struct {
		name string
		v    float64
	}{
		{"f_cong", r.FracStagnant},
		{"f_medium", r.FracMedium},
		{"f_heavy", r.FracHeavy},
		{"f_bus", r.FracBus},
	}
	for _, f := range fracs {
		if !(f.v >= 0 && f.v <= 1) {
			return errors.Wrapf(ErrInvalidRoad, "%s=%g is not in [0, 1]", f.name, f.v)
		}
	}
	if r.FracLight() < -fracTolerance {
		return errors.Wrapf(ErrInvalidRoad, "f_medium+f_heavy+f_bus=%g > 1",
			r.FracMedium+r.FracHeavy+r.FracBus)
	}
	if _, err := ParseSpeedRegime(string(r.Speed)); err != nil {
		return errors.Wrap(ErrInvalidRoad, err.Error())
	}
	if !(r.TreeFactor > 0) {
		return errors.Wrapf(ErrInvalidRoad, "t_factor=%g should be > 0", r.TreeFactor)
	}
	return nil
}

// Roads is a collection of roads, in input order.
type Roads []*Road

// Nearest returns the road closest to p and the distance to it.
// Roads are scanned in order and the first of equally near roads is
// returned.
func (roads Roads) Nearest(p geom.Point) (*Road, float64, error) {
	if len(roads) == 0 {
		return nil, math.NaN(), ErrEmptyRoadCollection
	}
	var nearest *Road
	minDist := math.Inf(1)
	for i, r := range roads {
		d, err := distance(p, r.Geom)
		if err != nil {
			return nil, math.NaN(), errors.Wrapf(err, "srm: road %d", i)
		}
		if nearest == nil || d < minDist {
			nearest = r
			minDist = d
		}
	}
	return nearest, minDist, nil
}

// distance returns the shortest planar distance between p and g.
// Empty geometries are infinitely far away.
func distance(p geom.Point, g geom.Geom) (float64, error) {
	switch t := g.(type) {
	case geom.Point:
		return pointDistance(p, t), nil
	case *geom.Point:
		return pointDistance(p, *t), nil
	case geom.MultiPoint:
		d := math.Inf(1)
		for _, pp := range t {
			d = math.Min(d, pointDistance(p, pp))
		}
		return d, nil
	case geom.LineString:
		return lineDistance(p, t), nil
	case geom.MultiLineString:
		d := math.Inf(1)
		for _, l := range t {
			d = math.Min(d, lineDistance(p, l))
		}
		return d, nil
	case nil:
		return math.Inf(1), nil
	}
	return math.NaN(), errors.Wrapf(ErrUnsupportedGeometry, "%T", g)
}

// lineDistance returns the distance between p and the nearest segment of l.
func lineDistance(p geom.Point, l geom.LineString) float64 {
	switch len(l) {
	case 0:
		return math.Inf(1)
	case 1:
		return pointDistance(p, l[0])
	}
	d := math.Inf(1)
	for i := 0; i < len(l)-1; i++ {
		d = math.Min(d, segmentDistance(p, l[i], l[i+1]))
	}
	return d
}

// segmentDistance returns the distance between p and the segment
// [a, b], projecting p onto the segment and clamping to its end points.
func segmentDistance(p, a, b geom.Point) float64 {
	vx, vy := b.X-a.X, b.Y-a.Y
	wx, wy := p.X-a.X, p.Y-a.Y
	c1 := wx*vx + wy*vy
	if c1 <= 0 {
		return pointDistance(p, a)
	}
	c2 := vx*vx + vy*vy
	if c2 <= c1 {
		return pointDistance(p, b)
	}
	f := c1 / c2
	return pointDistance(p, geom.Point{X: a.X + f*vx, Y: a.Y + f*vy})
}

func pointDistance(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
