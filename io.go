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
	"io/ioutil"
	"math"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	goshp "github.com/jonas-p/go-shp"
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// ReadRoadShapefile reads the roads in the specified shapefile. If gridSR
// is not nil, the road geometries are reprojected to it from the
// projection in the shapefile's .prj file. Each road is validated.
func ReadRoadShapefile(fname string, gridSR *proj.SR) (Roads, error) {
	fname = strings.TrimSuffix(fname, ".shp")
	f, err := shp.NewDecoder(fname + ".shp")
	if err != nil {
		return nil, fmt.Errorf("srm: there was a problem reading the road shapefile '%s'. "+
			"The error message was %v", fname, err)
	}
	defer f.Close()

	var trans proj.Transformer
	if gridSR != nil {
		sr, err := f.SR()
		if err != nil {
			return nil, fmt.Errorf("srm: there was a problem reading the projection information for "+
				"the road shapefile '%s'. The error message was %v", fname, err)
		}
		trans, err = sr.NewTransform(gridSR)
		if err != nil {
			return nil, fmt.Errorf("srm: there was a problem creating a spatial reprojector for "+
				"the road shapefile '%s'. The error message was %v", fname, err)
		}
	}

	var roads Roads
	for {
		var r Road
		if ok := f.DecodeRow(&r); !ok {
			break
		}
		if trans != nil && r.Geom != nil {
			r.Geom, err = r.Transform(trans)
			if err != nil {
				return nil, fmt.Errorf("srm: there was a problem spatially reprojecting road %d in "+
					"file %s. The error message was %v", len(roads), fname, err)
			}
		}
		if r.Speed, err = ParseSpeedRegime(string(r.Speed)); err != nil {
			return nil, errors.Wrapf(ErrInvalidRoad, "road %d in %s: %v", len(roads), fname, err)
		}
		if err := r.Validate(); err != nil {
			return nil, errors.Wrapf(err, "road %d in %s", len(roads), fname)
		}
		roads = append(roads, &r)
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("srm: problem reading road shapefile."+
			"\nfile: %s\nerror: %v", fname, err)
	}
	return roads, nil
}

// ReadReceptorShapefile reads the locations of the points in the specified
// shapefile, optionally reprojecting them to gridSR as in ReadRoadShapefile.
// Multi-point records contribute all of their points.
func ReadReceptorShapefile(fname string, gridSR *proj.SR) ([]geom.Point, error) {
	fname = strings.TrimSuffix(fname, ".shp")
	f, err := shp.NewDecoder(fname + ".shp")
	if err != nil {
		return nil, fmt.Errorf("srm: opening receptor shapefile '%s': %v", fname, err)
	}
	defer f.Close()

	var trans proj.Transformer
	if gridSR != nil {
		sr, err := f.SR()
		if err != nil {
			return nil, fmt.Errorf("srm: reading receptor shapefile projection: %v", err)
		}
		if trans, err = sr.NewTransform(gridSR); err != nil {
			return nil, fmt.Errorf("srm: reprojecting receptors: %v", err)
		}
	}

	var receptors []geom.Point
	for {
		var rec struct{ geom.Geom }
		if ok := f.DecodeRow(&rec); !ok {
			break
		}
		g := rec.Geom
		if trans != nil && g != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, fmt.Errorf("srm: reprojecting receptor %d: %v", len(receptors), err)
			}
		}
		switch t := g.(type) {
		case geom.Point:
			receptors = append(receptors, t)
		case geom.MultiPoint:
			receptors = append(receptors, t...)
		default:
			return nil, errors.Wrapf(ErrUnsupportedGeometry, "receptor %d in %s: %T", len(receptors), fname, g)
		}
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("srm: problem reading receptor shapefile."+
			"\nfile: %s\nerror: %v", fname, err)
	}
	return receptors, nil
}

// WriteResults writes results to a point shapefile (.shp) or a GeoJSON
// feature collection (.geojson or .json), depending on the extension of
// fname. Failed results are written with a NaN value and their status.
func WriteResults(fname string, results []Result) error {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".shp":
		return writeResultsShapefile(fname, results)
	case ".geojson", ".json":
		return writeResultsGeoJSON(fname, results)
	}
	return fmt.Errorf("srm: unsupported output file type '%s'; use .shp or .geojson", fname)
}

func writeResultsShapefile(fname string, results []Result) error {
	e, err := shp.NewEncoderFromFields(fname, goshp.POINT,
		goshp.StringField("Pollutant", 10),
		goshp.FloatField("Conc", 14, 1),
		goshp.StringField("Status", 40),
	)
	if err != nil {
		return fmt.Errorf("srm: creating output shapefile: %v", err)
	}
	defer e.Close()
	for _, r := range results {
		v := r.Value
		if !r.OK() {
			v = math.NaN()
		}
		if err := e.EncodeFields(geom.Point{X: r.X, Y: r.Y}, string(r.Pollutant), v, r.Status()); err != nil {
			return fmt.Errorf("srm: writing output shapefile: %v", err)
		}
	}
	return nil
}

func writeResultsGeoJSON(fname string, results []Result) error {
	fc := geojson.NewFeatureCollection()
	for _, r := range results {
		f := geojson.NewPointFeature([]float64{r.X, r.Y})
		f.SetProperty("pollutant", string(r.Pollutant))
		if r.OK() {
			f.SetProperty("concentration", r.Value)
		} else {
			f.SetProperty("concentration", nil)
			f.SetProperty("error", r.Err.Error())
		}
		f.SetProperty("status", r.Status())
		fc.AddFeature(f)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("srm: encoding GeoJSON results: %v", err)
	}
	if err := ioutil.WriteFile(fname, b, 0644); err != nil {
		return fmt.Errorf("srm: writing GeoJSON results: %v", err)
	}
	return nil
}
