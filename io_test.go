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
	"encoding/json"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
)

// roadRecord holds the attributes of a road shapefile record.
type roadRecord struct {
	geom.MultiLineString
	Class      int
	Intensity  int
	F_cong     float64
	F_medium   float64
	F_heavy    float64
	F_bus      float64
	Speed_type string
	T_factor   float64
}

// roadFields are wide enough to hold fractions with ten decimals
// without spilling into the next field.
var roadFields = []goshp.Field{
	goshp.NumberField("class", 10),
	goshp.NumberField("intensity", 10),
	goshp.FloatField("f_cong", 19, 10),
	goshp.FloatField("f_medium", 19, 10),
	goshp.FloatField("f_heavy", 19, 10),
	goshp.FloatField("f_bus", 19, 10),
	goshp.StringField("speed_type", 10),
	goshp.FloatField("t_factor", 19, 10),
}

func writeTestRoads(t *testing.T, fname string, recs []roadRecord) {
	e, err := shp.NewEncoderFromFields(fname, goshp.POLYLINE, roadFields...)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range recs {
		err := e.EncodeFields(r.MultiLineString, r.Class, r.Intensity, r.F_cong,
			r.F_medium, r.F_heavy, r.F_bus, r.Speed_type, r.T_factor)
		if err != nil {
			t.Fatal(err)
		}
	}
	e.Close()
}

func TestReadRoadShapefile(t *testing.T) {
	dir, err := ioutil.TempDir("", "srm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "roads.shp")

	writeTestRoads(t, fname, []roadRecord{
		{
			MultiLineString: geom.MultiLineString{{{X: 0, Y: 0}, {X: 100, Y: 0}}},
			Class:           4, Intensity: 10000, F_cong: 0.1, F_medium: 0.2,
			F_heavy: 0.05, F_bus: 0.02, Speed_type: "C", T_factor: 1,
		},
		{
			MultiLineString: geom.MultiLineString{{{X: 0, Y: 50}, {X: 50, Y: 100}, {X: 100, Y: 50}}},
			Class:           1, Intensity: 500, Speed_type: "e", T_factor: 1.25,
		},
	})

	roads, err := ReadRoadShapefile(fname, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Roads{
		{
			Geom:  geom.MultiLineString{{{X: 0, Y: 0}, {X: 100, Y: 0}}},
			Class: GeneralUrban, Intensity: 10000, FracStagnant: 0.1, FracMedium: 0.2,
			FracHeavy: 0.05, FracBus: 0.02, Speed: SpeedC, TreeFactor: 1,
		},
		{
			Geom:  geom.MultiLineString{{{X: 0, Y: 50}, {X: 50, Y: 100}, {X: 100, Y: 50}}},
			Class: BroadCanyon, Intensity: 500, Speed: SpeedE, TreeFactor: 1.25,
		},
	}
	if diff := pretty.Diff(roads, want); len(diff) != 0 {
		t.Errorf("roads don't match:\n%v", diff)
	}

	// The ".shp" extension is optional.
	if _, err := ReadRoadShapefile(filepath.Join(dir, "roads"), nil); err != nil {
		t.Error(err)
	}
}

func TestReadRoadShapefileInvalid(t *testing.T) {
	dir, err := ioutil.TempDir("", "srm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	tests := []struct {
		name string
		rec  roadRecord
	}{
		{name: "class", rec: roadRecord{Class: 5, Speed_type: "a", T_factor: 1}},
		{name: "speed", rec: roadRecord{Class: 1, Speed_type: "x", T_factor: 1}},
		{name: "fractions", rec: roadRecord{Class: 1, F_medium: 0.7, F_heavy: 0.5, Speed_type: "a", T_factor: 1}},
		{name: "tree", rec: roadRecord{Class: 1, Speed_type: "a"}},
	}
	for _, test := range tests {
		test.rec.MultiLineString = geom.MultiLineString{{{X: 0, Y: 0}, {X: 1, Y: 0}}}
		fname := filepath.Join(dir, test.name+".shp")
		writeTestRoads(t, fname, []roadRecord{test.rec})
		if _, err := ReadRoadShapefile(fname, nil); !errors.Is(err, ErrInvalidRoad) {
			t.Errorf("%s: have %v, want %v", test.name, err, ErrInvalidRoad)
		}
	}

	if _, err := ReadRoadShapefile(filepath.Join(dir, "missing.shp"), nil); err == nil {
		t.Error("reading a missing file should be an error")
	}
}

func TestReadReceptorShapefile(t *testing.T) {
	dir, err := ioutil.TempDir("", "srm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "receptors.shp")

	type receptor struct {
		geom.Point
		Name string
	}
	e, err := shp.NewEncoder(fname, receptor{})
	if err != nil {
		t.Fatal(err)
	}
	want := []geom.Point{{X: testX, Y: testY}, {X: testX + 10, Y: testY - 20}}
	for i, p := range want {
		if err := e.Encode(receptor{Point: p, Name: string(rune('a' + i))}); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()

	have, err := ReadReceptorShapefile(fname, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(have, want); len(diff) != 0 {
		t.Errorf("receptors don't match:\n%v", diff)
	}
}

func testResults() []Result {
	return []Result{
		{Pollutant: NO2, X: testX, Y: testY, Value: 41.4},
		{Pollutant: PM10, X: testX, Y: testY + 1000, Value: math.NaN(), Err: errors.Wrap(ErrOutOfRange, "srm")},
	}
}

func TestWriteResultsShapefile(t *testing.T) {
	dir, err := ioutil.TempDir("", "srm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "results.shp")

	if err := WriteResults(fname, testResults()); err != nil {
		t.Fatal(err)
	}

	d, err := shp.NewDecoder(fname)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	type rec struct {
		geom.Geom
		Pollutant string
		Conc      float64
		Status    string
	}
	var recs []rec
	for {
		var r rec
		if !d.DecodeRow(&r) {
			break
		}
		recs = append(recs, r)
	}
	if err := d.Error(); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("have %d records, want 2", len(recs))
	}
	if recs[0].Pollutant != "NO2" || recs[0].Conc != 41.4 || recs[0].Status != "ok" {
		t.Errorf("record 0: %+v", recs[0])
	}
	if p, ok := recs[0].Geom.(geom.Point); !ok || p.X != testX || p.Y != testY {
		t.Errorf("record 0 geometry: %#v", recs[0].Geom)
	}
	if recs[1].Pollutant != "PM10" || recs[1].Status != "out of range" {
		t.Errorf("record 1: %+v", recs[1])
	}
}

func TestWriteResultsGeoJSON(t *testing.T) {
	dir, err := ioutil.TempDir("", "srm")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	fname := filepath.Join(dir, "results.geojson")

	if err := WriteResults(fname, testResults()); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(fname)
	if err != nil {
		t.Fatal(err)
	}
	var fc struct {
		Type     string
		Features []struct {
			Geometry struct {
				Type        string
				Coordinates []float64
			}
			Properties map[string]interface{}
		}
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		t.Fatal(err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 2 {
		t.Fatalf("unexpected feature collection: %s", b)
	}
	f0 := fc.Features[0]
	if f0.Geometry.Type != "Point" || f0.Geometry.Coordinates[0] != testX || f0.Geometry.Coordinates[1] != testY {
		t.Errorf("feature 0 geometry: %+v", f0.Geometry)
	}
	if f0.Properties["pollutant"] != "NO2" || f0.Properties["concentration"] != 41.4 ||
		f0.Properties["status"] != "ok" {
		t.Errorf("feature 0 properties: %v", f0.Properties)
	}
	f1 := fc.Features[1]
	if f1.Properties["concentration"] != nil || f1.Properties["status"] != "out of range" {
		t.Errorf("feature 1 properties: %v", f1.Properties)
	}

	if err := WriteResults(filepath.Join(dir, "results.csv"), testResults()); err == nil {
		t.Error("unsupported output type should be an error")
	}
}
