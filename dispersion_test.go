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
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestDilution(t *testing.T) {
	const testTolerance = 1.e-10
	tests := []struct {
		c    RoadClass
		d    float64
		want float64
	}{
		{c: GeneralUrban, d: 10, want: 0.179},
		{c: BroadCanyon, d: 10, want: 0.0325 - 0.205 + 0.39},
		{c: SmallCanyon, d: 10, want: 0.0488 - 0.308 + 0.59},
		{c: OneSidedBuildings, d: 10, want: 0.05 - 0.316 + 0.57},
		{c: BroadCanyon, d: 45, want: 0.856 * math.Pow(45, -0.747)},
		{c: GeneralUrban, d: 45, want: 0.799 * math.Pow(45, -0.747)},
		// Canyons without a power law keep the quadratic fit up to 60 m.
		{c: SmallCanyon, d: 60, want: 0.000488*3600 - 0.0308*60 + 0.59},
		{c: OneSidedBuildings, d: 60, want: 0.0005*3600 - 0.0316*60 + 0.57},
	}
	for _, test := range tests {
		have, err := Dilution(test.c, test.d)
		if err != nil {
			t.Fatal(err)
		}
		if different(have, test.want, testTolerance) {
			t.Errorf("%s at %g m: have %g, want %g", test.c, test.d, have, test.want)
		}
	}
	if _, err := Dilution(RoadClass(7), 10); !errors.Is(err, ErrInvalidRoad) {
		t.Errorf("have %v, want %v", err, ErrInvalidRoad)
	}
}

// At 30 m, the quadratic fit is used. The power law takes over just
// beyond it, and the two curves differ slightly at the boundary.
func TestDilutionBoundary(t *testing.T) {
	tests := []struct {
		c                RoadClass
		quadratic, power float64
	}{
		{c: BroadCanyon, quadratic: 0.0675, power: 0.06746277282533428},
		{c: GeneralUrban, quadratic: 0.063, power: 0.06297050874701178},
	}
	for _, test := range tests {
		at, err := Dilution(test.c, 30)
		if err != nil {
			t.Fatal(err)
		}
		if different(at, test.quadratic, 1.e-10) {
			t.Errorf("%s at 30 m: have %g, want %g", test.c, at, test.quadratic)
		}
		beyond, err := Dilution(test.c, math.Nextafter(30, 31))
		if err != nil {
			t.Fatal(err)
		}
		if different(beyond, test.power, 1.e-10) {
			t.Errorf("%s beyond 30 m: have %g, want %g", test.c, beyond, test.power)
		}
		if jump := math.Abs(at - beyond); jump == 0 || jump > 1.e-4 {
			t.Errorf("%s: discontinuity %g is not in (0, 1e-4]", test.c, jump)
		}
	}
}

func TestEmissionRate(t *testing.T) {
	const testTolerance = 1.e-12
	r := testRoad()
	efs := map[VehicleClass]float64{Light: 1, Medium: 2, Heavy: 4, Bus: 8}
	have, err := EmissionRate(r, func(v VehicleClass, s SpeedRegime) (float64, error) {
		if s == Stagnant {
			return 10 * efs[v], nil
		}
		if s != r.Speed {
			t.Errorf("unexpected speed regime %s", s)
		}
		return efs[v], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	fleet := 0.73*1 + 0.2*2 + 0.05*4 + 0.02*8
	want := 10000*0.9*fleet*1000/86400 + 10000*0.1*10*fleet*1000/86400
	if different(have, want, testTolerance) {
		t.Errorf("have %g, want %g", have, want)
	}

	_, err = EmissionRate(r, func(v VehicleClass, s SpeedRegime) (float64, error) {
		return 0, ErrMissingTableEntry
	})
	if !errors.Is(err, ErrMissingTableEntry) {
		t.Errorf("have %v, want %v", err, ErrMissingTableEntry)
	}
}

func TestTrafficConcentrationClamp(t *testing.T) {
	e := testEngine()
	r := testRoad()
	clamped, err := e.TrafficConcentration(r, MinDistance, PM10, testCell)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range []float64{0, 1, 2.5, 3.4999} {
		have, err := e.TrafficConcentration(r, d, PM10, testCell)
		if err != nil {
			t.Fatal(err)
		}
		if have != clamped {
			t.Errorf("%g m: have %g, want %g", d, have, clamped)
		}
	}
	const want = 32.303327546296295
	if different(clamped, want, 1.e-12) {
		t.Errorf("have %g, want %g", clamped, want)
	}
	if above, _ := e.TrafficConcentration(r, 3.6, PM10, testCell); above == clamped {
		t.Error("distances above the minimum should not be clamped")
	}
}

func TestTrafficConcentrationOutOfRange(t *testing.T) {
	e := testEngine()
	v, err := e.TrafficConcentration(testRoad(), 60.5, PM10, testCell)
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("have %v, want %v", err, ErrOutOfRange)
	}
	if !math.IsNaN(v) {
		t.Errorf("value should be NaN but is %g", v)
	}
	if _, err := e.TrafficConcentration(testRoad(), 60, PM10, testCell); err != nil {
		t.Errorf("60 m: %v", err)
	}
}

func TestTreeFactor(t *testing.T) {
	e := testEngine()
	r := testRoad()
	r.TreeFactor = 1.5
	have, err := e.TrafficConcentration(r, 10, EC, testCell)
	if err != nil {
		t.Fatal(err)
	}
	if different(have, 1.5*testTraffic, 1.e-12) {
		t.Errorf("have %g, want %g", have, 1.5*testTraffic)
	}
}
