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
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MissPolicy specifies what happens when a lookup table has no entry
// for a requested key.
type MissPolicy int

const (
	// Fail returns ErrMissingTableEntry to the caller.
	Fail MissPolicy = iota

	// Zero substitutes zero for the missing value and logs a warning.
	Zero
)

func (m MissPolicy) String() string {
	switch m {
	case Fail:
		return "fail"
	case Zero:
		return "zero"
	}
	return fmt.Sprintf("MissPolicy(%d)", int(m))
}

// ParseMissPolicy converts "fail" or "zero" to a MissPolicy.
func ParseMissPolicy(s string) (MissPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail":
		return Fail, nil
	case "zero":
		return Zero, nil
	}
	return Fail, fmt.Errorf("srm: invalid missing entry policy %q; valid options are fail and zero", s)
}

// Config holds the parameters of a calculation.
type Config struct {
	// EmissionYear, BackgroundYear and MeteorologyYear select the year
	// of the corresponding lookup table rows.
	EmissionYear, BackgroundYear, MeteorologyYear int

	// MissingEmission and MissingBackground specify how missing
	// emission factors and background concentrations are handled.
	// Missing wind speeds are always an error.
	MissingEmission, MissingBackground MissPolicy
}

// DefaultConfig returns the configuration of the CAR-VL3.0 tables.
func DefaultConfig() Config {
	return Config{
		EmissionYear:    2015,
		BackgroundYear:  2015,
		MeteorologyYear: 2012,
	}
}

// Engine calculates concentrations from a road network and lookup tables.
// An Engine does not modify its inputs, so it can be shared between
// goroutines as long as the roads and tables are not changed.
type Engine struct {
	Config

	Roads  Roads
	Tables *Tables

	// Log receives warnings about substituted table entries and
	// debugging information. It defaults to logrus.StandardLogger().
	Log logrus.FieldLogger
}

// NewEngine returns a new Engine.
func NewEngine(roads Roads, tables *Tables, cfg Config) *Engine {
	return &Engine{
		Config: cfg,
		Roads:  roads,
		Tables: tables,
		Log:    logrus.StandardLogger(),
	}
}

// Concentration returns the annual average concentration [μg/m³] of
// pollutant p at point (x, y), rounded to one decimal. It is the sum of
// the traffic contribution of the nearest road and the background
// concentration. If the nearest road is farther away than MaxDistance,
// the returned error matches ErrOutOfRange and no value is calculated.
func (e *Engine) Concentration(p Pollutant, x, y float64) (float64, error) {
	if !p.IsSupported() {
		return math.NaN(), errors.Wrapf(ErrUnsupportedPollutant, "%q", p)
	}
	pt := geom.Point{X: x, Y: y}
	road, d, err := e.Roads.Nearest(pt)
	if err != nil {
		return math.NaN(), err
	}
	if d > MaxDistance {
		e.Log.WithFields(logrus.Fields{
			"pollutant": p,
			"x":         x,
			"y":         y,
			"distance":  d,
		}).Debug("receptor out of range")
		return math.NaN(), errors.Wrapf(ErrOutOfRange, "(%g, %g) is %.1f m from the nearest road", x, y, d)
	}
	cell := CellIndex(x, y)
	traffic, err := e.TrafficConcentration(road, d, p, cell)
	if err != nil {
		return math.NaN(), err
	}
	bg, err := e.background(cell, p)
	if err != nil {
		return math.NaN(), err
	}
	return roundDecimal(traffic + bg), nil
}

// roundDecimal rounds v to one decimal the way the reference tables do:
// the exact binary value is rounded, with exact ties going to even.
func roundDecimal(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return math.NaN()
	}
	return r
}

// emissionFactor looks up an emission factor, applying e.MissingEmission.
func (e *Engine) emissionFactor(v VehicleClass, s SpeedRegime, p Pollutant) (float64, error) {
	ef, err := e.Tables.EmissionFactor(v, s, p, e.EmissionYear)
	return e.applyPolicy(ef, err, e.MissingEmission)
}

// background looks up a background concentration, applying e.MissingBackground.
func (e *Engine) background(cell GridCell, p Pollutant) (float64, error) {
	bg, err := e.Tables.Background(cell, p, e.BackgroundYear)
	return e.applyPolicy(bg, err, e.MissingBackground)
}

func (e *Engine) applyPolicy(v float64, err error, policy MissPolicy) (float64, error) {
	if err == nil {
		return v, nil
	}
	var m *missingEntry
	if policy == Zero && errors.As(err, &m) {
		e.Log.WithFields(logrus.Fields{
			"table": m.table,
			"key":   m.key,
		}).Warn("missing table entry; using 0")
		return 0, nil
	}
	return math.NaN(), err
}

// Result holds the outcome of a concentration calculation at a receptor.
type Result struct {
	Pollutant Pollutant
	X, Y      float64

	// Value is the concentration [μg/m³]. It is NaN when Err is not nil.
	Value float64

	// Err is the reason no concentration could be calculated.
	Err error
}

// OK returns whether a concentration was calculated.
func (r Result) OK() bool { return r.Err == nil }

// Status returns "ok" or a short description of the failure.
func (r Result) Status() string {
	switch {
	case r.Err == nil:
		return "ok"
	case errors.Is(r.Err, ErrOutOfRange):
		return "out of range"
	case errors.Is(r.Err, ErrNoMeteorologyData):
		return "no meteorology data"
	case errors.Is(r.Err, ErrMissingTableEntry):
		return "missing table entry"
	case errors.Is(r.Err, ErrUnsupportedPollutant):
		return "unsupported pollutant"
	case errors.Is(r.Err, ErrEmptyRoadCollection):
		return "no roads"
	case errors.Is(r.Err, ErrSingularCorrection):
		return "singular NO2 correction"
	}
	return "error"
}

// Evaluate calculates the concentration of p at (x, y) and returns
// the outcome as a Result.
func (e *Engine) Evaluate(p Pollutant, x, y float64) Result {
	v, err := e.Concentration(p, x, y)
	return Result{Pollutant: p, X: x, Y: y, Value: v, Err: err}
}

// EvaluateAll calculates the concentrations of each pollutant at each
// receptor, returning results ordered by receptor and then pollutant.
func (e *Engine) EvaluateAll(receptors []geom.Point, pollutants []Pollutant) []Result {
	o := make([]Result, 0, len(receptors)*len(pollutants))
	for _, r := range receptors {
		for _, p := range pollutants {
			o = append(o, e.Evaluate(p, r.X, r.Y))
		}
	}
	return o
}
