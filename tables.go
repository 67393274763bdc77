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
	"strconv"

	"github.com/pkg/errors"
)

// Names of the lookup tables, used in error messages and logs.
const (
	tableEmission    = "emission factors"
	tableBackground  = "background concentrations"
	tableMeteorology = "meteorology"
)

// VehicleClass is the one-letter vehicle category code used in the
// emission factor table.
type VehicleClass string

// Vehicle classes.
const (
	Light  VehicleClass = "p" // passenger cars and vans
	Medium VehicleClass = "m" // medium-weight trucks
	Heavy  VehicleClass = "v" // heavy trucks
	Bus    VehicleClass = "b"
)

// VehicleClasses lists all vehicle classes in emission table order.
var VehicleClasses = []VehicleClass{Light, Medium, Heavy, Bus}

// EmissionKey identifies a row in the emission factor table.
type EmissionKey struct {
	Vehicle VehicleClass
	Speed   SpeedRegime
	Year    int
}

// String returns the key in the "<vehicle><speed><year>" form used
// in the first column of the emission factor table, e.g. "pa2015".
func (k EmissionKey) String() string {
	return string(k.Vehicle) + string(k.Speed) + strconv.Itoa(k.Year)
}

// ParseEmissionKey parses a key in the form returned by EmissionKey.String.
func ParseEmissionKey(s string) (EmissionKey, error) {
	if len(s) < 3 {
		return EmissionKey{}, fmt.Errorf("srm: invalid emission key %q", s)
	}
	v := VehicleClass(s[0:1])
	valid := false
	for _, vc := range VehicleClasses {
		if v == vc {
			valid = true
		}
	}
	if !valid {
		return EmissionKey{}, fmt.Errorf("srm: invalid vehicle class in emission key %q", s)
	}
	speed, err := ParseSpeedRegime(s[1:2])
	if err != nil {
		return EmissionKey{}, errors.Wrapf(err, "srm: emission key %q", s)
	}
	year, err := strconv.Atoi(s[2:])
	if err != nil {
		return EmissionKey{}, errors.Wrapf(err, "srm: invalid year in emission key %q", s)
	}
	return EmissionKey{Vehicle: v, Speed: speed, Year: year}, nil
}

// EmissionFactors holds emission factors [g/vehicle/km] by key and pollutant.
type EmissionFactors map[EmissionKey]map[Pollutant]float64

// Set sets the emission factor for key k and pollutant p.
func (e EmissionFactors) Set(k EmissionKey, p Pollutant, v float64) {
	row, ok := e[k]
	if !ok {
		row = make(map[Pollutant]float64)
		e[k] = row
	}
	row[p] = v
}

// BackgroundConcentrations holds background concentrations [μg/m³]
// by grid cell, year and pollutant.
type BackgroundConcentrations map[CellYear]map[Pollutant]float64

// Set sets the background concentration of p in cell c and year.
func (b BackgroundConcentrations) Set(c GridCell, year int, p Pollutant, v float64) {
	k := CellYear{Cell: c, Year: year}
	row, ok := b[k]
	if !ok {
		row = make(map[Pollutant]float64)
		b[k] = row
	}
	row[p] = v
}

// Meteorology holds annual average wind speeds [m/s] indexed by
// CellYear.SearchKey.
type Meteorology map[int64]float64

// Set sets the wind speed for cell c and year.
func (m Meteorology) Set(c GridCell, year int, windSpeed float64) error {
	k, ok := CellYear{Cell: c, Year: year}.SearchKey()
	if !ok {
		return fmt.Errorf("srm: grid cell %v in %d has no meteorology search key", c, year)
	}
	m[k] = windSpeed
	return nil
}

// Tables holds the lookup tables needed to calculate concentrations.
// Tables should not be modified after they are passed to an Engine.
type Tables struct {
	Emission      EmissionFactors
	Concentration BackgroundConcentrations
	Wind          Meteorology
}

// NewTables returns a set of empty tables.
func NewTables() *Tables {
	return &Tables{
		Emission:      make(EmissionFactors),
		Concentration: make(BackgroundConcentrations),
		Wind:          make(Meteorology),
	}
}

// EmissionFactor returns the emission factor [g/vehicle/km] of pollutant p
// for vehicle class v driving in speed regime s in the given year.
func (t *Tables) EmissionFactor(v VehicleClass, s SpeedRegime, p Pollutant, year int) (float64, error) {
	k := EmissionKey{Vehicle: v, Speed: s, Year: year}
	if row, ok := t.Emission[k]; ok {
		if ef, ok := row[p]; ok {
			return ef, nil
		}
	}
	return 0, &missingEntry{table: tableEmission, key: fmt.Sprintf("%s/EF_%s", k, p)}
}

// Background returns the background concentration [μg/m³] of p in
// grid cell c in the given year.
func (t *Tables) Background(c GridCell, p Pollutant, year int) (float64, error) {
	if row, ok := t.Concentration[CellYear{Cell: c, Year: year}]; ok {
		if v, ok := row[p]; ok {
			return v, nil
		}
	}
	return 0, &missingEntry{table: tableBackground, key: fmt.Sprintf("%s/%s_%d", c, p, year)}
}

// WindSpeed returns the wind speed [m/s] in grid cell c in the given year.
func (t *Tables) WindSpeed(c GridCell, year int) (float64, error) {
	cy := CellYear{Cell: c, Year: year}
	if k, ok := cy.SearchKey(); ok {
		if v, ok := t.Wind[k]; ok {
			return v, nil
		}
	}
	return 0, &missingEntry{table: tableMeteorology, key: fmt.Sprintf("%s/%d", c, year)}
}
