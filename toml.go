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
	"io"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// tomlTables is the TOML representation of Tables. Keys use the same
// formats as the CAR-VL3.0 workbook, for example:
//
//	[[emission]]
//	key = "pc2015"
//	factors = {NOx = 0.35, NO2 = 0.1, PM10 = 0.03, PM25 = 0.02, EC = 0.01}
//
//	[[background]]
//	cell = "27-41"
//	year = 2015
//	concentrations = {NO2 = 20.0, O3 = 40.0, PM10 = 20.0, PM25 = 12.0, EC = 1.0}
//
//	[[meteorology]]
//	cell = "27-41"
//	year = 2012
//	wind_speed = 3.0
type tomlTables struct {
	Emission []struct {
		Key     string             `toml:"key"`
		Factors map[string]float64 `toml:"factors"`
	} `toml:"emission"`
	Background []struct {
		Cell           string             `toml:"cell"`
		Year           int                `toml:"year"`
		Concentrations map[string]float64 `toml:"concentrations"`
	} `toml:"background"`
	Meteorology []struct {
		Cell      string  `toml:"cell"`
		Year      int     `toml:"year"`
		WindSpeed float64 `toml:"wind_speed"`
	} `toml:"meteorology"`
}

// ReadTablesTOML reads lookup tables from a TOML document.
func ReadTablesTOML(r io.Reader) (*Tables, error) {
	var tt tomlTables
	if _, err := toml.DecodeReader(r, &tt); err != nil {
		return nil, fmt.Errorf("srm: decoding TOML tables: %v", err)
	}
	t := NewTables()
	for i, e := range tt.Emission {
		k, err := ParseEmissionKey(e.Key)
		if err != nil {
			return nil, errors.Wrapf(err, "emission row %d", i)
		}
		for name, v := range e.Factors {
			p, err := ParsePollutant(name)
			if err != nil {
				return nil, errors.Wrapf(err, "emission row %d", i)
			}
			t.Emission.Set(k, p, v)
		}
	}
	for i, b := range tt.Background {
		c, err := ParseCellKey(b.Cell)
		if err != nil {
			return nil, errors.Wrapf(err, "background row %d", i)
		}
		for name, v := range b.Concentrations {
			p, err := ParsePollutant(name)
			if err != nil {
				return nil, errors.Wrapf(err, "background row %d", i)
			}
			t.Concentration.Set(c, b.Year, p, v)
		}
	}
	for i, m := range tt.Meteorology {
		c, err := ParseCellKey(m.Cell)
		if err != nil {
			return nil, errors.Wrapf(err, "meteorology row %d", i)
		}
		if err := t.Wind.Set(c, m.Year, m.WindSpeed); err != nil {
			return nil, errors.Wrapf(err, "meteorology row %d", i)
		}
	}
	return t, nil
}
