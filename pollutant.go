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
	"strings"

	"github.com/pkg/errors"
)

// Pollutant identifies a chemical species. Its value is the name used
// in the column headers of the lookup tables.
type Pollutant string

// Pollutants known to the model. NOx and O3 are only used internally
// by the NO2 chemistry correction.
const (
	NO2  Pollutant = "NO2"
	PM10 Pollutant = "PM10"
	PM25 Pollutant = "PM25"
	EC   Pollutant = "EC"
	NOx  Pollutant = "NOx"
	O3   Pollutant = "O3"
)

// Supported lists the pollutants that concentrations can be requested for.
var Supported = []Pollutant{NO2, PM10, PM25, EC}

// IsSupported returns whether concentrations can be calculated for p.
func (p Pollutant) IsSupported() bool {
	for _, s := range Supported {
		if p == s {
			return true
		}
	}
	return false
}

// ParsePollutant converts a pollutant name to a Pollutant. Matching is
// case insensitive and "PM2.5" and "PM2_5" are accepted as aliases of PM25.
func ParsePollutant(name string) (Pollutant, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NO2":
		return NO2, nil
	case "PM10":
		return PM10, nil
	case "PM25", "PM2.5", "PM2_5":
		return PM25, nil
	case "EC":
		return EC, nil
	case "NOX":
		return NOx, nil
	case "O3":
		return O3, nil
	}
	return "", errors.Wrapf(ErrUnsupportedPollutant, "srm: parsing %q", name)
}
