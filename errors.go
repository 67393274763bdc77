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

	"github.com/pkg/errors"
	"github.com/spatialmodel/srm/science/chem/no2chem"
)

// Errors returned by the model. Returned errors carry additional context
// and should be compared using errors.Is.
var (
	// ErrUnsupportedPollutant is returned when a concentration is requested
	// for a pollutant other than NO2, PM10, PM25 or EC.
	ErrUnsupportedPollutant = errors.New("srm: unsupported pollutant")

	// ErrEmptyRoadCollection is returned when there are no roads to search.
	ErrEmptyRoadCollection = errors.New("srm: empty road collection")

	// ErrOutOfRange is returned when the receptor is farther than
	// MaxDistance from the nearest road. It is an expected outcome
	// meaning that no traffic contribution was calculated.
	ErrOutOfRange = errors.New("srm: receptor is out of range of the nearest road")

	// ErrMissingTableEntry is returned when a lookup table has no row
	// for the requested key.
	ErrMissingTableEntry = errors.New("srm: missing table entry")

	// ErrNoMeteorologyData is returned when no usable wind speed is
	// available for a grid cell.
	ErrNoMeteorologyData = errors.New("srm: no meteorology data")

	// ErrSingularCorrection is returned when the denominator of the NO2
	// equilibrium correction is zero.
	ErrSingularCorrection = no2chem.ErrSingular

	// ErrInvalidRoad is returned when road attributes are out of bounds.
	ErrInvalidRoad = errors.New("srm: invalid road")

	// ErrUnsupportedGeometry is returned for road geometries that are not
	// points or lines.
	ErrUnsupportedGeometry = errors.New("srm: unsupported geometry")
)

// missingEntry describes a failed table lookup.
type missingEntry struct {
	table string
	key   string
}

func (m *missingEntry) Error() string {
	return fmt.Sprintf("srm: missing table entry: table %s has no row for key %s", m.table, m.key)
}

// Is allows missingEntry to match ErrMissingTableEntry and, for
// meteorology lookups, ErrNoMeteorologyData.
func (m *missingEntry) Is(target error) bool {
	switch target {
	case ErrMissingTableEntry:
		return true
	case ErrNoMeteorologyData:
		return m.table == tableMeteorology
	}
	return false
}
