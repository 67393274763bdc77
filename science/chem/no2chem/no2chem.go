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

// Package no2chem contains the simplified NO–NO2–O3 photostationary
// equilibrium used by SRM1 to convert traffic NOx into NO2.
package no2chem

import (
	"github.com/pkg/errors"
)

// Parameters of the conversion.
const (
	// B is the fraction of background ozone available for the
	// conversion of NO to NO2 [-].
	B = 0.6

	// K is the equilibrium parameter of the NO to NO2 conversion [μg/m³].
	K = 100.
)

// ErrSingular is returned when the correction denominator is zero.
var ErrSingular = errors.New("no2chem: singular NO2 correction")

// Correct returns the NO2 concentration after reaction of the directly
// emitted NO2 (no2) with background ozone (o3), given the NOx
// concentration (nox) from the same source. All values are in μg/m³.
//
// The correction term vanishes when nox == no2, i.e. when there is no
// NO available to be oxidized.
func Correct(no2, nox, o3 float64) (float64, error) {
	no := nox - no2
	denom := no + K
	if denom == 0 {
		return 0, errors.Wrapf(ErrSingular, "NOx=%g, NO2=%g", nox, no2)
	}
	return no2 + B*o3*no/denom, nil
}
