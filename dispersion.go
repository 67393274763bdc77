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

	"github.com/pkg/errors"
	"github.com/spatialmodel/srm/science/chem/no2chem"
	"gonum.org/v1/gonum/floats"
)

// Model constants.
const (
	// MaxDistance is the largest receptor distance from a road [m] for
	// which a traffic contribution is calculated.
	MaxDistance = 60.

	// MinDistance is the smallest distance [m] the dilution curves are
	// calibrated for. Receptors closer to the road are moved to it.
	MinDistance = 3.5

	// powerLawDistance is the distance [m] beyond which roads with a
	// power law dilution curve use it instead of the quadratic fit.
	powerLawDistance = 30.

	// powerLawExponent is the exponent of the power law dilution curve.
	powerLawExponent = -0.747

	// Fk is the SRM1 calibration factor [-].
	Fk = 0.62

	// referenceWindSpeed [m/s] is divided by the regional wind speed to
	// get the meteorology correction factor.
	referenceWindSpeed = 5.

	// gPerKmToUgPerM converts g/km to μg/m.
	gPerKmToUgPerM = 1000.
	secondsPerDay  = 24. * 3600.
)

// dilution holds the coefficients of a road class dilution curve.
// Alpha is zero for classes that only use the quadratic fit.
type dilution struct {
	a, b, c float64 // θ = a·d² + b·d + c
	alpha   float64 // θ = α·d^-0.747, for d > 30
}

var dilutionCoefficients = map[RoadClass]dilution{
	BroadCanyon:       {a: 0.000325, b: -0.0205, c: 0.39, alpha: 0.856},
	SmallCanyon:       {a: 0.000488, b: -0.0308, c: 0.59},
	OneSidedBuildings: {a: 0.0005, b: -0.0316, c: 0.57},
	GeneralUrban:      {a: 0.000310, b: -0.0182, c: 0.33, alpha: 0.799},
}

// Dilution returns the dilution factor θ [s/m²] for a receptor at
// distance d [m] from a road of class c. The power law and quadratic
// curves are not exactly continuous at 30 m.
func Dilution(c RoadClass, d float64) (float64, error) {
	k, ok := dilutionCoefficients[c]
	if !ok {
		return math.NaN(), errors.Wrapf(ErrInvalidRoad, "road class %d", int(c))
	}
	if k.alpha != 0 && d > powerLawDistance {
		return k.alpha * math.Pow(d, powerLawExponent), nil
	}
	return k.a*d*d + k.b*d + k.c, nil
}

// EmissionFactorFunc returns the emission factor [g/vehicle/km] for a
// vehicle class in a speed regime.
type EmissionFactorFunc func(VehicleClass, SpeedRegime) (float64, error)

// EmissionRate returns the emission rate of road r [μg/m/s], looking up
// emission factors with ef. Free-flowing traffic uses the road's speed
// regime and stagnant traffic always uses the congested regime.
func EmissionRate(r *Road, ef EmissionFactorFunc) (float64, error) {
	// In VehicleClasses order.
	fracs := []float64{r.FracLight(), r.FracMedium, r.FracHeavy, r.FracBus}
	fleet := func(s SpeedRegime) (float64, error) {
		efs := make([]float64, len(VehicleClasses))
		for i, v := range VehicleClasses {
			e, err := ef(v, s)
			if err != nil {
				return math.NaN(), err
			}
			efs[i] = e
		}
		return floats.Dot(fracs, efs), nil
	}
	eRegular, err := fleet(r.Speed)
	if err != nil {
		return math.NaN(), err
	}
	eCong, err := fleet(Stagnant)
	if err != nil {
		return math.NaN(), err
	}
	n := float64(r.Intensity)
	eRegular = n * (1 - r.FracStagnant) * eRegular * gPerKmToUgPerM / secondsPerDay
	eCong = n * r.FracStagnant * eCong * gPerKmToUgPerM / secondsPerDay
	return eRegular + eCong, nil
}

// TrafficConcentration returns the concentration [μg/m³] of pollutant p
// caused by road r at a receptor at distance d [m] from it in grid cell
// cell. Receptors farther than MaxDistance return ErrOutOfRange.
// For NO2, the result includes the reaction of NO with background ozone,
// which requires the NOx concentration from the same road.
func (e *Engine) TrafficConcentration(r *Road, d float64, p Pollutant, cell GridCell) (float64, error) {
	if d > MaxDistance {
		return math.NaN(), errors.Wrapf(ErrOutOfRange, "distance %g m", d)
	}
	if d < MinDistance {
		d = MinDistance
	}

	emis, err := EmissionRate(r, func(v VehicleClass, s SpeedRegime) (float64, error) {
		return e.emissionFactor(v, s, p)
	})
	if err != nil {
		return math.NaN(), err
	}
	theta, err := Dilution(r.Class, d)
	if err != nil {
		return math.NaN(), err
	}
	ws, err := e.Tables.WindSpeed(cell, e.MeteorologyYear)
	if err != nil {
		return math.NaN(), err
	}
	if !(ws > 0) {
		return math.NaN(), errors.Wrapf(ErrNoMeteorologyData, "wind speed %g m/s in cell %s", ws, cell)
	}
	fRegio := referenceWindSpeed / ws

	c := Fk * emis * theta * r.TreeFactor * fRegio
	if p != NO2 {
		return c, nil
	}

	// NOx never recurses further, so this is at most one level deep.
	cNOx, err := e.TrafficConcentration(r, d, NOx, cell)
	if err != nil {
		return math.NaN(), err
	}
	o3, err := e.background(cell, O3)
	if err != nil {
		return math.NaN(), err
	}
	return no2chem.Correct(c, cNOx, o3)
}
