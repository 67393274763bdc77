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


package srmutil

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom/proj"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/srm"
)

// outOfRangeMessage is printed instead of a concentration table when the
// receptor is too far from the nearest road.
var outOfRangeMessage = fmt.Sprintf("The calculation point is more than %g meters away from the nearest road.", srm.MaxDistance)

// Concentration writes a table of the concentrations [μg/m³] of pollutants
// at (x, y) to w.
func Concentration(w io.Writer, e *srm.Engine, x, y float64, pollutants []srm.Pollutant) error {
	fmt.Fprintf(w, "Air quality at position (%s, %s):\n", formatCoord(x), formatCoord(y))
	fmt.Fprintf(w, "\n%-10s | %-13s\n", "Pollutant", "Concentration")
	fmt.Fprintln(w, strings.Repeat("-", 25))
	for _, p := range pollutants {
		v, err := e.Concentration(p, x, y)
		if errors.Is(err, srm.ErrOutOfRange) {
			fmt.Fprintln(w, outOfRangeMessage)
			return nil
		} else if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-10s | %-13s\n", p, strconv.FormatFloat(v, 'f', 1, 64))
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Grid writes the grid cell containing (x, y) and its table keys to w.
func Grid(w io.Writer, x, y float64, backgroundYear, meteorologyYear int) error {
	c := srm.CellIndex(x, y)
	fmt.Fprintf(w, "Grid cell:               %d, %d\n", c.I, c.J)
	fmt.Fprintf(w, "Background key:          %s (year %d)\n", c, backgroundYear)
	k, ok := srm.CellYear{Cell: c, Year: meteorologyYear}.SearchKey()
	if !ok {
		fmt.Fprintf(w, "Meteorology search key:  none\n")
		return nil
	}
	fmt.Fprintf(w, "Meteorology search key:  %d\n", k)
	return nil
}

// Batch calculates the concentrations of pollutants at the receptors in
// receptorFile and writes them to outputFile. If sr is not nil, the
// receptors are reprojected to it.
func Batch(e *srm.Engine, receptorFile, outputFile string, sr *proj.SR, pollutants []srm.Pollutant) error {
	receptors, err := srm.ReadReceptorShapefile(receptorFile, sr)
	if err != nil {
		return err
	}
	start := time.Now()
	results := e.EvaluateAll(receptors, pollutants)

	status := make(map[string]int)
	for _, r := range results {
		status[r.Status()]++
		if !r.OK() && !errors.Is(r.Err, srm.ErrOutOfRange) {
			Log.WithFields(logrus.Fields{
				"x":         r.X,
				"y":         r.Y,
				"pollutant": r.Pollutant,
			}).WithError(r.Err).Debug("concentration not calculated")
		}
	}
	fields := logrus.Fields{
		"receptors": len(receptors),
		"results":   len(results),
		"time":      time.Since(start),
	}
	for s, n := range status {
		fields[s] = n
	}
	Log.WithFields(fields).Info("calculated concentrations")

	if err := srm.WriteResults(outputFile, results); err != nil {
		return err
	}
	Log.WithField("file", outputFile).Info("wrote results")
	return nil
}
