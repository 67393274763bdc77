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

	"github.com/pkg/errors"
)

// Geometry of the background and meteorology grid, in the units of the
// road coordinates (meters in Belgian Lambert 72).
const (
	GridCellSize = 4000.
	GridOriginX  = 24000.
	GridOriginY  = 22000.
)

// GridCell holds the 1-based column (I) and row (J) indices of a
// background/meteorology grid cell.
type GridCell struct {
	I, J int
}

// CellIndex returns the grid cell that contains the point (x, y).
// X is snapped to the nearest cell edge and y to the center of the cell
// below it, reproducing the spreadsheet formulas the lookup tables were
// generated with: ties in x round to even and y is truncated toward zero.
func CellIndex(x, y float64) GridCell {
	a := math.RoundToEven(x/GridCellSize) * GridCellSize
	b := (math.Trunc(y/GridCellSize) + 0.5) * GridCellSize
	return GridCell{
		I: int((a-GridOriginX)/GridCellSize) + 1,
		J: int((b-GridOriginY)/GridCellSize) + 1,
	}
}

// String returns the "i-j" key used in the background concentration table.
func (c GridCell) String() string {
	return fmt.Sprintf("%d-%d", c.I, c.J)
}

// ParseCellKey parses an "i-j" background table key. The indices may be
// negative, so the separator is the first '-' that is not a sign.
func ParseCellKey(key string) (GridCell, error) {
	key = strings.TrimSpace(key)
	start := 0
	if strings.HasPrefix(key, "-") {
		start = 1
	}
	sep := strings.Index(key[start:], "-")
	if sep < 0 {
		return GridCell{}, fmt.Errorf("srm: invalid grid cell key %q", key)
	}
	sep += start
	i, err := strconv.Atoi(key[:sep])
	if err != nil {
		return GridCell{}, errors.Wrapf(err, "srm: invalid grid cell key %q", key)
	}
	j, err := strconv.Atoi(key[sep+1:])
	if err != nil {
		return GridCell{}, errors.Wrapf(err, "srm: invalid grid cell key %q", key)
	}
	return GridCell{I: i, J: j}, nil
}

// CellYear identifies a grid cell in a given year.
type CellYear struct {
	Cell GridCell
	Year int
}

// SearchKey returns the numeric key used in the meteorology table, which
// is the decimal concatenation of i, j and the year. The concatenation
// is not unique (e.g. cells 1-12 and 11-2 share a key); lookups keep that
// behavior so results match the reference tables. ok is false when the
// key cannot be represented as an integer, as happens when J is negative.
func (c CellYear) SearchKey() (key int64, ok bool) {
	s := strconv.Itoa(c.Cell.I) + strconv.Itoa(c.Cell.J) + strconv.Itoa(c.Year)
	k, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return k, true
}
