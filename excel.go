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
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/pkg/errors"
	"github.com/tealeg/xlsx"
)

// Names of the worksheets in a CAR-VL3.0 workbook.
const (
	SheetEmission    = "Emissiefactoren CAR-VL3.0"
	SheetBackground  = "Backgroundconc"
	SheetMeteorology = "Meteo CAR-VL3.0"
)

// Column headers in the CAR-VL3.0 worksheets.
const (
	columnCellKey   = "XiYI"
	columnSearchKey = "Search key"
	columnWindSpeed = "Windspeed"
	prefixEmission  = "EF_"
)

// backgroundColumn matches background concentration headers such as "NO2_2015".
var backgroundColumn = regexp.MustCompile(`^(.+)_(\d{4})$`)

// ReadTables reads lookup tables from a CAR-VL3.0 workbook (.xlsx) or
// a TOML file (.toml), depending on the file extension.
func ReadTables(fname string) (*Tables, error) {
	fname = os.ExpandEnv(fname)
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".xlsx":
		return ReadTablesExcel(fname)
	case ".toml":
		f, err := os.Open(fname)
		if err != nil {
			return nil, fmt.Errorf("srm: opening tables file: %v", err)
		}
		defer f.Close()
		return ReadTablesTOML(f)
	}
	return nil, fmt.Errorf("srm: unsupported tables file type '%s'; use .xlsx or .toml", fname)
}

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads an Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("srm: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(10))
	})
	r := excelCache.NewRequest(context.Background(), fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// ReadTablesExcel reads the emission factor, background concentration and
// meteorology worksheets of a CAR-VL3.0 workbook. Empty cells are left
// out of the tables so that looking them up returns ErrMissingTableEntry.
func ReadTablesExcel(fname string) (*Tables, error) {
	f, err := loadExcelFile(fname)
	if err != nil {
		return nil, err
	}
	t := NewTables()
	readers := []struct {
		sheet string
		read  func(*xlsx.Sheet, *Tables) error
	}{
		{SheetEmission, readEmissionSheet},
		{SheetBackground, readBackgroundSheet},
		{SheetMeteorology, readMeteorologySheet},
	}
	for _, r := range readers {
		s, ok := f.Sheet[r.sheet]
		if !ok {
			return nil, fmt.Errorf("srm: reading tables from Excel; no sheet %s in %s", r.sheet, fname)
		}
		if err := r.read(s, t); err != nil {
			return nil, errors.Wrapf(err, "srm: reading sheet %s in %s", r.sheet, fname)
		}
	}
	return t, nil
}

// readEmissionSheet reads a sheet whose first column holds emission keys
// and whose "EF_<pollutant>" columns hold emission factors. Columns for
// other pollutants and rows with unrecognized keys are skipped.
func readEmissionSheet(s *xlsx.Sheet, t *Tables) error {
	header := headerRow(s)
	cols := make(map[int]Pollutant)
	seen := make(map[Pollutant]int)
	for i, h := range header {
		if !strings.HasPrefix(h, prefixEmission) {
			continue
		}
		p, err := ParsePollutant(strings.TrimPrefix(h, prefixEmission))
		if err != nil {
			continue
		}
		if prev, ok := seen[p]; ok {
			return fmt.Errorf("srm: columns %q and %q both hold %s emission factors", header[prev], h, p)
		}
		seen[p] = i
		cols[i] = p
	}
	for j := 1; j < len(s.Rows); j++ {
		key, err := ParseEmissionKey(cellString(s, j, 0))
		if err != nil {
			continue
		}
		for i, p := range cols {
			v, ok, err := cellFloat(s, j, i)
			if err != nil {
				return err
			}
			if ok {
				t.Emission.Set(key, p, v)
			}
		}
	}
	return nil
}

// readBackgroundSheet reads a sheet with an "i-j" grid cell key column and
// "<pollutant>_<year>" concentration columns.
func readBackgroundSheet(s *xlsx.Sheet, t *Tables) error {
	header := headerRow(s)
	keyCol, err := columnIndex(header, columnCellKey)
	if err != nil {
		return err
	}
	type polYear struct {
		p    Pollutant
		year int
	}
	cols := make(map[int]polYear)
	seen := make(map[polYear]int)
	for i, h := range header {
		m := backgroundColumn.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		p, err := ParsePollutant(m[1])
		if err != nil {
			continue
		}
		year, _ := strconv.Atoi(m[2])
		py := polYear{p: p, year: year}
		if prev, ok := seen[py]; ok {
			return fmt.Errorf("srm: columns %q and %q both hold %s concentrations for %d", header[prev], h, p, year)
		}
		seen[py] = i
		cols[i] = py
	}
	for j := 1; j < len(s.Rows); j++ {
		k := cellString(s, j, keyCol)
		if k == "" {
			continue
		}
		cell, err := ParseCellKey(k)
		if err != nil {
			return err
		}
		for i, py := range cols {
			v, ok, err := cellFloat(s, j, i)
			if err != nil {
				return err
			}
			if ok {
				t.Concentration.Set(cell, py.year, py.p, v)
			}
		}
	}
	return nil
}

// readMeteorologySheet reads a sheet with a numeric search key column
// and a wind speed column.
func readMeteorologySheet(s *xlsx.Sheet, t *Tables) error {
	header := headerRow(s)
	keyCol, err := columnIndex(header, columnSearchKey)
	if err != nil {
		return err
	}
	wsCol, err := columnIndex(header, columnWindSpeed)
	if err != nil {
		return err
	}
	for j := 1; j < len(s.Rows); j++ {
		k, ok, err := cellFloat(s, j, keyCol)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		ws, ok, err := cellFloat(s, j, wsCol)
		if err != nil {
			return err
		}
		if ok {
			t.Wind[int64(math.Round(k))] = ws
		}
	}
	return nil
}

func headerRow(s *xlsx.Sheet) []string {
	if len(s.Rows) == 0 {
		return nil
	}
	o := make([]string, len(s.Rows[0].Cells))
	for i, c := range s.Rows[0].Cells {
		o[i] = strings.TrimSpace(c.Value)
	}
	return o
}

func columnIndex(header []string, name string) (int, error) {
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("srm: missing column %q", name)
}

// cellString returns the trimmed contents of the cell at the given row and
// column, or "" if the row is too short.
func cellString(s *xlsx.Sheet, row, col int) string {
	r := s.Rows[row]
	if r == nil || col >= len(r.Cells) {
		return ""
	}
	return strings.TrimSpace(r.Cells[col].Value)
}

// cellFloat parses the cell at the given row and column. ok is false
// for empty cells.
func cellFloat(s *xlsx.Sheet, row, col int) (v float64, ok bool, err error) {
	str := cellString(s, row, col)
	if str == "" {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, false, fmt.Errorf("srm: row %d, column %d: %v", row+1, col+1, err)
	}
	return v, true, nil
}
