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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom/proj"
	"github.com/lnashier/viper"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/srm"
	"github.com/spf13/cast"
)

// Log is the logger used by the command-line interface and the
// models it creates.
var Log = logrus.StandardLogger()

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
}

// setLogLevel sets the level of Log from its name.
func setLogLevel(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("srm: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(l)
	return nil
}

// EngineConfig returns the model configuration specified in cfg.
func EngineConfig(cfg *viper.Viper) (srm.Config, error) {
	c := srm.DefaultConfig()
	var err error
	if c.EmissionYear, err = cast.ToIntE(cfg.Get("EmissionYear")); err != nil {
		return c, fmt.Errorf("srm: reading EmissionYear: %v", err)
	}
	if c.BackgroundYear, err = cast.ToIntE(cfg.Get("BackgroundYear")); err != nil {
		return c, fmt.Errorf("srm: reading BackgroundYear: %v", err)
	}
	if c.MeteorologyYear, err = cast.ToIntE(cfg.Get("MeteorologyYear")); err != nil {
		return c, fmt.Errorf("srm: reading MeteorologyYear: %v", err)
	}
	if c.MissingEmission, err = srm.ParseMissPolicy(cfg.GetString("MissingEmission")); err != nil {
		return c, fmt.Errorf("srm: reading MissingEmission: %v", err)
	}
	if c.MissingBackground, err = srm.ParseMissPolicy(cfg.GetString("MissingBackground")); err != nil {
		return c, fmt.Errorf("srm: reading MissingBackground: %v", err)
	}
	return c, nil
}

// pollutants returns the pollutants specified in cfg.
func pollutants(cfg *viper.Viper) ([]srm.Pollutant, error) {
	names, err := cast.ToStringSliceE(cfg.Get("Pollutants"))
	if err != nil {
		return nil, fmt.Errorf("srm: reading Pollutants: %v", err)
	}
	var o []srm.Pollutant
	for _, n := range names {
		// Values from environment variables are not split.
		for _, nn := range strings.Split(n, ",") {
			if nn = strings.TrimSpace(nn); nn == "" {
				continue
			}
			p, err := srm.ParsePollutant(nn)
			if err != nil {
				return nil, err
			}
			if !p.IsSupported() {
				return nil, errors.Wrapf(srm.ErrUnsupportedPollutant, "Pollutants: %q", p)
			}
			o = append(o, p)
		}
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("srm: no Pollutants specified")
	}
	return o, nil
}

// gridSR returns the grid spatial reference specified in cfg, or nil
// if none is specified.
func gridSR(cfg *viper.Viper) (*proj.SR, error) {
	s := cfg.GetString("GridProj")
	if s == "" {
		return nil, nil
	}
	sr, err := proj.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("srm: parsing GridProj: %v", err)
	}
	return sr, nil
}

// loadEngine reads the road network and lookup tables specified in cfg
// and returns a model that uses them.
func loadEngine(cfg *viper.Viper) (*srm.Engine, error) {
	c, err := EngineConfig(cfg)
	if err != nil {
		return nil, err
	}
	sr, err := gridSR(cfg)
	if err != nil {
		return nil, err
	}
	roadFile, err := checkInputFile("RoadShapefile", cfg.GetString("RoadShapefile"))
	if err != nil {
		return nil, err
	}
	tablesFile, err := checkInputFile("TablesFile", cfg.GetString("TablesFile"))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	roads, err := srm.ReadRoadShapefile(roadFile, sr)
	if err != nil {
		return nil, err
	}
	Log.WithFields(logrus.Fields{
		"file":  roadFile,
		"roads": len(roads),
		"time":  time.Since(start),
	}).Info("read road network")

	start = time.Now()
	tables, err := srm.ReadTables(tablesFile)
	if err != nil {
		return nil, err
	}
	Log.WithFields(logrus.Fields{
		"file":        tablesFile,
		"emission":    len(tables.Emission),
		"background":  len(tables.Concentration),
		"meteorology": len(tables.Wind),
		"time":        time.Since(start),
	}).Info("read lookup tables")

	e := srm.NewEngine(roads, tables, c)
	e.Log = Log
	return e, nil
}

// checkInputFile makes sure that the input file variable name is specified,
// and expands any environment variables.
func checkInputFile(name, f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf("srm: you need to specify the %s configuration variable", name)
	}
	return os.ExpandEnv(f), nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`srm: you need to specify an output file configuration variable (for example: OutputFile="output.shp")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("srm: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
