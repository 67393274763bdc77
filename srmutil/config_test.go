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
	"os"
	"path/filepath"
	"testing"

	"github.com/lnashier/viper"
	"github.com/pkg/errors"
	"github.com/spatialmodel/srm"
)

func TestEngineConfig(t *testing.T) {
	cfg := viper.New()
	cfg.Set("EmissionYear", "2020")
	cfg.Set("BackgroundYear", 2019)
	cfg.Set("MeteorologyYear", 2012)
	cfg.Set("MissingEmission", "Zero")
	cfg.Set("MissingBackground", "fail")
	c, err := EngineConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := srm.Config{
		EmissionYear:      2020,
		BackgroundYear:    2019,
		MeteorologyYear:   2012,
		MissingEmission:   srm.Zero,
		MissingBackground: srm.Fail,
	}
	if c != want {
		t.Errorf("have %+v, want %+v", c, want)
	}

	cfg.Set("MissingBackground", "skip")
	if _, err := EngineConfig(cfg); err == nil {
		t.Error("invalid MissingBackground should be an error")
	}
}

func TestPollutants(t *testing.T) {
	cfg := viper.New()
	cfg.Set("Pollutants", []string{"NO2", "pm2.5,EC"})
	have, err := pollutants(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := []srm.Pollutant{srm.NO2, srm.PM25, srm.EC}
	if len(have) != len(want) {
		t.Fatalf("have %v, want %v", have, want)
	}
	for i := range want {
		if have[i] != want[i] {
			t.Errorf("have %v, want %v", have, want)
		}
	}

	cfg.Set("Pollutants", []string{"CO2"})
	if _, err := pollutants(cfg); err == nil {
		t.Error("unknown pollutant should be an error")
	}
	for _, p := range []string{"NOx", "O3", "NO2,o3"} {
		cfg.Set("Pollutants", []string{p})
		if _, err := pollutants(cfg); !errors.Is(err, srm.ErrUnsupportedPollutant) {
			t.Errorf("%s: have %v, want %v", p, err, srm.ErrUnsupportedPollutant)
		}
	}
	cfg.Set("Pollutants", []string{})
	if _, err := pollutants(cfg); err == nil {
		t.Error("no pollutants should be an error")
	}
}

func TestGridSR(t *testing.T) {
	cfg := viper.New()
	cfg.Set("GridProj", "")
	sr, err := gridSR(cfg)
	if err != nil || sr != nil {
		t.Errorf("have %v (%v), want nil", sr, err)
	}
	cfg.Set("GridProj", "+proj=longlat")
	if sr, err = gridSR(cfg); err != nil || sr == nil {
		t.Errorf("have %v (%v)", sr, err)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("empty output file should be an error")
	}
	if _, err := checkOutputFile("/does/not/exist/out.shp"); err == nil {
		t.Error("missing output directory should be an error")
	}
	os.Setenv("SRM_TEST_DIR", os.TempDir())
	f, err := checkOutputFile("${SRM_TEST_DIR}/out.shp")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Clean(f) != filepath.Join(os.TempDir(), "out.shp") {
		t.Errorf("environment variable not expanded: %s", f)
	}
}
