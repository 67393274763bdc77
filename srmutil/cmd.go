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


// Package srmutil contains the command-line interface for the SRM
// near-road air quality model.
package srmutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/srm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to SRM.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum level of log messages to print.
              Options are debug, info, warning, and error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "RoadShapefile",
			usage: `
              RoadShapefile specifies the path to a line shapefile with the
              road network. Each road needs the attributes class, intensity,
              f_cong, f_medium, f_heavy, f_bus, speed_type, and t_factor.
              It can contain environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "TablesFile",
			usage: `
              TablesFile specifies the path to the lookup tables with emission
              factors, background concentrations, and wind speeds. It can be
              a CAR-VL3.0 Excel workbook (.xlsx) or a TOML file (.toml) and
              can contain environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "GridProj",
			usage: `
              GridProj gives projection info for the Lambert 72 model grid in
              Proj4 or WKT format. If it is specified, input shapefiles are
              reprojected from the projection in their .prj files. If it is
              empty, input coordinates are assumed to already be in the grid
              projection.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "EmissionYear",
			usage: `
              EmissionYear specifies the year of the emission factors to use.`,
			defaultVal: 2015,
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), gridCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "BackgroundYear",
			usage: `
              BackgroundYear specifies the year of the background concentrations
              to use.`,
			defaultVal: 2015,
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), gridCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "MeteorologyYear",
			usage: `
              MeteorologyYear specifies the year of the wind speeds to use.`,
			defaultVal: 2012,
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), gridCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "MissingEmission",
			usage: `
              MissingEmission specifies what to do when an emission factor is
              missing from the tables. "fail" returns an error and "zero" uses
              an emission factor of zero and logs a warning.`,
			defaultVal: "fail",
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "MissingBackground",
			usage: `
              MissingBackground specifies what to do when a background
              concentration is missing from the tables. "fail" returns an
              error and "zero" uses a background of zero and logs a warning.`,
			defaultVal: "fail",
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Pollutants",
			usage: `
              Pollutants specifies the pollutants to calculate concentrations of.
              Options are NO2, PM10, PM25, and EC.`,
			defaultVal: []string{"NO2", "PM10", "PM25", "EC"},
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "x",
			usage: `
              x specifies the Lambert 72 X coordinate of the receptor [m].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "y",
			usage: `
              y specifies the Lambert 72 Y coordinate of the receptor [m].`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{concentrationCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "ReceptorShapefile",
			usage: `
              ReceptorShapefile specifies the path to a point shapefile with
              receptor locations. It can contain environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the desired output file. It can
              be a shapefile (.shp) or GeoJSON (.geojson) file and can contain
              environment variables.`,
			defaultVal: "srm_results.shp",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SRM")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(concentrationCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(batchCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("srm: problem reading configuration file: %v", err)
		}
	}
	return setLogLevel(Cfg.GetString("LogLevel"))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "srm",
	Short: "A near-road air quality model.",
	Long: `SRM estimates annual average concentrations of NO2, PM10, PM2.5, and
elemental carbon near roads by adding the contribution of the nearest road,
calculated with the SRM1 street model and the CAR-VL3.0 tables, to the
background concentration of the surrounding 4 km grid cell.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SRM_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of SRM.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "SRM v%s\n", srm.Version)
	},
	DisableAutoGenTag: true,
}

var concentrationCmd = &cobra.Command{
	Use:   "concentration",
	Short: "Calculate concentrations at a point",
	Long: `concentration calculates the concentrations of the configured pollutants
at the location given by --x and --y and prints them as a table. Locations
more than 60 m from the nearest road are reported as out of range.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngine(Cfg)
		if err != nil {
			return err
		}
		pols, err := pollutants(Cfg)
		if err != nil {
			return err
		}
		return Concentration(cmd.OutOrStdout(), e, Cfg.GetFloat64("x"), Cfg.GetFloat64("y"), pols)
	},
	DisableAutoGenTag: true,
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the grid cell of a point",
	Long: `grid prints the 4 km grid cell that contains the location given by --x
and --y, along with the keys used to look it up in the background
concentration and meteorology tables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Grid(cmd.OutOrStdout(), Cfg.GetFloat64("x"), Cfg.GetFloat64("y"),
			Cfg.GetInt("BackgroundYear"), Cfg.GetInt("MeteorologyYear"))
	},
	DisableAutoGenTag: true,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Calculate concentrations at many points",
	Long: `batch calculates the concentrations of the configured pollutants at
every point in ReceptorShapefile and writes them to OutputFile, with one
record per receptor and pollutant.

	Output fields:
	Pollutant: The pollutant name
	Conc: The concentration [μg/m³], or NaN if it could not be calculated
	Status: "ok", or the reason the concentration could not be calculated`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEngine(Cfg)
		if err != nil {
			return err
		}
		pols, err := pollutants(Cfg)
		if err != nil {
			return err
		}
		sr, err := gridSR(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		receptorFile, err := checkInputFile("ReceptorShapefile", Cfg.GetString("ReceptorShapefile"))
		if err != nil {
			return err
		}
		return Batch(e, receptorFile, outputFile, sr, pols)
	},
	DisableAutoGenTag: true,
}
