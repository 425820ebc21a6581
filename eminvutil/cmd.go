/*
Copyright © 2024 the Eminv authors.
This file is part of Eminv.

Eminv is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Eminv is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Eminv.  If not, see <http://www.gnu.org/licenses/>.*/

package eminvutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spatialmodel/eminv/edb"
	"github.com/spatialmodel/eminv/emissions"
)

// Version is the version of this program.
const Version = "0.1.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to Eminv.
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
              LogLevel specifies the logging verbosity. Acceptable values
              are 'debug', 'info', 'warning', and 'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SnapshotFile",
			usage: `
              SnapshotFile is the path to the xlsx workbook holding the
              emission database snapshot.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Substances",
			usage: `
              Substances lists the slugs of the substances to include in
              the calculation. An empty list means all substances the
              snapshot uses.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "TrafficWork",
			usage: `
              TrafficWork is the slug of the synthetic substance under
              which driven vehicle distance is reported. It overrides the
              snapshot's own setting.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "SourceTypes",
			usage: `
              SourceTypes selects which source types contribute.
              Acceptable values are 'point', 'area', and 'road'; an empty
              list means all three.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "OutputUnits",
			usage: `
              OutputUnits specifies the units of the output data.
              Acceptable values are 'kg/s', 'kg/h', 'kg/day', 'g/s',
              'kg/year', and 'tonnes/year'.`,
			defaultVal: "kg/s",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the CSV file to write results to.
              An empty path writes a table to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MinAADT",
			usage: `
              MinAADT excludes road sources whose annual average daily
              traffic does not exceed it. It has no default and must be
              set whenever road sources are calculated.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), roadsCmd.Flags()},
		},
		{
			name: "SimplifyTolerance",
			usage: `
              SimplifyTolerance simplifies exported road geometry with
              the given tolerance, when positive.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{roadsCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers bounds the number of concurrently processed road
              sources. Zero means the number of processors.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), roadsCmd.Flags()},
		},
		{
			name: "GroupByCode1",
			usage: `
              GroupByCode1 partitions the aggregated totals by the first
              activity-code level.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "GroupByCode2",
			usage: `
              GroupByCode2 partitions the aggregated totals by the second
              activity-code level.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "GroupByCode3",
			usage: `
              GroupByCode3 partitions the aggregated totals by the third
              activity-code level.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
		{
			name: "Filter.SourceIDs",
			usage: `
              Filter.SourceIDs lists source record identifiers to
              include; empty means no identifier restriction.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Filter.Name",
			usage: `
              Filter.Name is a regular expression matched against source
              names.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Filter.Tags",
			usage: `
              Filter.Tags maps tag keys to required values. A value may
              carry a '=' or '!=' operator prefix; a bare value means
              equality.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Shapefile",
			usage: `
              Shapefile is the path of a shapefile to additionally write
              road results to, with one record per road and vehicle type
              and one attribute column per substance.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{roadsCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("EMINV")

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
				set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
			case bool:
				set.Bool(option.name, option.defaultVal.(bool), option.usage)
			case int:
				set.Int(option.name, option.defaultVal.(int), option.usage)
			case []int:
				set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
			case float64:
				set.Float64(option.name, option.defaultVal.(float64), option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				set.String(option.name, s, option.usage)
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
	Root.AddCommand(aggregateCmd)
	Root.AddCommand(sourcesCmd)
	Root.AddCommand(roadsCmd)
	Root.AddCommand(substancesCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("eminv: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("eminv: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// ConfigFromViper builds the run configuration from the current
// settings.
func ConfigFromViper(cfg *viper.Viper) (*Config, error) {
	c := new(Config)
	c.SnapshotFile = cfg.GetString("SnapshotFile")
	var err error
	if c.Substances, err = cast.ToStringSliceE(cfg.Get("Substances")); err != nil {
		return nil, fmt.Errorf("eminv: Substances: %v", err)
	}
	c.TrafficWork = cfg.GetString("TrafficWork")
	if c.SourceTypes, err = cast.ToStringSliceE(cfg.Get("SourceTypes")); err != nil {
		return nil, fmt.Errorf("eminv: SourceTypes: %v", err)
	}
	c.OutputUnits = cfg.GetString("OutputUnits")
	if v := cfg.GetFloat64("MinAADT"); v >= 0 {
		c.MinAADT = &v
	}
	c.SimplifyTolerance = cfg.GetFloat64("SimplifyTolerance")
	c.Workers = cfg.GetInt("Workers")
	c.GroupByCode1 = cfg.GetBool("GroupByCode1")
	c.GroupByCode2 = cfg.GetBool("GroupByCode2")
	c.GroupByCode3 = cfg.GetBool("GroupByCode3")
	if c.Filter.SourceIDs, err = cast.ToIntSliceE(cfg.Get("Filter.SourceIDs")); err != nil {
		return nil, fmt.Errorf("eminv: Filter.SourceIDs: %v", err)
	}
	c.Filter.Name = cfg.GetString("Filter.Name")
	if tags := cfg.Get("Filter.Tags"); tags != nil {
		if s, ok := tags.(string); ok {
			// Tags given on the command line arrive as JSON.
			m := make(map[string]string)
			if err := json.Unmarshal([]byte(s), &m); err != nil {
				return nil, fmt.Errorf("eminv: Filter.Tags: %v", err)
			}
			if len(m) > 0 {
				c.Filter.Tags = m
			}
		} else {
			if c.Filter.Tags, err = cast.ToStringMapStringE(tags); err != nil {
				return nil, fmt.Errorf("eminv: Filter.Tags: %v", err)
			}
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadSnapshot reads the configured snapshot workbook and applies
// configuration overrides.
func loadSnapshot(c *Config) (*edb.Snapshot, error) {
	s, err := ReadSnapshot(c.SnapshotFile)
	if err != nil {
		return nil, err
	}
	if c.TrafficWork != "" {
		sub, err := s.SubstanceBySlug(c.TrafficWork)
		if err != nil {
			return nil, err
		}
		s.TrafficWork = sub.ID
	}
	return s, nil
}

// logGaps reports referential gaps at warning level.
func logGaps(gaps *emissions.GapReport) {
	if gaps.Len() == 0 {
		return
	}
	logrus.WithField("gaps", gaps.Len()).Warn("some references could not be resolved; " +
		"the affected records contribute zero emission")
	for _, g := range gaps.Gaps() {
		logrus.WithFields(logrus.Fields{
			"entity": g.Entity,
			"kind":   string(g.Kind),
		}).Warn(g.Detail)
	}
}

// output opens the configured output file, or returns standard output.
func output(c *Config, outputFile string) (*os.File, func() error, error) {
	if outputFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, fmt.Errorf("eminv: creating output file: %v", err)
	}
	return f, f.Close, nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "eminv",
	Short: "An emission inventory aggregation engine.",
	Long: `Eminv aggregates emissions from point, area, and road traffic sources
in an emission database snapshot into per-substance totals.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'EMINV_var' where 'var' is
the name of the variable to be set.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of Eminv.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Eminv v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate emissions into per-substance totals.",
	Long: `aggregate calculates the emissions of all selected sources and sums
them into one total per substance, optionally partitioned by activity
codes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		s, err := loadSnapshot(c)
		if err != nil {
			return err
		}
		substances, err := c.SubstanceSet(s)
		if err != nil {
			return err
		}
		filter := c.SourceFilter()
		gaps := new(emissions.GapReport)
		totals := emissions.NewTotals(c.GroupBy())

		if c.HasSourceType(edb.Point) {
			totals.AddSourceRows(emissions.PointSourceEmissions(s, substances, filter, gaps))
		}
		if c.HasSourceType(edb.Area) {
			totals.AddSourceRows(emissions.AreaSourceEmissions(s, substances, filter, gaps))
		}
		if c.HasSourceType(edb.Road) && len(s.RoadSources) > 0 {
			roadCfg, err := c.RoadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			calc, err := emissions.NewRoadCalculator(ctx, s, substances, nil, roadCfg)
			if err != nil {
				return err
			}
			rows, err := calc.Calculate(ctx, filter)
			if err != nil {
				return err
			}
			totals.AddRoadRows(rows)
			gaps.Merge(calc.Gaps())
		}
		logGaps(gaps)

		outputFile := Cfg.GetString("OutputFile")
		w, closer, err := output(c, outputFile)
		if err != nil {
			return err
		}
		if outputFile == "" {
			if _, err := emissions.TotalsTable(s, totals).Tabbed(w); err != nil {
				return err
			}
			return closer()
		}
		if err := WriteTotalsCSV(w, s, totals, c.OutputUnits); err != nil {
			return err
		}
		return closer()
	},
	DisableAutoGenTag: true,
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Calculate per-source emissions of point and area sources.",
	Long: `sources calculates the emissions of each point and area source
separately, one row per source and substance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		s, err := loadSnapshot(c)
		if err != nil {
			return err
		}
		substances, err := c.SubstanceSet(s)
		if err != nil {
			return err
		}
		filter := c.SourceFilter()
		gaps := new(emissions.GapReport)

		rows := emissions.PointSourceEmissions(s, substances, filter, gaps)
		rows = append(rows, emissions.AreaSourceEmissions(s, substances, filter, gaps)...)
		logGaps(gaps)

		w, closer, err := output(c, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		if err := WriteSourceCSV(w, s, rows, c.OutputUnits); err != nil {
			return err
		}
		return closer()
	},
	DisableAutoGenTag: true,
}

var roadsCmd = &cobra.Command{
	Use:   "roads",
	Short: "Calculate per-road emissions of road traffic sources.",
	Long: `roads calculates the emissions of each road source separately, one
row per road, vehicle type, and substance, and optionally writes the
results to a shapefile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		s, err := loadSnapshot(c)
		if err != nil {
			return err
		}
		substances, err := c.SubstanceSet(s)
		if err != nil {
			return err
		}
		roadCfg, err := c.RoadConfig()
		if err != nil {
			return err
		}
		ctx := context.Background()
		calc, err := emissions.NewRoadCalculator(ctx, s, substances, nil, roadCfg)
		if err != nil {
			return err
		}
		rows, err := calc.Calculate(ctx, c.SourceFilter())
		if err != nil {
			return err
		}
		logGaps(calc.Gaps())

		if shapeFile := Cfg.GetString("Shapefile"); shapeFile != "" {
			if err := WriteRoadShapefile(shapeFile, s, rows, c.OutputUnits); err != nil {
				return err
			}
		}
		w, closer, err := output(c, Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		if err := WriteRoadCSV(w, s, rows, c.OutputUnits); err != nil {
			return err
		}
		return closer()
	},
	DisableAutoGenTag: true,
}

var substancesCmd = &cobra.Command{
	Use:   "substances",
	Short: "List the substances the snapshot uses.",
	Long: `substances lists the substances that have emissions or emission
factors in the snapshot, excluding the synthetic traffic-work
substance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		s, err := loadSnapshot(c)
		if err != nil {
			return err
		}
		t := emissions.Table{{"Slug", "Name"}}
		for _, sub := range s.UsedSubstances() {
			t = append(t, []string{sub.Slug, sub.Name})
		}
		_, err = t.Tabbed(os.Stdout)
		return err
	},
	DisableAutoGenTag: true,
}
