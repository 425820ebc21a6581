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

// Package eminvutil provides configuration, import, and export helpers
// for the eminv emission aggregation engine.
package eminvutil

import (
	"fmt"
	"io"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/spatialmodel/eminv/edb"
	"github.com/spatialmodel/eminv/emissions"
)

// Config holds the user-settable options of an aggregation run.
type Config struct {
	// SnapshotFile is the path to the xlsx workbook holding the
	// emission database snapshot.
	SnapshotFile string

	// Substances lists the slugs of the substances to include in the
	// calculation. An empty list means all substances the snapshot
	// uses.
	Substances []string

	// TrafficWork is the slug of the synthetic substance under which
	// driven vehicle distance is reported, if any.
	TrafficWork string

	// SourceTypes selects which source types contribute. Acceptable
	// values are `point', `area', and `road'; an empty list means all
	// three.
	SourceTypes []string

	// OutputUnits specifies the units of the output data. Acceptable
	// values are `kg/s', `kg/h', `kg/day', `g/s', `kg/year', and
	// `tonnes/year'.
	OutputUnits string

	// MinAADT excludes road sources whose annual average daily traffic
	// does not exceed it. It has no default and must be set whenever
	// road sources are calculated.
	MinAADT *float64

	// SimplifyTolerance simplifies exported road geometry with the
	// given tolerance, when positive.
	SimplifyTolerance float64

	// Workers bounds the number of concurrently processed road
	// sources. Zero means the number of processors.
	Workers int

	// GroupByCode1, GroupByCode2, and GroupByCode3 partition the
	// aggregated totals by the corresponding activity-code level.
	GroupByCode1 bool
	GroupByCode2 bool
	GroupByCode3 bool

	// Filter restricts which sources contribute.
	Filter FilterConfig
}

// FilterConfig restricts the calculation to matching sources.
type FilterConfig struct {
	// SourceIDs lists source record identifiers to include; empty
	// means no identifier restriction.
	SourceIDs []int

	// Name is a regular expression matched against source names.
	Name string

	// Tags maps tag keys to required values. A value may carry a `='
	// or `!=' operator prefix; a bare value means equality.
	Tags map[string]string
}

// ReadConfig reads a Config from TOML-encoded data.
func ReadConfig(r io.Reader) (*Config, error) {
	c := new(Config)
	if _, err := toml.DecodeReader(r, c); err != nil {
		return nil, fmt.Errorf("eminvutil: reading configuration: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configuration for errors that should stop a run
// before any data is read.
func (c *Config) Validate() error {
	if c.SnapshotFile == "" {
		return fmt.Errorf("eminvutil: configuration is missing SnapshotFile")
	}
	for _, st := range c.SourceTypes {
		switch st {
		case "point", "area", "road":
		default:
			return fmt.Errorf("eminvutil: invalid source type %q; acceptable values are `point', `area', and `road'", st)
		}
	}
	if _, err := OutputConversion(c.OutputUnits); err != nil {
		return err
	}
	if c.Filter.Name != "" {
		if _, err := regexp.Compile(c.Filter.Name); err != nil {
			return fmt.Errorf("eminvutil: invalid source name expression: %v", err)
		}
	}
	if c.MinAADT != nil && *c.MinAADT < 0 {
		return fmt.Errorf("eminvutil: MinAADT is %g; it must be non-negative", *c.MinAADT)
	}
	return nil
}

// HasSourceType reports whether the configuration includes the given
// source type.
func (c *Config) HasSourceType(t edb.SourceType) bool {
	if len(c.SourceTypes) == 0 {
		return true
	}
	var name string
	switch t {
	case edb.Point:
		name = "point"
	case edb.Area:
		name = "area"
	case edb.Road:
		name = "road"
	}
	for _, st := range c.SourceTypes {
		if st == name {
			return true
		}
	}
	return false
}

// SubstanceSet resolves the configured substance slugs against a
// snapshot. Unknown slugs are errors.
func (c *Config) SubstanceSet(s *edb.Snapshot) (emissions.SubstanceSet, error) {
	if len(c.Substances) == 0 {
		return nil, nil
	}
	ids := make([]edb.SubstanceID, 0, len(c.Substances))
	for _, slug := range c.Substances {
		sub, err := s.SubstanceBySlug(slug)
		if err != nil {
			return nil, err
		}
		ids = append(ids, sub.ID)
	}
	return emissions.NewSubstanceSet(ids...), nil
}

// SourceFilter compiles the configured filter. Validate must have
// succeeded.
func (c *Config) SourceFilter() *emissions.SourceFilter {
	f := &emissions.SourceFilter{
		IDs:  c.Filter.SourceIDs,
		Tags: c.Filter.Tags,
	}
	if c.Filter.Name != "" {
		f.Name = regexp.MustCompile(c.Filter.Name)
	}
	return f
}

// RoadConfig builds the road calculation configuration, requiring
// MinAADT to be set.
func (c *Config) RoadConfig() (emissions.RoadConfig, error) {
	if c.MinAADT == nil {
		return emissions.RoadConfig{}, fmt.Errorf("eminvutil: MinAADT must be set to calculate road sources")
	}
	return emissions.RoadConfig{
		MinAADT:           *c.MinAADT,
		SimplifyTolerance: c.SimplifyTolerance,
		Workers:           c.Workers,
	}, nil
}

// GroupBy returns the configured totals grouping.
func (c *Config) GroupBy() emissions.GroupBy {
	return emissions.GroupBy{AC1: c.GroupByCode1, AC2: c.GroupByCode2, AC3: c.GroupByCode3}
}

// OutputConversion returns the factor that converts a rate in kg/s to
// the named output units. An empty name means kg/s.
func OutputConversion(units string) (float64, error) {
	switch units {
	case "", "kg/s":
		return 1, nil
	case "g/s":
		return 1000, nil
	case "kg/h":
		return 3600, nil
	case "kg/day":
		return 86400, nil
	case "kg/year":
		return 3600 * 24 * 365.25, nil
	case "tonnes/year":
		return 3600 * 24 * 365.25 / 1000, nil
	default:
		return 0, fmt.Errorf("eminvutil: invalid output units %q; acceptable values are `kg/s', `kg/h', `kg/day', `g/s', `kg/year', and `tonnes/year'", units)
	}
}
