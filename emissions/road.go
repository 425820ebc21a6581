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

package emissions

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/unit"

	"github.com/spatialmodel/eminv/edb"
)

const secondsPerDay = 86400.

// A RoadConfig configures the road-segment emission calculation.
type RoadConfig struct {
	// MinAADT excludes road sources whose annual average daily traffic
	// does not exceed it. It must be set (non-negative); there is no
	// implicit default.
	MinAADT float64

	// SimplifyTolerance, when positive, simplifies the pass-through
	// geometry of result rows with the given tolerance. It has no effect
	// on the computed emissions.
	SimplifyTolerance float64

	// Workers bounds the number of road sources processed concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

func (c RoadConfig) validate() error {
	if c.MinAADT < 0 {
		return fmt.Errorf("emissions: RoadConfig.MinAADT is %g; it must be set to a non-negative value", c.MinAADT)
	}
	return nil
}

// A RoadEmissionRow is the computed emission of one substance from one
// vehicle type on one road segment, in kg/s, together with the road's
// descriptive attributes. The descriptive fields are carried through
// unmodified for reporting and play no part in the computation.
type RoadEmissionRow struct {
	SourceID   int
	SourceName string

	Vehicle   edb.VehicleID
	Substance edb.SubstanceID

	Rate *unit.Unit

	// Pass-through attributes.
	Geom             geom.LineString
	AADT             float64
	HeavyShare       float64
	NoLanes          int
	Speed            float64
	Width            float64
	DrivableWidth    float64
	Slope            float64
	VehicleMaxSpeed  float64
	TrafficTimevar   edb.TimevarID
	ColdstartTimevar edb.TimevarID
}

// A RoadCalculator computes road-segment emissions for one snapshot. It
// resolves fleet compositions and the driving-condition table once at
// construction time; Calculate may then be called with different source
// filters.
type RoadCalculator struct {
	snapshot   *edb.Snapshot
	cfg        RoadConfig
	substances SubstanceSet

	fleetRows  map[edb.FleetID][]FleetRow
	conditions *ConditionTable
	gaps       *GapReport
}

// NewRoadCalculator builds a RoadCalculator, failing fast on an invalid
// configuration or a malformed congestion profile pair.
func NewRoadCalculator(ctx context.Context, s *edb.Snapshot, substances SubstanceSet, ac *ACFilter, cfg RoadConfig) (*RoadCalculator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	gaps := new(GapReport)

	fleetRows := make(map[edb.FleetID][]FleetRow)
	for _, src := range s.RoadSources {
		if _, ok := fleetRows[src.Fleet]; ok {
			continue
		}
		if _, ok := s.Fleets[src.Fleet]; !ok {
			continue // Reported per road in Calculate.
		}
		rows, err := ResolveFleetComposition(s, src.Fleet, substances, ac, gaps)
		if err != nil {
			return nil, err
		}
		fleetRows[src.Fleet] = rows
	}

	conditions, err := BuildConditionTable(ctx, s, gaps)
	if err != nil {
		return nil, err
	}

	return &RoadCalculator{
		snapshot:   s,
		cfg:        cfg,
		substances: substances,
		fleetRows:  fleetRows,
		conditions: conditions,
		gaps:       gaps,
	}, nil
}

// Gaps returns the referential gaps recorded so far, including those
// from fleet and condition-table resolution.
func (c *RoadCalculator) Gaps() *GapReport { return c.gaps }

// Calculate computes one RoadEmissionRow per (road source, vehicle,
// substance) for the sources passing the filter. Sources are processed
// concurrently; the result order is deterministic.
func (c *RoadCalculator) Calculate(ctx context.Context, filter *SourceFilter) ([]RoadEmissionRow, error) {
	var included []*edb.RoadSource
	for _, src := range c.snapshot.RoadSources {
		if src.AADT <= c.cfg.MinAADT {
			continue
		}
		if !filter.Matches(&src.SourceData, src.Geom) {
			continue
		}
		included = append(included, src)
	}

	workers := c.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}

	srcChan := make(chan *edb.RoadSource)
	rowChan := make(chan []RoadEmissionRow)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for src := range srcChan {
				rowChan <- c.calculateSource(src)
			}
		}()
	}
	go func() {
		defer close(srcChan)
		for _, src := range included {
			select {
			case srcChan <- src:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(rowChan)
	}()

	var rows []RoadEmissionRow
	for batch := range rowChan {
		rows = append(rows, batch...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Vehicle != b.Vehicle {
			return a.Vehicle < b.Vehicle
		}
		return a.Substance < b.Substance
	})
	return rows, nil
}

// calculateSource computes the emission rows of one road source.
func (c *RoadCalculator) calculateSource(src *edb.RoadSource) []RoadEmissionRow {
	fleet, ok := c.snapshot.Fleets[src.Fleet]
	if !ok {
		c.gaps.add(GapFleet, fmt.Sprintf("road source %d", src.ID),
			"fleet %d not in snapshot", src.Fleet)
		return nil
	}
	heavyShare := src.HeavyShare(fleet)
	length := src.Geom.Length()

	outGeom := src.Geom
	if c.cfg.SimplifyTolerance > 0 {
		outGeom = src.Geom.Simplify(c.cfg.SimplifyTolerance).(geom.LineString)
	}

	var rows []RoadEmissionRow
	matched := false
	for _, row := range c.fleetRows[src.Fleet] {
		if row.RoadClass != src.RoadClass {
			continue
		}
		matched = true

		classShare := heavyShare
		if !row.IsHeavy {
			classShare = 1 - heavyShare
		}
		vehMetersPerSec := classShare * row.Fraction * src.AADT / secondsPerDay * length

		shares := c.conditions.Shares(src.CongestionProfile, row.TrafficTimevar)
		emis := vehMetersPerSec * (shares.Dot(row.EF) + row.ColdstartEF*row.ColdstartFraction)

		rows = append(rows, RoadEmissionRow{
			SourceID:         src.ID,
			SourceName:       src.Name,
			Vehicle:          row.Vehicle,
			Substance:        row.Substance,
			Rate:             Rate(emis),
			Geom:             outGeom,
			AADT:             src.AADT,
			HeavyShare:       heavyShare,
			NoLanes:          src.NoLanes,
			Speed:            src.Speed,
			Width:            src.Width,
			DrivableWidth:    src.DrivableWidth(),
			Slope:            src.Slope,
			VehicleMaxSpeed:  row.MaxSpeed,
			TrafficTimevar:   row.TrafficTimevar,
			ColdstartTimevar: row.ColdstartTimevar,
		})
	}
	if !matched {
		c.gaps.add(GapRoadClass, fmt.Sprintf("road source %d", src.ID),
			"no fleet composition rows for road class %d", src.RoadClass)
	}
	return rows
}
