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
	"fmt"
	"sort"

	"github.com/ctessum/unit"

	"github.com/spatialmodel/eminv/edb"
)

// A SourceEmissionRow is the computed emission of one substance from one
// point or area source, in kg/s, carrying the source's activity codes
// for downstream grouping.
type SourceEmissionRow struct {
	SourceType edb.SourceType
	SourceID   int
	SourceName string

	Substance edb.SubstanceID

	ActivityCode1 edb.ActivityCodeID
	ActivityCode2 edb.ActivityCodeID
	ActivityCode3 edb.ActivityCodeID

	Rate *unit.Unit
}

// CalculateSourceEmissions computes emissions for the given point or area
// sources. Per source and substance it sums the directly reported
// emission values (positive values only) and the products of activity
// rates (positive rates only) with matching emission factors. A source
// activity whose activity has no emission factor for any requested
// substance contributes nothing and is recorded as a gap.
func CalculateSourceEmissions(s *edb.Snapshot, typ edb.SourceType, sources []edb.ActivitySource, substances SubstanceSet, filter *SourceFilter, gaps *GapReport) []SourceEmissionRow {
	efs := ResolveEmissionFactors(s, substances)

	var rows []SourceEmissionRow
	for _, src := range sources {
		d := src.GetSourceData()
		if !filter.Matches(d, src.Location()) {
			continue
		}
		bySubstance := make(map[edb.SubstanceID]float64)
		for _, e := range src.SubstanceEmissions() {
			if e.Value <= 0 || !substances.Contains(e.Substance) {
				continue
			}
			bySubstance[e.Substance] += e.Value
		}
		for _, sa := range src.ActivityRates() {
			if sa.Rate <= 0 {
				continue
			}
			factors := efs[sa.Activity]
			if len(factors) == 0 {
				if gaps != nil {
					gaps.add(GapEmissionFactor,
						fmt.Sprintf("%s source %d", typ, d.ID),
						"activity %d has no emission factor for the requested substances", sa.Activity)
				}
				continue
			}
			for _, ef := range factors {
				bySubstance[ef.Substance] += sa.Rate * ef.Factor
			}
		}
		for subst, v := range bySubstance {
			rows = append(rows, SourceEmissionRow{
				SourceType:    typ,
				SourceID:      d.ID,
				SourceName:    d.Name,
				Substance:     subst,
				ActivityCode1: d.ActivityCode1,
				ActivityCode2: d.ActivityCode2,
				ActivityCode3: d.ActivityCode3,
				Rate:          Rate(v),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.Substance < b.Substance
	})
	return rows
}

// PointSourceEmissions computes emissions for the snapshot's point
// sources.
func PointSourceEmissions(s *edb.Snapshot, substances SubstanceSet, filter *SourceFilter, gaps *GapReport) []SourceEmissionRow {
	sources := make([]edb.ActivitySource, len(s.PointSources))
	for i, src := range s.PointSources {
		sources[i] = src
	}
	return CalculateSourceEmissions(s, edb.Point, sources, substances, filter, gaps)
}

// AreaSourceEmissions computes emissions for the snapshot's area
// sources.
func AreaSourceEmissions(s *edb.Snapshot, substances SubstanceSet, filter *SourceFilter, gaps *GapReport) []SourceEmissionRow {
	sources := make([]edb.ActivitySource, len(s.AreaSources))
	for i, src := range s.AreaSources {
		sources[i] = src
	}
	return CalculateSourceEmissions(s, edb.Area, sources, substances, filter, gaps)
}
